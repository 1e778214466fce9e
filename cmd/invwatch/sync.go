package main

import (
	"github.com/spf13/cobra"

	"invwatch/internal/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a single sync cycle against the remote tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.Sync.Enabled = true
		if err := cfg.Validate(); err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.sync == nil {
			return domain.ErrSyncDisabled
		}

		res, err := a.sync.RunCycle(cmd.Context())
		if err != nil {
			return err
		}
		log.Info().Int("periods", res.Periods).Int("headers", res.HeadersUploaded).
			Int("items", res.ItemsUploaded).Int("skipped", res.InvoicesSkipped).Msg("sync done")
		return nil
	},
}
