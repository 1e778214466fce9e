package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE...",
	Short: "Parse invoices and print the extracted documents as JSON",
	Long: `parse extracts each file and prints the document, segmentation anomalies and
validation report without writing CSVs or moving the file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer a.Close()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		for _, path := range args {
			preview, err := a.ingest.Preview(cmd.Context(), path)
			if err != nil {
				return err
			}
			if err := enc.Encode(preview); err != nil {
				return err
			}
		}
		return nil
	},
}
