package textsource

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"invwatch/internal/domain"
	"invwatch/internal/port"
)

// FallbackSource tries sources in order and returns the first result with
// any text on it. It implements port.TextSource.
type FallbackSource struct {
	sources []port.TextSource
	names   []string
	log     zerolog.Logger
}

// NewFallbackSource creates a FallbackSource from an ordered list of sources and their names.
func NewFallbackSource(sources []port.TextSource, names []string, log zerolog.Logger) *FallbackSource {
	return &FallbackSource{sources: sources, names: names, log: log}
}

func (f *FallbackSource) Pages(ctx context.Context, path string) ([][]string, error) {
	var lastErr error
	for i, s := range f.sources {
		pages, err := s.Pages(ctx, path)
		if err == nil && hasText(pages) {
			return pages, nil
		}
		if err == nil {
			err = fmt.Errorf("%w: no text", domain.ErrSourceUnavailable)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		f.log.Debug().Str("source", f.names[i]).Str("path", path).Err(err).Msg("text source failed")
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no text sources configured", domain.ErrSourceUnavailable)
	}
	return nil, fmt.Errorf("all text sources failed: %w", lastErr)
}

func hasText(pages [][]string) bool {
	for _, p := range pages {
		if len(p) > 0 {
			return true
		}
	}
	return false
}
