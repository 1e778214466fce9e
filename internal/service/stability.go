package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"invwatch/internal/domain"
)

// StabilityConfig controls how long a file must stay the same size before
// it is considered fully written.
type StabilityConfig struct {
	Delay   time.Duration
	Retries int
	// MaxPolls bounds the total number of size checks; 0 means 10x Retries.
	MaxPolls int
}

// WaitStable polls path until its size is unchanged for Retries consecutive
// polls. It returns ErrFileVanished when the file disappears and
// ErrFileUnstable when MaxPolls is exhausted.
func WaitStable(ctx context.Context, path string, cfg StabilityConfig) (int64, error) {
	retries := cfg.Retries
	if retries < 1 {
		retries = 1
	}
	maxPolls := cfg.MaxPolls
	if maxPolls <= 0 {
		maxPolls = retries * 10
	}

	last := int64(-1)
	unchanged := 0
	for poll := 0; poll < maxPolls; poll++ {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return 0, domain.ErrFileVanished
			}
			return 0, fmt.Errorf("stat %s: %w", path, err)
		}
		size := info.Size()
		if size == last && size > 0 {
			unchanged++
			if unchanged >= retries {
				return size, nil
			}
		} else {
			unchanged = 0
		}
		last = size

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(cfg.Delay):
		}
	}
	return 0, domain.ErrFileUnstable
}
