package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invwatch/internal/domain"
)

var fastStability = StabilityConfig{Delay: 5 * time.Millisecond, Retries: 2}

func TestWaitStable_SettledFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.pdf", "12345")
	size, err := WaitStable(context.Background(), path, fastStability)
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
}

func TestWaitStable_Vanished(t *testing.T) {
	_, err := WaitStable(context.Background(), filepath.Join(t.TempDir(), "none.pdf"), fastStability)
	assert.ErrorIs(t, err, domain.ErrFileVanished)
}

func TestWaitStable_EmptyFileNeverSettles(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.pdf", "")
	_, err := WaitStable(context.Background(), path, StabilityConfig{Delay: time.Millisecond, Retries: 2, MaxPolls: 5})
	assert.ErrorIs(t, err, domain.ErrFileUnstable)
}

func TestWaitStable_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := writeFile(t, t.TempDir(), "a.pdf", "x")
	_, err := WaitStable(ctx, path, StabilityConfig{Delay: time.Second, Retries: 3})
	assert.ErrorIs(t, err, context.Canceled)
}
