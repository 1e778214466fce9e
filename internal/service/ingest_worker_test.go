package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invwatch/internal/domain"
)

type recordingIngest struct {
	mu   sync.Mutex
	seen []string
}

func (r *recordingIngest) Process(_ context.Context, path string) domain.ProcessOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, filepath.Base(path))
	return domain.OutcomeArchived
}

func (r *recordingIngest) Preview(context.Context, string) (*ParsePreview, error) { return nil, nil }
func (r *recordingIngest) Stats() domain.IngestStats { return domain.IngestStats{} }
func (r *recordingIngest) SetPending(int) {}

func (r *recordingIngest) processed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.seen...)
}

func TestIngestWorker_ProcessesExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "existing.pdf", "x")
	writeFile(t, dir, "notes.txt", "ignored")

	svc := &recordingIngest{}
	w := NewIngestWorker(svc, IngestWorkerConfig{InputDir: dir, Workers: 2}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	require.Eventually(t, func() bool {
		return len(svc.processed()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	writeFile(t, dir, "NEW.PDF", "y")
	require.Eventually(t, func() bool {
		for _, name := range svc.processed() {
			if name == "NEW.PDF" {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	assert.Contains(t, svc.processed(), "existing.pdf")
	assert.NotContains(t, svc.processed(), "notes.txt")
	assert.Zero(t, w.Pending())
}

func TestIsSupportedFile(t *testing.T) {
	assert.True(t, IsSupportedFile("/in/a.pdf"))
	assert.True(t, IsSupportedFile("B.PDF"))
	assert.False(t, IsSupportedFile("a.pdf.part"))
	assert.False(t, IsSupportedFile("a"))
}
