package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invwatch/internal/port"
	"invwatch/mocks"
)

var fixedNow = time.Date(2024, time.April, 2, 10, 15, 0, 0, time.UTC)

func newMover(t *testing.T, storage port.ObjectStorage) (*FileMover, string) {
	t.Helper()
	root := t.TempDir()
	m := NewFileMover(filepath.Join(root, "archive"), filepath.Join(root, "error"), storage, "bucket", zerolog.Nop())
	m.now = func() time.Time { return fixedNow }
	return m, root
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestTimestampedName(t *testing.T) {
	assert.Equal(t, "inv_20240402_101500.pdf", TimestampedName("inv.pdf", fixedNow))
	assert.Equal(t, "README_20240402_101500", TimestampedName("README", fixedNow))
}

func TestFileMover_Archive(t *testing.T) {
	m, root := newMover(t, nil)
	src := writeFile(t, filepath.Join(root, "in"), "SC1.pdf", "pdf")

	dest, err := m.Archive(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "archive", "SC1_20240402_101500.pdf"), dest)
	assert.NoFileExists(t, src)
	assert.FileExists(t, dest)
}

func TestFileMover_CollisionGetsSuffix(t *testing.T) {
	m, root := newMover(t, nil)
	first, err := m.Quarantine(context.Background(), writeFile(t, filepath.Join(root, "in"), "a.pdf", "1"))
	require.NoError(t, err)
	second, err := m.Quarantine(context.Background(), writeFile(t, filepath.Join(root, "in"), "a.pdf", "2"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "error", "a_20240402_101500.pdf"), first)
	assert.Equal(t, filepath.Join(root, "error", "a_20240402_101500_1.pdf"), second)
}

func TestFileMover_MissingSource(t *testing.T) {
	m, root := newMover(t, nil)
	_, err := m.Archive(context.Background(), filepath.Join(root, "gone.pdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileMover_MirrorsToStorage(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "bucket" && in.Key == "archive/b_20240402_101500.pdf" && in.Size == 3
	})).Return(&port.UploadOutput{Location: "s3://bucket/archive/b_20240402_101500.pdf"}, nil).Once()

	m, root := newMover(t, storage)
	_, err := m.Archive(context.Background(), writeFile(t, filepath.Join(root, "in"), "b.pdf", "abc"))
	require.NoError(t, err)
	storage.AssertExpectations(t)
}

func TestFileMover_MirrorFailureDoesNotFailMove(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))

	m, root := newMover(t, storage)
	dest, err := m.Quarantine(context.Background(), writeFile(t, filepath.Join(root, "in"), "c.pdf", "abc"))
	require.NoError(t, err)
	assert.FileExists(t, dest)
}
