package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"invwatch/internal/port"
)

// TimestampLayout is appended to moved file names.
const TimestampLayout = "20060102_150405"

// FileMover moves processed files out of the watch directory, stamping the
// name so repeated drops of the same file never collide.
type FileMover struct {
	archiveDir string
	errorDir   string
	storage    port.ObjectStorage
	bucket     string
	now        func() time.Time
	log        zerolog.Logger
}

// NewFileMover creates a FileMover. storage may be nil to disable mirroring.
func NewFileMover(archiveDir, errorDir string, storage port.ObjectStorage, bucket string, log zerolog.Logger) *FileMover {
	return &FileMover{
		archiveDir: archiveDir,
		errorDir:   errorDir,
		storage:    storage,
		bucket:     bucket,
		now:        time.Now,
		log:        log.With().Str("component", "file_mover").Logger(),
	}
}

// Archive moves a successfully processed file into the archive directory.
func (m *FileMover) Archive(ctx context.Context, path string) (string, error) {
	return m.move(ctx, path, m.archiveDir, "archive")
}

// Quarantine moves a failed file into the error directory.
func (m *FileMover) Quarantine(ctx context.Context, path string) (string, error) {
	return m.move(ctx, path, m.errorDir, "error")
}

// TimestampedName turns "inv.pdf" into "inv_20240402_101500.pdf".
func TimestampedName(base string, t time.Time) string {
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s_%s%s", name, t.Format(TimestampLayout), ext)
}

func (m *FileMover) move(ctx context.Context, path, dir, keyPrefix string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	target := freeName(filepath.Join(dir, TimestampedName(filepath.Base(path), m.now())))
	if err := os.Rename(path, target); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if errors.Is(err, os.ErrNotExist) {
			return "", err
		}
		if err := copyFile(path, target); err != nil {
			return "", fmt.Errorf("copying %s to %s: %w", path, target, err)
		}
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("removing %s: %w", path, err)
		}
	}

	m.log.Info().Str("from", path).Str("to", target).Msg("file moved")
	m.mirror(ctx, target, keyPrefix)
	return target, nil
}

// mirror uploads the moved file to object storage. Failures are logged only:
// the local move already succeeded.
func (m *FileMover) mirror(ctx context.Context, path, keyPrefix string) {
	if m.storage == nil {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		m.log.Warn().Err(err).Str("path", path).Msg("mirror: open failed")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		m.log.Warn().Err(err).Str("path", path).Msg("mirror: stat failed")
		return
	}

	key := keyPrefix + "/" + filepath.Base(path)
	out, err := m.storage.Upload(ctx, port.UploadInput{
		Bucket:      m.bucket,
		Key:         key,
		Body:        f,
		ContentType: "application/pdf",
		Size:        info.Size(),
	})
	if err != nil {
		m.log.Warn().Err(err).Str("key", key).Msg("mirror: upload failed")
		return
	}
	m.log.Debug().Str("key", key).Str("location", out.Location).Msg("mirrored to object storage")
}

// freeName returns path, or path with a numeric suffix if it already exists.
func freeName(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
