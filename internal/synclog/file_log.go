package synclog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"invwatch/internal/port"
)

type fileContents struct {
	UpdatedAt time.Time `json:"updated_at"`
	Invoices  []string  `json:"invoices"`
}

// FileLog is a SyncLog persisted as a single JSON file. The whole set is
// held in memory after the first read.
type FileLog struct {
	path   string
	mu     sync.Mutex
	loaded bool
	seen   map[string]bool
}

var _ port.SyncLog = (*FileLog)(nil)

// NewFileLog creates a FileLog stored at path.
func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

func (l *FileLog) Exists(_ context.Context) (bool, error) {
	_, err := os.Stat(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat sync log: %w", err)
	}
	return true, nil
}

func (l *FileLog) Contains(_ context.Context, invoiceNos []string) (map[string]bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.load(); err != nil {
		return nil, err
	}
	found := make(map[string]bool, len(invoiceNos))
	for _, n := range invoiceNos {
		if l.seen[n] {
			found[n] = true
		}
	}
	return found, nil
}

// Record adds invoiceNos to the log and rewrites the file atomically.
// Calling it with no numbers still creates the file.
func (l *FileLog) Record(_ context.Context, invoiceNos []string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.load(); err != nil {
		return err
	}
	for _, n := range invoiceNos {
		if n != "" {
			l.seen[n] = true
		}
	}
	return l.save()
}

func (l *FileLog) load() error {
	if l.loaded {
		return nil
	}
	l.seen = make(map[string]bool)
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		l.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading sync log: %w", err)
	}
	var c fileContents
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("decoding sync log %s: %w", l.path, err)
	}
	for _, n := range c.Invoices {
		l.seen[n] = true
	}
	l.loaded = true
	return nil
}

func (l *FileLog) save() error {
	c := fileContents{UpdatedAt: time.Now().UTC(), Invoices: make([]string, 0, len(l.seen))}
	for n := range l.seen {
		c.Invoices = append(c.Invoices, n)
	}
	sort.Strings(c.Invoices)

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sync log: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating sync log dir: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing sync log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replacing sync log: %w", err)
	}
	return nil
}
