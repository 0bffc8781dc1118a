// Package cachedir manages per-request scratch directories for downloaded images.
//
// Every request acquires its own Batch under the root directory. Releasing a
// batch arms a timer that deletes only that batch, so overlapping requests never
// remove each other's files.
package cachedir

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/pinfetch/pinfetch/pkg/models"
)

var (
	// ErrNotFound is returned when a batch or file does not exist.
	ErrNotFound = errors.New("cache file not found")
	// ErrClosed is returned by Acquire after Close.
	ErrClosed = errors.New("cache manager closed")
)

var fileName = regexp.MustCompile(`^[1-9][0-9]?\.jpg$`)

// Manager owns the root directory and every live batch beneath it.
type Manager struct {
	root   string
	delay  time.Duration
	logger *log.Logger

	mu      sync.Mutex
	batches map[string]*Batch
	closed  bool
}

// Batch is one request's directory.
type Batch struct {
	ID  string
	Dir string

	m       *Manager
	timer   *time.Timer
	removed bool
}

// New creates the root directory (with parents) and returns a Manager that
// deletes released batches after delay.
func New(root string, delay time.Duration, logger *log.Logger) (*Manager, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create cache root: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		root:    root,
		delay:   delay,
		logger:  logger,
		batches: make(map[string]*Batch),
	}, nil
}

// Root returns the root directory.
func (m *Manager) Root() string { return m.root }

// Delay returns the deletion delay applied by Release.
func (m *Manager) Delay() time.Duration { return m.delay }

// Acquire creates a fresh batch directory.
func (m *Manager) Acquire() (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}

	id := uuid.NewString()
	dir := filepath.Join(m.root, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create batch dir: %w", err)
	}

	b := &Batch{ID: id, Dir: dir, m: m}
	m.batches[id] = b
	return b, nil
}

// Path returns the on-disk path of a file in the batch.
func (b *Batch) Path(name string) string {
	return filepath.Join(b.Dir, name)
}

// Release schedules deletion of the batch after the manager's delay. Calling
// Release again re-arms the timer; calling it after removal is a no-op.
func (b *Batch) Release() {
	m := b.m
	m.mu.Lock()
	defer m.mu.Unlock()

	if b.removed || m.closed {
		return
	}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(m.delay, func() {
		if err := b.Discard(); err != nil {
			m.logger.Warn("cache cleanup failed", "batch", b.ID, "error", err)
			return
		}
		m.logger.Debug("cache batch cleaned up", "batch", b.ID)
	})
}

// Discard deletes the batch immediately and cancels any pending timer.
func (b *Batch) Discard() error {
	m := b.m
	m.mu.Lock()
	if b.removed {
		m.mu.Unlock()
		return nil
	}
	b.removed = true
	if b.timer != nil {
		b.timer.Stop()
	}
	delete(m.batches, b.ID)
	m.mu.Unlock()

	if err := os.RemoveAll(b.Dir); err != nil {
		return fmt.Errorf("remove batch dir: %w", err)
	}
	return nil
}

// Lookup resolves a cached file inside a live batch.
func (m *Manager) Lookup(id, name string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", ErrNotFound
	}
	if !fileName.MatchString(name) {
		return "", ErrNotFound
	}

	m.mu.Lock()
	b, ok := m.batches[id]
	m.mu.Unlock()
	if !ok {
		return "", ErrNotFound
	}

	p := b.Path(name)
	if _, err := os.Stat(p); err != nil {
		return "", ErrNotFound
	}
	return p, nil
}

// Stats reports live batches and the files currently under the root.
func (m *Manager) Stats() (models.DirStats, error) {
	m.mu.Lock()
	stats := models.DirStats{Batches: len(m.batches)}
	for _, b := range m.batches {
		if b.timer != nil {
			stats.Pending++
		}
	}
	m.mu.Unlock()

	files, bytes, err := usage(m.root)
	if err != nil {
		return stats, err
	}
	stats.Files = files
	stats.Bytes = bytes
	return stats, nil
}

// Close stops every pending timer and deletes all batches.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.closed = true
	batches := make([]*Batch, 0, len(m.batches))
	for _, b := range m.batches {
		batches = append(batches, b)
	}
	m.mu.Unlock()

	var errs []error
	for _, b := range batches {
		if err := b.Discard(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Scan reports the batch directories and files found under root without
// touching them. Pending is always zero since timers live in the server.
func Scan(root string) (models.DirStats, error) {
	files, bytes, err := usage(root)
	if err != nil {
		return models.DirStats{}, err
	}
	stats := models.DirStats{Files: files, Bytes: bytes}

	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return stats, nil
		}
		return stats, fmt.Errorf("read cache root: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			stats.Batches++
		}
	}
	return stats, nil
}

// Purge deletes every batch directory under root. It is meant for offline
// cleanup of a root left behind by a crashed server.
func Purge(root string) (models.DirStats, error) {
	files, bytes, err := usage(root)
	if err != nil {
		return models.DirStats{}, err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.DirStats{}, nil
		}
		return models.DirStats{}, fmt.Errorf("read cache root: %w", err)
	}

	stats := models.DirStats{Files: files, Bytes: bytes}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, e.Name())); err != nil {
			return stats, fmt.Errorf("remove batch dir: %w", err)
		}
		stats.Batches++
	}
	return stats, nil
}

func usage(root string) (files int, bytes int64, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Batches can vanish mid-walk when a timer fires.
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		files++
		bytes += info.Size()
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	if err != nil {
		err = fmt.Errorf("walk cache root: %w", err)
	}
	return files, bytes, err
}
