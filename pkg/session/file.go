package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/missionfeed/pkg/log"
)

// DefaultDebounceDelay coalesces the burst of events editors and atomic
// renames produce for one logical write.
const DefaultDebounceDelay = 100 * time.Millisecond

// FileProvider reads the bearer token from a file. A missing or blank file
// means unauthenticated.
type FileProvider struct {
	path     string
	debounce time.Duration
	logger   log.Logger

	mu       sync.RWMutex
	snap     Snapshot
	onChange ChangeFunc
	timer    *time.Timer
}

// NewFileProvider loads path once. A missing file is not an error.
func NewFileProvider(path string, logger log.Logger) (*FileProvider, error) {
	if path == "" {
		return nil, errors.New("session: token file path is empty")
	}
	p := &FileProvider{
		path:     path,
		debounce: DefaultDebounceDelay,
		logger:   log.OrNoop(logger),
	}
	snap, err := p.read()
	if err != nil {
		return nil, err
	}
	p.snap = snap
	return p, nil
}

// Current returns the last loaded snapshot.
func (p *FileProvider) Current() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// OnChange registers fn to be called when the authenticated state or the
// credential changes. Only one callback is kept.
func (p *FileProvider) OnChange(fn ChangeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = fn
}

// Reload re-reads the token file and notifies on change.
func (p *FileProvider) Reload() error {
	snap, err := p.read()
	if err != nil {
		return err
	}

	p.mu.Lock()
	changed := snap != p.snap
	p.snap = snap
	fn := p.onChange
	p.mu.Unlock()

	if changed {
		p.logger.Info("session changed",
			log.String("path", p.path),
			log.Bool("authenticated", snap.Authenticated))
		if fn != nil {
			fn(snap)
		}
	}
	return nil
}

// Watch reloads the token whenever its file changes. It watches the parent
// directory so the file may be created, replaced or removed. Watch blocks
// until ctx is done.
func (p *FileProvider) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("session: create watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(p.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("session: watch %s: %w", dir, err)
	}

	name := filepath.Base(p.path)
	for {
		select {
		case <-ctx.Done():
			p.stopTimer()
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			p.scheduleReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("token file watcher error", log.Err(err))
		}
	}
}

func (p *FileProvider) scheduleReload() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
	}
	p.timer = time.AfterFunc(p.debounce, func() {
		if err := p.Reload(); err != nil {
			p.logger.Warn("token file reload failed", log.Err(err))
		}
	})
}

func (p *FileProvider) stopTimer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timer != nil {
		p.timer.Stop()
	}
}

func (p *FileProvider) read() (Snapshot, error) {
	b, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("session: read token file: %w", err)
	}

	token := strings.TrimSpace(string(b))
	return Snapshot{Authenticated: token != "", Credential: token}, nil
}
