package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceWindow coalesces bursts of writes to the same file
// (editors often write, truncate and rename in quick succession).
var DebounceWindow = 150 * time.Millisecond

// Watch implements ports.Watchable. It emits the id of every document whose
// file is created, written, removed or renamed.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure document directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(s.BasePath); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.BasePath, err)
	}

	out := make(chan string, 16)
	var (
		mu      sync.Mutex
		pending = make(map[string]*time.Timer)
		wg      sync.WaitGroup
	)

	emit := func(id string) {
		defer wg.Done()
		mu.Lock()
		delete(pending, id)
		mu.Unlock()
		select {
		case out <- id:
		case <-ctx.Done():
		}
	}

	go func() {
		defer func() {
			_ = w.Close()
			mu.Lock()
			for _, t := range pending {
				if t.Stop() {
					wg.Done()
				}
			}
			mu.Unlock()
			wg.Wait()
			close(out)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-w.Events:
				if !ok {
					return
				}
				const relevant = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
				if evt.Op&relevant == 0 {
					continue
				}
				id, ok := s.idFromName(filepath.Base(evt.Name))
				if !ok {
					continue
				}
				mu.Lock()
				if t, exists := pending[id]; exists && t.Stop() {
					wg.Done()
				}
				wg.Add(1)
				pending[id] = time.AfterFunc(DebounceWindow, func() { emit(id) })
				mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("document watcher error", "err", err)
			}
		}
	}()

	return out, nil
}
