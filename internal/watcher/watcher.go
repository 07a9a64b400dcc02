// Package watcher observes the Nix profiles directory for generation
// changes made outside nixhand and records them as audit events.
//
// Nix materializes each generation as a symlink named like
// "profile-42-link" or "system-42-link" next to the profile symlink
// itself. Watching the directory with fsnotify therefore sees every
// switch, install, and rollback regardless of which tool performed it.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cedarline-systems/nixhand/internal/snapshots"
	"github.com/cedarline-systems/nixhand/internal/store"
)

// generationLink matches generation symlink names, capturing the profile
// name and the generation number.
var generationLink = regexp.MustCompile(`^(.+)-(\d+)-link$`)

// debounceWindow coalesces the burst of fsnotify events a single
// generation switch produces into one recorded event.
const debounceWindow = 2 * time.Second

// Watcher records generation changes observed in a profiles directory.
type Watcher struct {
	store       *store.Store
	snaps       *snapshots.Manager
	profilesDir string

	fsw    *fsnotify.Watcher
	stopCh chan struct{}
	wg     sync.WaitGroup

	mu       sync.Mutex
	lastSeen map[string]time.Time // profile name -> last record time
}

// New creates a Watcher over profilesDir. If snaps is non-nil a snapshot
// is captured after each observed external change.
func New(st *store.Store, snaps *snapshots.Manager, profilesDir string) (*Watcher, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	return &Watcher{
		store:       st,
		snaps:       snaps,
		profilesDir: profilesDir,
		stopCh:      make(chan struct{}),
		lastSeen:    make(map[string]time.Time),
	}, nil
}

// Start begins watching the profiles directory.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fs watcher: %w", err)
	}

	if err := fsw.Add(w.profilesDir); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.profilesDir, err)
	}

	w.fsw = fsw

	w.wg.Add(1)
	go w.run()

	return nil
}

// run consumes fsnotify events until the stop signal is received.
func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			w.handleEvent(ev.Name)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "watcher: fs error: %v\n", err)

		case <-w.stopCh:
			return
		}
	}
}

// handleEvent records a generation event for a generation symlink change,
// at most once per profile per debounce window.
func (w *Watcher) handleEvent(path string) {
	m := generationLink.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return
	}
	profile := m[1]
	gen, err := strconv.Atoi(m[2])
	if err != nil {
		return
	}

	w.mu.Lock()
	if last, ok := w.lastSeen[profile]; ok && time.Since(last) < debounceWindow {
		w.mu.Unlock()
		return
	}
	w.lastSeen[profile] = time.Now()
	w.mu.Unlock()

	ev := &store.GenerationEvent{
		GenerationID: &gen,
		Profile:      profile,
		Source:       "external",
		ObservedAt:   time.Now(),
	}
	if err := w.store.InsertGenerationEvent(ev); err != nil {
		fmt.Fprintf(os.Stderr, "watcher: failed to record generation event: %v\n", err)
		return
	}

	if w.snaps != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := w.snaps.Capture(ctx, fmt.Sprintf("external change to %s (generation %d)", profile, gen)); err != nil {
			fmt.Fprintf(os.Stderr, "watcher: snapshot after external change failed: %v\n", err)
		}
	}
}

// Stop halts the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() error {
	close(w.stopCh)

	if w.fsw != nil {
		w.fsw.Close()
	}

	w.wg.Wait()
	return nil
}
