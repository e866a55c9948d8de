package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	dacerrors "github.com/jpagh/docassemblecli3/internal/dacli/errors"
	"github.com/jpagh/docassemblecli3/internal/log"
)

// Source watches a directory tree and produces a stream of Events. It
// recurses into subdirectories created after the watch starts, so every
// mutation under the root is eventually observed (at-least-once; native
// duplicates are left to the batcher to absorb).
type Source struct {
	root    string
	watcher *fsnotify.Watcher
	events  chan Event
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// NewSource creates a source for the directory tree rooted at root. It
// fails fast when the OS watch mechanism cannot be established.
func NewSource(root string) (*Source, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, dacerrors.Wrap(err, "failed to resolve watch root")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, dacerrors.Wrap(err, "failed to create filesystem watcher")
	}

	s := &Source{
		root:    absRoot,
		watcher: fsw,
		events:  make(chan Event, 256),
		done:    make(chan struct{}),
	}

	if err := s.watchTree(absRoot); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return s, nil
}

// Events returns the event stream. The channel is closed by Stop.
func (s *Source) Events() <-chan Event {
	return s.events
}

// Start begins delivering events. Must be called once.
func (s *Source) Start() {
	s.wg.Add(1)
	go s.loop()
}

// Stop ends the watch and closes the event channel
func (s *Source) Stop() {
	s.once.Do(func() {
		close(s.done)
		_ = s.watcher.Close()
		s.wg.Wait()
		close(s.events)
	})
}

// watchTree registers the root and every existing subdirectory
func (s *Source) watchTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return dacerrors.Wrapf(err, "cannot watch %s", root)
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if err := s.watcher.Add(path); err != nil {
			if path == root {
				return dacerrors.Wrapf(err, "cannot watch %s", root)
			}
			log.Warn("Cannot watch subdirectory %s: %v", path, err)
		}
		return nil
	})
}

func (s *Source) loop() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return

		case fsEvent, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handle(fsEvent)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			// Transient notification errors (e.g. queue overflow) are
			// survivable; the next event re-synchronizes the pipeline
			log.Warn("Watcher error: %v", err)
		}
	}
}

func (s *Source) handle(fsEvent fsnotify.Event) {
	kind, ok := mapOp(fsEvent.Op)
	if !ok {
		return
	}

	isDir := false
	if kind != Deleted && kind != Moved {
		if info, err := os.Stat(fsEvent.Name); err == nil {
			isDir = info.IsDir()
		} else {
			return // vanished before we could look at it
		}
	}

	// A directory created under the root extends the watch set so later
	// changes inside it are seen
	if kind == Created && isDir {
		if err := s.watchTree(fsEvent.Name); err != nil {
			log.Warn("Cannot watch new directory %s: %v", fsEvent.Name, err)
		}
	}

	s.emit(Event{Path: fsEvent.Name, Kind: kind, IsDir: isDir, Time: time.Now()})
}

func (s *Source) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

// mapOp translates an fsnotify op bitmask into an event kind. Chmod-only
// events still count as modifications: editors commonly finish a save
// with a metadata touch.
func mapOp(op fsnotify.Op) (EventKind, bool) {
	switch {
	case op&fsnotify.Create != 0:
		return Created, true
	case op&fsnotify.Remove != 0:
		return Deleted, true
	case op&fsnotify.Rename != 0:
		return Moved, true
	case op&(fsnotify.Write|fsnotify.Chmod) != 0:
		return Modified, true
	}
	return 0, false
}
