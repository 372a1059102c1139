package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/twbuilder/internal/logfields"
)

// EventSource delivers the paths of changed files.
type EventSource interface {
	Events() <-chan string
	Errors() <-chan error
	Close() error
}

// fsSource watches a directory tree with fsnotify. Directories created later are
// watched as they appear.
type fsSource struct {
	watcher *fsnotify.Watcher
	events  chan string
	done    chan struct{}
	once    sync.Once
	logger  *slog.Logger
}

// NewFSSource watches root recursively.
func NewFSSource(root string, logger *slog.Logger) (EventSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if st, err := os.Stat(root); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("watch root not found or not a directory: %s", root)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	s := &fsSource{watcher: w, events: make(chan string, 64), done: make(chan struct{}), logger: logger}
	if err := s.addDirsRecursive(root); err != nil {
		_ = w.Close()
		return nil, err
	}
	go s.forward()
	return s, nil
}

func (s *fsSource) Events() <-chan string { return s.events }

func (s *fsSource) Errors() <-chan error { return s.watcher.Errors }

func (s *fsSource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.watcher.Close()
	})
	return err
}

func (s *fsSource) forward() {
	defer close(s.events)
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if shouldIgnoreEvent(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = s.addDirsRecursive(ev.Name)
				}
			}
			s.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			select {
			case s.events <- ev.Name:
			case <-s.done:
				return
			}
		}
	}
}

func (s *fsSource) addDirsRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if err := s.watcher.Add(path); err != nil {
				s.logger.Warn("watch add failed", slog.String("dir", path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for filesystem events that should not trigger runs.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	// Hidden files, including .DS_Store and editor lock files such as .#name.
	if strings.HasPrefix(base, ".") {
		return true
	}

	// Editor temp/swap files
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}
