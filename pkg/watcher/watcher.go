package watcher

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches files for changes and triggers callbacks. Changes
// arriving within the debounce interval are reported once.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	log       *slog.Logger
	mu        sync.Mutex
	callbacks map[string]func(string)
	debounce  time.Duration
	timers    map[string]*time.Timer
	done      chan struct{}
}

// NewFileWatcher creates a new file watcher. A nil logger uses slog's default.
func NewFileWatcher(debounce time.Duration, log *slog.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	return &FileWatcher{
		watcher:   watcher,
		log:       log,
		callbacks: make(map[string]func(string)),
		debounce:  debounce,
		timers:    make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}, nil
}

// Watch starts watching the specified files
// callback will be called when any of the files change
func (fw *FileWatcher) Watch(files []string, callback func(string)) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for _, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", file, err)
		}

		if err := fw.watcher.Add(absPath); err != nil {
			return fmt.Errorf("failed to watch %s: %w", absPath, err)
		}

		fw.callbacks[absPath] = callback
	}

	return nil
}

// Replace swaps the watched set for files. A model's file set changes when
// a manifest starts or stops referencing meshes.
func (fw *FileWatcher) Replace(files []string, callback func(string)) error {
	if err := fw.RemoveAll(); err != nil {
		return err
	}
	return fw.Watch(files, callback)
}

// Files returns the watched absolute paths
func (fw *FileWatcher) Files() []string {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	files := make([]string, 0, len(fw.callbacks))
	for file := range fw.callbacks {
		files = append(files, file)
	}
	return files
}

// Start begins watching for file changes
func (fw *FileWatcher) Start() {
	go func() {
		for {
			select {
			case <-fw.done:
				return

			case event, ok := <-fw.watcher.Events:
				if !ok {
					return
				}

				switch {
				case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
					fw.handleFileChange(event.Name, false)
				case event.Has(fsnotify.Rename), event.Has(fsnotify.Remove):
					// Editors that save by replacing the file drop the watch
					fw.handleFileChange(event.Name, true)
				}

			case err, ok := <-fw.watcher.Errors:
				if !ok {
					return
				}
				fw.log.Warn("watcher error", "error", err)
			}
		}
	}()
}

// handleFileChange handles a file change event with debouncing
func (fw *FileWatcher) handleFileChange(filePath string, rewatch bool) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	callback, exists := fw.callbacks[filePath]
	if !exists {
		return
	}

	if timer, exists := fw.timers[filePath]; exists {
		timer.Stop()
	}

	fw.timers[filePath] = time.AfterFunc(fw.debounce, func() {
		if rewatch {
			if err := fw.watcher.Add(filePath); err != nil {
				fw.log.Warn("file disappeared", "file", filePath, "error", err)
				return
			}
		}
		fw.log.Debug("file changed", "file", filePath)
		callback(filePath)
	})
}

// Close stops the watcher and pending callbacks
func (fw *FileWatcher) Close() error {
	fw.mu.Lock()
	for _, timer := range fw.timers {
		timer.Stop()
	}
	fw.timers = make(map[string]*time.Timer)
	select {
	case <-fw.done:
	default:
		close(fw.done)
	}
	fw.mu.Unlock()

	return fw.watcher.Close()
}

// RemoveAll removes all watched files
func (fw *FileWatcher) RemoveAll() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	for file := range fw.callbacks {
		if err := fw.watcher.Remove(file); err != nil {
			fw.log.Debug("file was not watched", "file", file, "error", err)
		}
	}

	for _, timer := range fw.timers {
		timer.Stop()
	}
	fw.callbacks = make(map[string]func(string))
	fw.timers = make(map[string]*time.Timer)
	return nil
}
