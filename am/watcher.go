package am

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/sqb/errors"
	"github.com/teranos/sqb/logger"
)

// DefaultDebouncePeriod collapses the burst of events an editor save produces
const DefaultDebouncePeriod = 500 * time.Millisecond

// ChangeCallback is called with the path of a watched file after it changed
type ChangeCallback func(path string) error

// ReloadCallback receives a freshly loaded config
type ReloadCallback func(*Config) error

// FileWatcher watches a set of files (config, keys list) and fires callbacks
// once per debounced burst of changes.
//
// Parent directories are watched rather than the files themselves so that
// editors which save by rename keep being observed.
type FileWatcher struct {
	watcher        *fsnotify.Watcher
	files          map[string]bool
	callbacks      []ChangeCallback
	pending        map[string]bool
	debounceTimer  *time.Timer
	debouncePeriod time.Duration
	mu             sync.Mutex
	done           chan struct{}
	stopOnce       sync.Once
}

// NewFileWatcher creates a watcher for paths. Every path's directory must exist.
func NewFileWatcher(paths ...string) (*FileWatcher, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	fw := &FileWatcher{
		watcher:        watcher,
		files:          make(map[string]bool, len(paths)),
		pending:        make(map[string]bool),
		debouncePeriod: DefaultDebouncePeriod,
		done:           make(chan struct{}),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return nil, errors.Wrapf(err, "failed to resolve %s", p)
		}
		fw.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return nil, errors.Wrapf(err, "failed to watch directory %s", dir)
		}
	}

	return fw, nil
}

// SetDebounce changes the debounce period; call before Start
func (fw *FileWatcher) SetDebounce(d time.Duration) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.debouncePeriod = d
}

// OnChange registers a callback for changes to any watched file
func (fw *FileWatcher) OnChange(callback ChangeCallback) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.callbacks = append(fw.callbacks, callback)
}

// OnConfigReload registers a callback that receives configPath reloaded with
// LoadFromFile whenever that file changes. Changes to other files are ignored.
func (fw *FileWatcher) OnConfigReload(configPath string, callback ReloadCallback) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		abs = configPath
	}
	fw.OnChange(func(path string) error {
		if path != abs {
			return nil
		}
		cfg, err := LoadFromFile(path)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return errors.Wrap(err, "reloaded config is invalid")
		}
		return callback(cfg)
	})
}

// Start begins watching for changes
func (fw *FileWatcher) Start() {
	go fw.watchLoop()
}

func (fw *FileWatcher) watchLoop() {
	for {
		select {
		case <-fw.done:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !fw.files[name] {
				continue
			}

			logger.Debugw("File watcher detected change",
				"file", name,
				"op", event.Op.String())
			fw.scheduleReload(name)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("File watcher error",
				logger.FieldError, err)
		}
	}
}

// scheduleReload debounces rapid file changes and triggers callbacks
func (fw *FileWatcher) scheduleReload(path string) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	fw.pending[path] = true
	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	fw.debounceTimer = time.AfterFunc(fw.debouncePeriod, fw.fire)
}

func (fw *FileWatcher) fire() {
	fw.mu.Lock()
	changed := make([]string, 0, len(fw.pending))
	for p := range fw.pending {
		changed = append(changed, p)
	}
	fw.pending = make(map[string]bool)
	callbacks := make([]ChangeCallback, len(fw.callbacks))
	copy(callbacks, fw.callbacks)
	fw.mu.Unlock()

	select {
	case <-fw.done:
		return
	default:
	}

	for _, path := range changed {
		logger.Infow("Reloading changed file", "file", path)
		for _, callback := range callbacks {
			if err := callback(path); err != nil {
				// Continue calling other callbacks even if one fails
				logger.Warnw("File reload callback error",
					"file", path,
					logger.FieldError, err)
			}
		}
	}
}

// Stop stops watching. Pending debounced callbacks are dropped.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		close(fw.done)
		fw.mu.Lock()
		if fw.debounceTimer != nil {
			fw.debounceTimer.Stop()
		}
		fw.mu.Unlock()
		err = fw.watcher.Close()
	})
	return err
}
