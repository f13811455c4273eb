package langtable

import (
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/judgecluster/judgecluster/internal/logging"
	"github.com/judgecluster/judgecluster/pkg/models"
)

// Watcher holds a Table that hot-reloads from disk when its backing
// configs/languages.yaml changes, so operators can add a language or
// retag an image without restarting every worker.
type Watcher struct {
	path    string
	current atomic.Pointer[Table]
	fsw     *fsnotify.Watcher
	done    chan struct{}
}

var _ Lookuper = (*Watcher)(nil)

// Watch loads path once and starts watching it for writes. The initial
// load failing is fatal (callers that want Default() as a fallback
// should load with Load()/LoadFile() first and only Watch on success).
func Watch(path string) (*Watcher, error) {
	table, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{path: path, fsw: fsw, done: make(chan struct{})}
	w.current.Store(table)
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	log := logging.WithComponent("langtable")
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			table, err := LoadFile(w.path)
			if err != nil {
				log.Warn().Err(err).Str("path", w.path).Msg("failed to reload language table, keeping previous")
				continue
			}
			w.current.Store(table)
			log.Info().Str("path", w.path).Msg("reloaded language table")
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("language table watcher error")
		case <-w.done:
			return
		}
	}
}

// Lookup proxies to the currently loaded Table.
func (w *Watcher) Lookup(lang models.Language) (Entry, error) {
	return w.current.Load().Lookup(lang)
}

// Languages proxies to the currently loaded Table.
func (w *Watcher) Languages() []models.Language {
	return w.current.Load().Languages()
}

// Close stops watching the file.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
