package transfer

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/echotab/echotab-server/internal/errors"
)

// settleDelay gives the writing process time to finish before the file is
// read. Editors and browsers write exports in multiple chunks.
const settleDelay = 200 * time.Millisecond

// Watcher imports snapshot files dropped into a watch folder. Any *.json
// file created or rewritten in the folder is imported in place; the file
// itself is left untouched.
type Watcher struct {
	dir      string
	importer *Importer
	logger   *slog.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher creates a watcher over dir. Start must be called before any
// imports happen.
func NewWatcher(dir string, importer *Importer, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create watch folder")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "create filesystem watcher")
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, errors.Wrap(err, errors.CodeInternal, "watch folder")
	}

	return &Watcher{
		dir:      dir,
		importer: importer,
		logger:   logger,
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
	w.logger.Info("watching import folder", "dir", w.dir)
}

// Close stops the watcher and waits for in-flight imports.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".json") {
				continue
			}
			w.importFile(ev.Name)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch folder error", "error", err)
		}
	}
}

func (w *Watcher) importFile(path string) {
	select {
	case <-w.done:
		return
	case <-time.After(settleDelay):
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("read import file failed", "path", path, "error", err)
		return
	}

	result, err := w.importer.ImportJSON(raw)
	if err != nil {
		w.logger.Warn("import file rejected", "path", path, "error", err)
		return
	}
	w.logger.Info("imported snapshot file",
		"path", path,
		"tabs_created", result.TabsCreated,
		"tabs_merged", result.TabsMerged,
		"tags_created", result.TagsCreated,
	)
}
