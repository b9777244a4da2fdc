// Package watch bridges plain file editing into the telemetry engine for
// hosts without a direct editor integration: every save of a watched source
// file becomes a TrackEdit call.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// maxFileSize caps how much of a saved file is read into a snapshot.
const maxFileSize = 1 << 20

// Sink receives edit events from the watcher.
type Sink interface {
	TrackEdit(code string)
}

// Watcher turns file-save events under a directory tree into edit events.
type Watcher struct {
	root string
	exts map[string]bool
	sink Sink
}

// New creates a watcher for the given root directory. extensions filters
// which files count as code (e.g. ".py"); empty means all files.
func New(root string, extensions []string, sink Sink) *Watcher {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Watcher{root: root, exts: exts, sink: sink}
}

// Run watches until the context is cancelled. Directories created while
// running are added to the watch; unreadable files are logged and skipped.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := addTree(fw, w.root); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, ev)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Printf("warning: watch error: %v", err)
		}
	}
}

func (w *Watcher) handle(fw *fsnotify.Watcher, ev fsnotify.Event) {
	if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
		return
	}

	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}

	if info.IsDir() {
		if ev.Op.Has(fsnotify.Create) {
			if err := addTree(fw, ev.Name); err != nil {
				log.Printf("warning: cannot watch %s: %v", ev.Name, err)
			}
		}
		return
	}

	if !w.wanted(ev.Name) || info.Size() > maxFileSize {
		return
	}

	data, err := os.ReadFile(ev.Name)
	if err != nil {
		log.Printf("warning: cannot read %s: %v", ev.Name, err)
		return
	}

	w.sink.TrackEdit(string(data))
}

func (w *Watcher) wanted(path string) bool {
	if len(w.exts) == 0 {
		return true
	}
	return w.exts[strings.ToLower(filepath.Ext(path))]
}

// addTree registers dir and all its subdirectories with the watcher.
func addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if err := fw.Add(path); err != nil {
				return fmt.Errorf("watch %s: %w", path, err)
			}
		}
		return nil
	})
}
