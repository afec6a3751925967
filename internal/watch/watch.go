// Package watch reports changes made to drive files by other processes.
//
// Writes made through a Store in this process are already delivered by
// Store.Subscribe. A second process writing to the same SQLite files is only
// visible through the file system, so Watcher observes each drive's
// database and -wal file and coalesces bursts of events into one
// notification per drive.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/factstore/internal/itemstore"
)

// DefaultDebounce is the quiet period after the last file event before
// a change is reported.
const DefaultDebounce = 100 * time.Millisecond

// ErrNoDrives is returned by New when there is nothing to watch.
var ErrNoDrives = errors.New("watch: no drive paths")

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher watches the files behind one or more drives.
type Watcher struct {
	files    map[string]itemstore.DriveName // absolute file path -> drive
	dirs     []string
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher for the given drive database paths. In-memory
// drives have no file and must not be passed.
func New(paths map[itemstore.DriveName]string, opts Options) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, ErrNoDrives
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	w := &Watcher{
		files:    make(map[string]itemstore.DriveName, 2*len(paths)),
		debounce: opts.Debounce,
		logger:   opts.Logger,
	}
	seenDir := map[string]bool{}
	for _, drive := range itemstore.Drives {
		p, ok := paths[drive]
		if !ok {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("watch %s: %w", drive, err)
		}
		w.files[abs] = drive
		w.files[abs+"-wal"] = drive

		dir := filepath.Dir(abs)
		if !seenDir[dir] {
			seenDir[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	if len(w.files) == 0 {
		return nil, ErrNoDrives
	}
	return w, nil
}

// Run watches until ctx is cancelled, calling fn once per changed drive
// after each quiet period. fn runs on the Run goroutine. Run returns nil
// when ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, fn func(itemstore.DriveName)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.logger.Debug("watching drives", "dirs", w.dirs)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending = map[itemstore.DriveName]bool{}
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-fw.Events:
			if !ok {
				return nil
			}
			drive, relevant := w.match(evt)
			if !relevant {
				continue
			}
			pending[drive] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			for _, drive := range itemstore.Drives {
				if pending[drive] {
					delete(pending, drive)
					fn(drive)
				}
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) match(evt fsnotify.Event) (itemstore.DriveName, bool) {
	if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Remove) && !evt.Has(fsnotify.Rename) {
		return "", false
	}
	abs, err := filepath.Abs(evt.Name)
	if err != nil {
		return "", false
	}
	drive, ok := w.files[abs]
	return drive, ok
}
