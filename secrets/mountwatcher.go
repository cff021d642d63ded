package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/fsnotify.v1"

	"github.com/podlab/secretsbp.go/log"
)

// MountOp is the kind of change seen on a secret file.
type MountOp int

// MountOp values.
const (
	MountAdded MountOp = iota + 1
	MountChanged
	MountRemoved
)

func (op MountOp) String() string {
	switch op {
	case MountAdded:
		return "added"
	case MountChanged:
		return "changed"
	case MountRemoved:
		return "removed"
	default:
		return fmt.Sprintf("MountOp(%d)", int(op))
	}
}

// MountEvent is a change to a secret file directly under the secrets root.
//
// It carries the name only, call Reader.Read to get the new value.
type MountEvent struct {
	Name string
	Op   MountOp
}

// atomicDataDir is the symlink swapped by Kubernetes style atomic updates,
// secrets are symlinks through it.
const atomicDataDir = "..data"

// MountWatcher watches the secrets root for secret files being added,
// changed or removed.
type MountWatcher struct {
	reader  *Reader
	root    string
	logger  log.Wrapper
	watcher *fsnotify.Watcher

	closeOnce sync.Once
	closeErr  error
}

// NewMountWatcher starts watching the secrets root of the Reader.
//
// Events are only delivered once Run is called.
// The root must exist.
func (r *Reader) NewMountWatcher() (*MountWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("secrets: failed to create mount watcher: %w", err)
	}
	if err := watcher.Add(r.root); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("secrets: failed to watch %q: %w", r.root, err)
	}
	return &MountWatcher{
		reader:  r,
		root:    r.root,
		logger:  r.logger,
		watcher: watcher,
	}, nil
}

// Run delivers MountEvents to onEvent until ctx is done or Close is called.
//
// onEvent is called from the goroutine running Run, one event at a time.
// Watcher errors are logged and do not stop Run.
// Run returns nil when ctx is done or the watcher is closed.
func (w *MountWatcher) Run(ctx context.Context, onEvent func(MountEvent)) error {
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Errorw(MsgMountWatchError, "root", w.root, "err", err)

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			for _, event := range w.translate(ev) {
				w.logger.Warnw(MsgMountChanged, "secret", event.Name, "op", event.Op.String())
				if onEvent != nil {
					onEvent(event)
				}
			}
		}
	}
}

// Close stops the watcher. It's safe to call Close multiple times.
func (w *MountWatcher) Close() error {
	w.closeOnce.Do(func() {
		w.closeErr = w.watcher.Close()
	})
	return w.closeErr
}

func (w *MountWatcher) translate(ev fsnotify.Event) []MountEvent {
	if filepath.Dir(ev.Name) != w.root {
		return nil
	}
	name := filepath.Base(ev.Name)
	if name == atomicDataDir {
		if ev.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
			return nil
		}
		return w.swapped()
	}
	// The other entries of an atomic update (timestamped directories,
	// "..data_tmp") are not secrets.
	if strings.HasPrefix(name, "..") {
		return nil
	}

	event := MountEvent{Name: name}
	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		event.Op = MountRemoved
	case ev.Op&fsnotify.Create != 0:
		info, err := os.Stat(ev.Name)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		event.Op = MountAdded
	case ev.Op&(fsnotify.Write|fsnotify.Chmod) != 0:
		event.Op = MountChanged
	default:
		return nil
	}
	return []MountEvent{event}
}

// swapped reports every listed secret as changed.
//
// An atomic update replaces "..data" while the secret symlinks pointing
// through it stay untouched, so no event names the secrets themselves.
func (w *MountWatcher) swapped() []MountEvent {
	names, err := w.reader.List()
	if err != nil {
		w.logger.Errorw(MsgMountWatchError, "root", w.root, "err", err)
		return nil
	}
	events := make([]MountEvent, 0, len(names))
	for _, name := range names {
		events = append(events, MountEvent{Name: name, Op: MountChanged})
	}
	return events
}
