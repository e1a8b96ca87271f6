package repo

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// WatchRoutine updates the repo whenever the export file is written, created or
// renamed. Bursts of events are debounced.
func (r *Repo) WatchRoutine(ctx context.Context) error {
	l := r.l.Named("routine.watch")

	path, err := filepath.Abs(r.filePath())
	if err != nil {
		return errors.Wrap(err, "failed to resolve export path")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	// the directory survives editors replacing the file
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return errors.Wrapf(err, "failed to watch %s", filepath.Dir(path))
	}

	var (
		name    = filepath.Base(path)
		timer   *time.Timer
		trigger = make(chan struct{}, 1)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			l.Debug("routine canceled", zap.Error(ctx.Err()))
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			l.Debug("export file changed", zap.String("op", event.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(r.watchDebounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
		case <-trigger:
			if resp := r.Update(ctx); !resp.Success {
				l.Warn("update after file change failed", zap.String("error", resp.ErrorMessage))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.Error("watcher error", zap.Error(err))
		}
	}
}
