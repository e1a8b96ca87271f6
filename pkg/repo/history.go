package repo

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	HistoryRepoJSONPrefix = "sitemaps-content-"
	HistoryRepoJSONSuffix = ".json"
	CurrentKey            = HistoryRepoJSONPrefix + "current" + HistoryRepoJSONSuffix

	// backupLayout sorts lexically in chronological order
	backupLayout = "2006-01-02T15-04-05.000000000Z"
)

type (
	// History keeps the last loaded exports so the repo can start without its source
	History struct {
		l        *zap.Logger
		storage  Storage
		dir      string
		limit    int
		compress bool
		lock     sync.RWMutex
	}
	HistoryOption func(*History)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// HistoryWithHistoryLimit number of backups kept next to the current export
func HistoryWithHistoryLimit(v int) HistoryOption {
	return func(o *History) {
		o.limit = v
	}
}

// HistoryWithHistoryDir directory of the default filesystem storage
func HistoryWithHistoryDir(v string) HistoryOption {
	return func(o *History) {
		o.dir = v
	}
}

func HistoryWithStorage(v Storage) HistoryOption {
	return func(o *History) {
		o.storage = v
	}
}

// HistoryWithCompression stores snapshots zstd compressed, on by default
func HistoryWithCompression(v bool) HistoryOption {
	return func(o *History) {
		o.compress = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewHistory(l *zap.Logger, opts ...HistoryOption) (*History, error) {
	inst := &History{
		l:        l.Named("history"),
		dir:      "/var/lib/sitemaps",
		limit:    2,
		compress: true,
	}
	for _, opt := range opts {
		opt(inst)
	}

	if inst.storage == nil {
		storage, err := NewFilesystemStorage(inst.dir)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create default filesystem storage")
		}
		inst.storage = storage
	}
	return inst, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Add stores the export as a new backup and as the current one, outdated
// backups are removed afterwards
func (h *History) Add(ctx context.Context, export []byte) error {
	if len(export) == 0 {
		return errors.New("refusing to store an empty export")
	}

	data := export
	if h.compress {
		var err error
		if data, err = compressSnapshot(export); err != nil {
			return err
		}
	}

	h.lock.Lock()
	defer h.lock.Unlock()

	backup := HistoryRepoJSONPrefix + time.Now().UTC().Format(backupLayout) + HistoryRepoJSONSuffix
	h.l.Debug("storing export",
		zap.String("backup", backup),
		zap.Int("size", len(export)),
		zap.Int("stored", len(data)),
	)
	if err := h.storage.Write(ctx, backup, data); err != nil {
		return errors.Wrapf(err, "failed to write backup %s", backup)
	}
	if err := h.storage.Write(ctx, CurrentKey, data); err != nil {
		return errors.Wrap(err, "failed to write current export")
	}
	return errors.Wrap(h.prune(ctx), "failed to clean up history")
}

// GetCurrent writes the current export into buf, os.ErrNotExist if there is none
func (h *History) GetCurrent(ctx context.Context, buf *bytes.Buffer) error {
	h.lock.RLock()
	data, err := h.storage.Read(ctx, CurrentKey)
	h.lock.RUnlock()
	if err != nil {
		return err
	}
	if data, err = decompressSnapshot(data); err != nil {
		return err
	}
	_, err = buf.Write(data)
	return err
}

func (h *History) Close() error {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.storage.Close()
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// backups keys of all backups, newest first
func (h *History) backups(ctx context.Context) ([]string, error) {
	keys, err := h.storage.List(ctx, HistoryRepoJSONPrefix)
	if err != nil {
		return nil, err
	}
	ret := keys[:0]
	for _, key := range keys {
		if key != CurrentKey && strings.HasSuffix(key, HistoryRepoJSONSuffix) {
			ret = append(ret, key)
		}
	}
	return ret, nil
}

func (h *History) prune(ctx context.Context) error {
	keys, err := h.backups(ctx)
	if err != nil {
		return errors.Wrap(err, "could not list backups")
	}
	var errs error
	for _, key := range outdated(keys, h.limit) {
		h.l.Debug("removing outdated backup", zap.String("key", key))
		errs = multierr.Append(errs, errors.Wrapf(h.storage.Delete(ctx, key), "could not remove %s", key))
	}
	return errs
}

// outdated backups beyond limit, keys are sorted newest first
func outdated(keys []string, limit int) []string {
	if limit < 0 || len(keys) <= limit {
		return nil
	}
	return keys[limit:]
}
