package repo

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// FilesystemStorage keeps snapshots as files of one directory
type FilesystemStorage struct {
	dir  string
	lock sync.RWMutex
}

// NewFilesystemStorage creates dir if needed
func NewFilesystemStorage(dir string) (*FilesystemStorage, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrapf(err, "failed to create history dir %s", dir)
	}
	return &FilesystemStorage{dir: dir}, nil
}

// Write goes through a synced temp file and a rename, readers never see a
// partial snapshot
func (f *FilesystemStorage) Write(_ context.Context, key string, data []byte) (err error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	tmp, err := os.CreateTemp(f.dir, "."+key+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "failed to create temp file for %s", key)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return errors.Wrapf(err, "failed to write %s", key)
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrapf(err, "failed to sync %s", key)
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", key)
	}
	if err = os.Rename(tmp.Name(), f.path(key)); err != nil {
		return errors.Wrapf(err, "failed to rename %s", key)
	}
	return nil
}

func (f *FilesystemStorage) Read(_ context.Context, key string) ([]byte, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()
	return os.ReadFile(f.path(key))
}

// List keys are plain file names, sub directories and temp files are skipped
func (f *FilesystemStorage) List(_ context.Context, prefix string) ([]string, error) {
	f.lock.RLock()
	defer f.lock.RUnlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list history dir")
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if name := entry.Name(); entry.Type().IsRegular() && strings.HasPrefix(name, prefix) && !strings.HasSuffix(name, ".tmp") {
			keys = append(keys, name)
		}
	}
	slices.Sort(keys)
	slices.Reverse(keys)
	return keys, nil
}

func (f *FilesystemStorage) Delete(_ context.Context, key string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (f *FilesystemStorage) Close() error {
	return nil
}

func (f *FilesystemStorage) path(key string) string {
	return filepath.Join(f.dir, filepath.Base(key))
}
