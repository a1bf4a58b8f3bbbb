package storage

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// FileEngine stores each key in its own file under Dir. Writes go to a
// temporary file that is renamed over the target.
type FileEngine struct {
	Dir string
	Ext string
}

func NewFileEngine(dir, ext string) (*FileEngine, error) {
	if dir == "" {
		return nil, errors.New("storage: file engine needs a directory")
	}
	if err := os.MkdirAll(dir, FileMode0755); err != nil {
		return nil, errors.Wrapf(err, "os.MkdirAll failed. dir: %s", dir)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &FileEngine{Dir: dir, Ext: ext}, nil
}

func (f *FileEngine) path(key string) string {
	return filepath.Join(f.Dir, key+f.Ext)
}

func (f *FileEngine) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "os.ReadFile failed. key: %s", key)
	}
	return data, nil
}

func (f *FileEngine) Write(key string, data []byte) error {
	tmp, err := os.CreateTemp(f.Dir, "."+key+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "os.CreateTemp failed. key: %s", key)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return errors.Wrapf(err, "write failed. key: %s", key)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return errors.Wrapf(err, "sync failed. key: %s", key)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return errors.Wrapf(err, "close failed. key: %s", key)
	}
	if err := os.Chmod(name, FileMode0644); err != nil {
		_ = os.Remove(name)
		return errors.Wrapf(err, "os.Chmod failed. key: %s", key)
	}
	if err := os.Rename(name, f.path(key)); err != nil {
		_ = os.Remove(name)
		return errors.Wrapf(err, "os.Rename failed. key: %s", key)
	}
	return nil
}

func (f *FileEngine) Delete(key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "os.Remove failed. key: %s", key)
	}
	return nil
}

func (f *FileEngine) Keys() ([]string, error) {
	entries, err := os.ReadDir(f.Dir)
	if err != nil {
		return nil, errors.Wrapf(err, "os.ReadDir failed. dir: %s", f.Dir)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, f.Ext) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, f.Ext))
	}
	sort.Strings(keys)
	return keys, nil
}

// Flush is a no-op: every Write is synced before it returns.
func (f *FileEngine) Flush() error { return nil }

func (f *FileEngine) Close() error { return nil }
