package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

// keyLocks linearises writes per key. Different keys proceed in parallel.
type keyLocks struct {
	locks sync.Map
}

func (k *keyLocks) lock(key string) func() {
	value, _ := k.locks.LoadOrStore(key, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// FileStore keeps one file per key under rootDir.
type FileStore struct {
	rootDir string
	locks   keyLocks
}

func NewFileStore(rootDir string) (*FileStore, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, unavailable("os.MkdirAll", rootDir, err)
	}
	return &FileStore{rootDir: rootDir}, nil
}

// filePath escapes the key so book names with spaces or slashes stay a
// single file name.
func (s *FileStore) filePath(key string) string {
	return filepath.Join(s.rootDir, url.PathEscape(key)+".value")
}

func (s *FileStore) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	unlock := s.locks.lock(key)
	defer unlock()

	file, err := os.Open(s.filePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("os.Open", key, err)
	}
	defer func() {
		_ = file.Close()
	}()

	contents, err := io.ReadAll(file)
	if err != nil {
		return "", false, unavailable("io.ReadAll", key, err)
	}
	return string(contents), true, nil
}

func (s *FileStore) Set(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.locks.lock(key)
	defer unlock()

	file, err := os.CreateTemp(s.rootDir, ".tmp-*")
	if err != nil {
		return unavailable("os.CreateTemp", key, err)
	}
	tmpPath := file.Name()
	if _, err := file.WriteString(value); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return unavailable("file.WriteString", key, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return unavailable("file.Close", key, err)
	}
	if err := os.Rename(tmpPath, s.filePath(key)); err != nil {
		_ = os.Remove(tmpPath)
		return unavailable("os.Rename", key, err)
	}
	return nil
}

func (s *FileStore) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.locks.lock(key)
	defer unlock()

	if err := os.Remove(s.filePath(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return unavailable("os.Remove", key, err)
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) String() string {
	return fmt.Sprintf("file:%s", s.rootDir)
}
