// Package storage stores asset blobs.
package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Object is a stored blob opened for reading.
type Object interface {
	io.ReadSeekCloser
	Stat() (fs.FileInfo, error)
}

// Storage is a flat blob store addressed by slash-separated names.
type Storage interface {
	Put(name string, r io.Reader) (int64, error)
	Open(name string) (Object, error)
	Delete(name string) error
	Exists(name string) (bool, error)
}

// LocalStorage stores objects on the local filesystem.
type LocalStorage struct {
	root string
}

var _ Storage = (*LocalStorage)(nil)

func NewLocalStorage(root string) *LocalStorage {
	return &LocalStorage{root: root}
}

// Put writes to a temporary file first so readers never observe a partial blob.
func (l *LocalStorage) Put(name string, r io.Reader) (int64, error) {
	name = l.fixPath(name)
	if err := os.MkdirAll(filepath.Dir(name), os.ModePerm); err != nil {
		return 0, fmt.Errorf("failed to create directory for %s: %w", name, err)
	}

	f, err := os.CreateTemp(filepath.Dir(name), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file %s: %w", name, err)
	}
	defer os.Remove(f.Name())

	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("failed to copy data to file %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("failed to close file %s: %w", name, err)
	}
	if err := os.Rename(f.Name(), name); err != nil {
		return n, fmt.Errorf("failed to move file into %s: %w", name, err)
	}
	return n, nil
}

func (l *LocalStorage) Open(name string) (Object, error) {
	name = l.fixPath(name)
	f, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", name, err)
	}
	return f, nil
}

// Delete removes the object. Deleting a missing object is not an error.
func (l *LocalStorage) Delete(name string) error {
	name = l.fixPath(name)
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove file %s: %w", name, err)
	}
	return nil
}

func (l *LocalStorage) Exists(name string) (bool, error) {
	name = l.fixPath(name)
	_, err := os.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check existence of file %s: %w", name, err)
}

// Replace all slashes with the OS-specific separator.
func (l *LocalStorage) fixPath(path string) string {
	path = strings.ReplaceAll(path, "/", string(os.PathSeparator))
	if !filepath.IsAbs(path) {
		return filepath.Join(l.root, path)
	}

	return path
}
