package store

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// FileStore writes scraper output below a single root directory, creating
// parent directories as needed.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{
		root: root,
	}
}

func (fs *FileStore) Root() string {
	return fs.root
}

// WriteText writes content to the named file below the root and returns the
// full path to it.
func (fs *FileStore) WriteText(name, content string) (string, error) {
	return fs.WriteBinary(name, []byte(content))
}

// WriteBinary writes content to the named file below the root, creating any
// missing parent directories, and returns the full path to it.
func (fs *FileStore) WriteBinary(name string, content []byte) (string, error) {
	path := filepath.Join(fs.root, name)

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return "", errors.Wrapf(err, "failed to create directory for %s", path)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", errors.Wrapf(err, "failed to write %s", path)
	}

	return path, nil
}

func (fs *FileStore) Contains(name string) (bool, error) {
	_, err := os.Stat(filepath.Join(fs.root, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// List returns the names of all regular files directly below the root.
func (fs *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(fs.root)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}
	return files, nil
}

// Clear removes everything inside the root directory, keeping the directory
// itself. A missing root is not an error.
func (fs *FileStore) Clear() error {
	entries, err := os.ReadDir(fs.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to read directory %s", fs.root)
	}

	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(fs.root, entry.Name())); err != nil {
			return errors.Wrapf(err, "failed to remove %s", entry.Name())
		}
	}

	return nil
}
