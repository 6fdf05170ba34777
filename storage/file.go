package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ErrInvalidNamespace is returned when a namespace cannot be used as a file name.
var ErrInvalidNamespace = errors.New("storage: invalid namespace")

// File keeps one JSON object per namespace in dir. Writes go to a temp file and are
// renamed into place.
type File struct {
	dir string
	mu  sync.Mutex
}

func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(namespace string) (string, error) {
	if !namespacePattern.MatchString(namespace) {
		return "", ErrInvalidNamespace
	}
	return filepath.Join(f.dir, namespace+".json"), nil
}

func (f *File) load(path string) (map[string][]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string][]byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	doc := map[string][]byte{}
	if err := json.Unmarshal(data, &doc); err != nil {
		// A corrupt document behaves like an empty one; the next write replaces it.
		return map[string][]byte{}, nil
	}
	return doc, nil
}

func (f *File) store(path string, doc map[string][]byte) error {
	if len(doc) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (f *File) Get(_ context.Context, namespace, key string) ([]byte, error) {
	path, err := f.path(namespace)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load(path)
	if err != nil {
		return nil, err
	}
	v, ok := doc[key]
	if !ok {
		return nil, ErrNotFound
	}
	return v, nil
}

func (f *File) Set(_ context.Context, namespace, key string, value []byte) error {
	path, err := f.path(namespace)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load(path)
	if err != nil {
		return err
	}
	doc[key] = value
	return f.store(path, doc)
}

func (f *File) Remove(_ context.Context, namespace, key string) error {
	path, err := f.path(namespace)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load(path)
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		return nil
	}
	delete(doc, key)
	return f.store(path, doc)
}
