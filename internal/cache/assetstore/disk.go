package assetstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Disk keeps each store in its own directory below the cache folder
type Disk struct {
	cacheDir string
}

// NewDisk creates a disk storage rooted at cacheDir
func NewDisk(cacheDir string) *Disk {
	return &Disk{cacheDir: cacheDir}
}

// Init ensures the cache directory exists
func (d *Disk) Init() error {
	return os.MkdirAll(d.cacheDir, 0755)
}

func (d *Disk) Open(_ context.Context, name string) (Bucket, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	dir := filepath.Join(d.cacheDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	return &diskBucket{name: name, dir: dir}, nil
}

func (d *Disk) Names(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.cacheDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (d *Disk) Delete(_ context.Context, name string) (bool, error) {
	if err := validateName(name); err != nil {
		return false, err
	}

	dir := filepath.Join(d.cacheDir, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("failed to delete store %s: %w", name, err)
	}
	return true, nil
}

func (d *Disk) Close() error {
	return nil
}

type diskBucket struct {
	name string
	dir  string
}

func (b *diskBucket) Name() string {
	return b.name
}

// path resolves key inside the bucket directory, refusing keys that escape it
func (b *diskBucket) path(key string) (string, error) {
	p := filepath.Join(b.dir, filepath.FromSlash(key))
	if !strings.HasPrefix(p, b.dir+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes store directory", key)
	}
	return p, nil
}

func (b *diskBucket) Get(_ context.Context, key string) ([]byte, bool, error) {
	cachePath, err := b.path(key)
	if err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(cachePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return data, true, nil
}

func (b *diskBucket) Put(_ context.Context, key string, data []byte) error {
	cachePath, err := b.path(key)
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(cachePath), 0755); err != nil {
		return err
	}

	// Write to a temporary file first so readers never see a partial response
	tmp, err := os.CreateTemp(filepath.Dir(cachePath), filepath.Base(cachePath)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), cachePath)
}
