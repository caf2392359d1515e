// Package file stores the slot in one file on disk.
//
// Set writes a sibling temp file, fsyncs it and renames it over the target,
// so a crash or error never leaves a partially written snapshot behind.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	pr "github.com/unkn0wn-root/feedcache/provider"
)

const defaultPerm fs.FileMode = 0o600

type File struct {
	path string
	perm fs.FileMode
}

var _ pr.Provider = (*File)(nil)

type Config struct {
	Path string
	Perm fs.FileMode // 0 => 0600
	// MkdirAll creates the parent directory on New when true.
	MkdirAll bool
}

func New(cfg Config) (*File, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("file provider: path is required")
	}
	p := filepath.Clean(cfg.Path)
	if cfg.MkdirAll {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("file provider: create dir: %w", err)
		}
	}
	perm := cfg.Perm
	if perm == 0 {
		perm = defaultPerm
	}
	return &File{path: p, perm: perm}, nil
}

// Path reports the file backing the slot.
func (f *File) Path() string { return f.path }

func (f *File) Get(ctx context.Context) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (f *File) Set(ctx context.Context, value []byte) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, base := filepath.Split(f.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(value); err != nil {
		return err
	}
	if err = tmp.Chmod(f.perm); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, f.path)
}

func (f *File) Del(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(f.path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (f *File) Close(context.Context) error { return nil }
