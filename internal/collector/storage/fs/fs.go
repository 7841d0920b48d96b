// Package fs implements a storage.Backend over a local directory tree.
package fs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"xrdcc/internal/collector/storage"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Filer is a storage.Filer backed by os/filepath under RootPath.
type Filer struct {
	RootPath string
}

func (f *Filer) abs(relPath string) string {
	return filepath.Join(f.RootPath, filepath.FromSlash(relPath))
}

func (f *Filer) EnsureDir(_ context.Context, dirPath string) error {
	return os.MkdirAll(f.abs(dirPath), dirPerm)
}

func (f *Filer) List(_ context.Context, prefix string, recursive bool) ([]string, error) {
	root := f.abs(prefix)
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("fs: %q is not a directory", prefix)
	}

	var out []string
	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			out = append(out, filepath.ToSlash(filepath.Join(prefix, e.Name())))
		}
		return out, nil
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.RootPath, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	return out, err
}

func (f *Filer) Get(_ context.Context, filePath string) ([]byte, error) {
	return os.ReadFile(f.abs(filePath))
}

func (f *Filer) Put(_ context.Context, filePath string, data []byte, _ string) error {
	abs := f.abs(filePath)
	if err := os.MkdirAll(filepath.Dir(abs), dirPerm); err != nil {
		return err
	}
	return os.WriteFile(abs, data, filePerm)
}

func (f *Filer) Delete(_ context.Context, filePath string) error {
	err := os.Remove(f.abs(filePath))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *Filer) Copy(_ context.Context, srcPath, dstPath string) error {
	data, err := os.ReadFile(f.abs(srcPath))
	if err != nil {
		return err
	}
	dst := f.abs(dstPath)
	if err := os.MkdirAll(filepath.Dir(dst), dirPerm); err != nil {
		return err
	}
	return os.WriteFile(dst, data, filePerm)
}

// NewBackend builds a storage.Backend rooted at rootPath, using cfg for
// retention tunables.
func NewBackend(rootPath string, cfg storage.Config, logger zerolog.Logger) storage.Backend {
	filer := &Filer{RootPath: rootPath}
	core := storage.NewCore(filer, cfg, logger)
	core.Activate()
	return core
}
