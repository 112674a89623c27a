// Package fsutil holds the file operations shared by both pipelines.
package fsutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const dirMode = 0o750

// CopyFile copies src to dst byte for byte, creating parent directories and
// preserving the source file mode.
func CopyFile(src, dst string) error {
	// #nosec G304 -- src is a configured project path
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), dirMode); err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// OpenFile only applies the mode to new files.
	return os.Chmod(dst, info.Mode().Perm())
}

// WalkFiles returns every regular file below root as slash separated paths
// relative to root, sorted.
func WalkFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// CleanDir removes the contents of dir but keeps dir itself. A missing
// directory is not an error.
func CleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", e.Name(), err)
		}
	}
	return nil
}

// Output writes files below a root directory and remembers what it wrote.
// It is safe for concurrent use.
type Output struct {
	Root string

	mu    sync.Mutex
	files []string
}

// NewOutput returns an Output rooted at root.
func NewOutput(root string) *Output {
	return &Output{Root: root}
}

// Abs resolves an output-relative slash path.
func (o *Output) Abs(rel string) string {
	return filepath.Join(o.Root, filepath.FromSlash(rel))
}

// WriteFile writes data to the output-relative path rel.
func (o *Output) WriteFile(rel string, data []byte) error {
	dst := o.Abs(rel)
	if err := os.MkdirAll(filepath.Dir(dst), dirMode); err != nil {
		return err
	}
	// #nosec G306 -- build output is world readable
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	o.record(dst)
	return nil
}

// CopyFile copies src to the output-relative path rel.
func (o *Output) CopyFile(src, rel string) error {
	dst := o.Abs(rel)
	if err := CopyFile(src, dst); err != nil {
		return err
	}
	o.record(dst)
	return nil
}

// CopyTree copies every file below src into the output-relative directory rel.
func (o *Output) CopyTree(src, rel string) error {
	files, err := WalkFiles(src)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := o.CopyFile(filepath.Join(src, filepath.FromSlash(f)), pathJoin(rel, f)); err != nil {
			return err
		}
	}
	return nil
}

// Files returns the absolute paths written so far, sorted.
func (o *Output) Files() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := append([]string(nil), o.files...)
	sort.Strings(out)
	return out
}

func (o *Output) record(p string) {
	o.mu.Lock()
	o.files = append(o.files, p)
	o.mu.Unlock()
}

func pathJoin(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return dir + "/" + name
}
