// Package storage keeps uploaded files on the local disk under a single root.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the storage root.
var ErrOutsideRoot = errors.New("path escapes storage root")

// Disk reads and writes files relative to Root. Every relative path uses
// forward slashes, matching the values stored in the images table.
type Disk struct {
	root string
}

// NewDisk returns a Disk rooted at dir.
func NewDisk(dir string) *Disk {
	return &Disk{root: filepath.Clean(dir)}
}

// Root returns the absolute or relative root directory.
func (d *Disk) Root() string {
	return d.root
}

// Clean normalizes a relative path and rejects anything that would leave the root.
func Clean(rel string) (string, error) {
	rel = strings.TrimSpace(strings.ReplaceAll(rel, "\\", "/"))
	if rel == "" || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}
	cleaned := path.Clean(rel)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, rel)
	}
	return cleaned, nil
}

// Within reports whether rel lies strictly inside the prefix directory.
func Within(rel, prefix string) bool {
	cleaned, err := Clean(rel)
	if err != nil {
		return false
	}
	return strings.HasPrefix(cleaned, strings.TrimSuffix(prefix, "/")+"/")
}

func (d *Disk) abs(rel string) (string, error) {
	cleaned, err := Clean(rel)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(cleaned)), nil
}

// Exists reports whether a file or directory is present at rel.
func (d *Disk) Exists(rel string) bool {
	p, err := d.abs(rel)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}

// MakeDir creates rel and its parents.
func (d *Disk) MakeDir(rel string) error {
	p, err := d.abs(rel)
	if err != nil {
		return err
	}
	return os.MkdirAll(p, 0o750)
}

// Put writes data to rel, creating the parent directory when needed.
func (d *Disk) Put(rel string, data []byte) error {
	p, err := d.abs(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return err
	}
	return os.WriteFile(p, data, 0o640)
}

// Delete removes one file. A missing file returns fs.ErrNotExist.
func (d *Disk) Delete(rel string) error {
	p, err := d.abs(rel)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

// DeleteDir removes rel with its contents. A missing directory returns fs.ErrNotExist.
func (d *Disk) DeleteDir(rel string) error {
	p, err := d.abs(rel)
	if err != nil {
		return err
	}
	info, err := os.Stat(p)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return &fs.PathError{Op: "deletedir", Path: p, Err: errors.New("not a directory")}
	}
	return os.RemoveAll(p)
}
