// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path"
)

// FindFilesNamed recursively searches root for files with the given base
// name. Paths are returned in lexical order.
func FindFilesNamed(fsys fs.FS, root, name string) ([]string, error) {
	if name == "" {
		panic("name must not be empty")
	}

	var files []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == name {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ListFiles returns every file under root as a path relative to root, in
// lexical order. Directories for which skip returns true are not entered.
func ListFiles(fsys fs.FS, root string, skip func(dir string) bool) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && skip != nil && skip(p) {
				return fs.SkipDir
			}
			return nil
		}
		rel := p
		if root != "." {
			rel = p[len(root)+1:]
		}
		files = append(files, path.Clean(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
