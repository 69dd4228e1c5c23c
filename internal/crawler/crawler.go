package crawler

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

// Crawler scans a directory for contract source files.
type Crawler struct {
	extensions []string
	ignored    []string
}

// NewCrawler creates a crawler matching the given file extensions, e.g. ".csol".
func NewCrawler(extensions []string) *Crawler {
	return &Crawler{
		extensions: extensions,
		ignored:    []string{".git", "vendor", "node_modules", "testdata"},
	}
}

// ScanProject walks root and calls onFile for every matching file in lexical
// order. A single file root is reported as is. An error from onFile stops
// the walk.
func (c *Crawler) ScanProject(root string, onFile func(path string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip ignored directories, except an explicitly requested root
		if d.IsDir() {
			if path != root && slices.Contains(c.ignored, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if !c.matches(d.Name()) {
			return nil
		}
		return onFile(path)
	})
}

// Files collects the matching files under root.
func (c *Crawler) Files(root string) ([]string, error) {
	var files []string
	err := c.ScanProject(root, func(path string) error {
		files = append(files, path)
		return nil
	})
	return files, err
}

func (c *Crawler) matches(name string) bool {
	for _, ext := range c.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
