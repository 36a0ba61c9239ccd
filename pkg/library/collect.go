package library

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/codebender/eratosthenes/pkg/content"
)

// excludedDirs are skipped at any depth when collecting library files. The
// match is exact and case-sensitive; on-disk trees use both spellings.
var excludedDirs = map[string]bool{
	"examples": true,
	"Examples": true,
}

// sketchExts are the file suffixes collected as examples.
var sketchExts = []string{".pde", ".ino"}

// FileEntry is one collected file. Content is nil for manifest listings.
type FileEntry struct {
	Filename string  `json:"filename"`
	Content  *string `json:"content,omitempty"`
}

// Text returns the entry content, or "" for manifest entries.
func (e FileEntry) Text() string {
	if e.Content == nil {
		return ""
	}
	return *e.Content
}

// Collector enumerates library files and example sketches.
type Collector struct {
	sniffer content.Sniffer
}

// NewCollector creates a Collector. A nil sniffer selects
// content.DetectSniffer.
func NewCollector(sniffer content.Sniffer) *Collector {
	if sniffer == nil {
		sniffer = content.DetectSniffer{}
	}
	return &Collector{sniffer: sniffer}
}

// Files lists the files under dir, skipping any directory named examples or
// Examples and hidden entries. Only names containing a dot are listed. When
// withContent is set, text files carry their UTF-8 normalized content and
// other files carry content.BinaryPlaceholder.
//
// A dir that is not a directory yields an empty, non-nil list.
func (c *Collector) Files(ctx context.Context, dir string, withContent bool) ([]FileEntry, error) {
	entries := []FileEntry{}
	if !isDir(dir) {
		return entries, nil
	}

	err := walkFiles(ctx, dir, func(d fs.DirEntry) bool {
		if d.IsDir() {
			return !excludedDirs[d.Name()]
		}
		return strings.Contains(d.Name(), ".")
	}, func(rel, path string) error {
		entry := FileEntry{Filename: rel}
		if withContent {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			text := content.Render(c.sniffer, data)
			entry.Content = &text
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect files in %s: %w", dir, err)
	}
	return entries, nil
}

// Examples lists the .pde and .ino sketches anywhere under dir, with UTF-8
// normalized content. A missing dir yields nil.
func (c *Collector) Examples(ctx context.Context, dir string) ([]FileEntry, error) {
	if !isDir(dir) {
		return nil, nil
	}

	var entries []FileEntry
	err := walkFiles(ctx, dir, func(d fs.DirEntry) bool {
		return d.IsDir() || isSketch(d.Name())
	}, func(rel, path string) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		text := string(content.NormalizeUTF8(data))
		entries = append(entries, FileEntry{Filename: rel, Content: &text})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect examples in %s: %w", dir, err)
	}
	return entries, nil
}

func isSketch(name string) bool {
	for _, ext := range sketchExts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// walkFiles walks root and calls emit for every regular file (or symlink to
// one) that keep accepts. keep also decides whether a directory is entered.
// Hidden entries are never visited. Paths passed to emit are relative to root
// and use forward slashes. A symlinked root is followed.
func walkFiles(ctx context.Context, root string, keep func(d fs.DirEntry) bool, emit func(rel, path string) error) error {
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !keep(d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isRegular(path, d) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return emit(filepath.ToSlash(rel), path)
	})
}

func isRegular(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
