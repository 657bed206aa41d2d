package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/On-Jun9/TagProbe/pkg/types"
)

// Scanner collects files to extract from a file or directory tree.
type Scanner struct {
	includeExt map[string]bool
}

// New builds a scanner for the given extensions. An empty list matches
// every regular file.
func New(extensions []string) *Scanner {
	extMap := make(map[string]bool)
	for _, ext := range extensions {
		extMap[strings.TrimPrefix(strings.ToLower(ext), ".")] = true
	}
	return &Scanner{includeExt: extMap}
}

func (s *Scanner) matches(ext string) bool {
	return len(s.includeExt) == 0 || s.includeExt[ext]
}

// Scan returns the matching files under root, sorted by path. A root that
// is itself a file is returned as the only entry, whatever its extension.
// Hidden files and directories are skipped.
func (s *Scanner) Scan(root string) ([]types.FileEntry, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []types.FileEntry{newEntry(root, info)}, nil
	}

	var entries []types.FileEntry

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if !s.matches(extOf(path)) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		entries = append(entries, newEntry(path, info))
		return nil
	})

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, err
}

func extOf(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

func newEntry(path string, info fs.FileInfo) types.FileEntry {
	return types.FileEntry{
		Path: path,
		Name: info.Name(),
		Size: info.Size(),
	}
}
