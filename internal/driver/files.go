package driver

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"spring/internal/lang"
)

// Collect expands paths into source files. Directories are walked and
// contribute the files some registered language claims; files named
// explicitly must be claimed too. The result is sorted and free of
// duplicates.
func Collect(paths []string, reg *lang.Registry) ([]string, error) {
	if reg == nil {
		reg = lang.Default()
	}
	seen := make(map[string]struct{})
	var files []string
	add := func(p string) {
		p = filepath.Clean(p)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		files = append(files, p)
	}
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if !reg.Matches(root) {
				return nil, fmt.Errorf("%s: %w", root, lang.ErrUnknownExtension)
			}
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && reg.Matches(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	// deterministic order
	sort.Strings(files)
	return files, nil
}
