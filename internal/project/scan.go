package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"compdb/internal/compdb"
)

// skipDirs are IDE and VCS folders that never hold build items.
var skipDirs = map[string]struct{}{
	".git": {},
	".vs":  {},
	".svn": {},
	".hg":  {},
}

// ScanDir walks root and returns the absolute normalized path of every file
// whose extension is listed. An empty extension list accepts every file.
// Results are in walk order.
func ScanDir(root string, extensions []string) ([]string, error) {
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = struct{}{}
	}

	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		if info.IsDir() {
			if _, skip := skipDirs[info.Name()]; skip && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if len(exts) > 0 {
			if _, ok := exts[strings.ToLower(filepath.Ext(path))]; !ok {
				return nil
			}
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path for %s: %w", path, err)
		}
		files = append(files, compdb.NormalizePath(abs))
		return nil
	})
	if err != nil {
		return files, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return files, nil
}
