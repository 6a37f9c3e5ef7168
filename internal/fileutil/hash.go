package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/morozRed/xmlref/internal/ignore"
)

func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

// ScanFileHashes hashes every file below rootPath that matches one of the
// include patterns and is not ignored. Keys are slash-separated paths
// relative to rootPath.
func ScanFileHashes(rootPath string, include []string, ignoreRules []string) (map[string]string, error) {
	hashes := make(map[string]string)
	ignoreMatcher := ignore.NewMatcher(ignoreRules)

	err := filepath.Walk(rootPath, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)
		if relPath == "." {
			return nil
		}

		if ignoreMatcher.ShouldIgnore(relPath, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() || !matchesAny(include, relPath) {
			return nil
		}

		hash, err := HashFile(path)
		if err != nil {
			return err
		}
		hashes[relPath] = hash

		return nil
	})

	return hashes, err
}

func matchesAny(patterns []string, relPath string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}
