// Package corpus loads documents from disk.
package corpus

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultExtensions are the file extensions read from a corpus directory.
var DefaultExtensions = []string{".txt", ".md"}

// Load reads the corpus at path. A regular file yields one document per non-blank
// line. A directory yields one document per file with a matching extension, walked
// recursively and ordered by path; .pdf, .docx and .xlsx files are converted to
// text. Nil extensions means DefaultExtensions.
func Load(path string, extensions []string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat corpus: %w", err)
	}
	if !info.IsDir() {
		return loadLines(path)
	}
	return loadDir(path, extensions)
}

func loadLines(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", path, err)
	}
	var docs []string
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), len(content)+1)
	for scanner.Scan() {
		line := strings.TrimRight(validUTF8(scanner.Bytes()), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		docs = append(docs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan corpus %s: %w", path, err)
	}
	return docs, nil
}

func loadDir(root string, extensions []string) ([]string, error) {
	if extensions == nil {
		extensions = DefaultExtensions
	}
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if MatchesExtension(path, extensions) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk corpus %s: %w", root, err)
	}
	sort.Strings(paths)

	docs := make([]string, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		text, err := ExtractText(p, content)
		if err != nil {
			return nil, fmt.Errorf("failed to extract %s: %w", p, err)
		}
		docs = append(docs, text)
	}
	return docs, nil
}

// MatchesExtension reports whether path ends in one of extensions, ignoring case.
func MatchesExtension(path string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

// validUTF8 replaces invalid UTF-8 sequences with the replacement character.
func validUTF8(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "\ufffd")
	}
	return string(content)
}
