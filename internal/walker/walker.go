// Package walker finds the markdown pages of a docs directory.
package walker

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// DefaultMaxFileSize caps the size of a single page (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// sniffLen is how much of a page is checked for NUL bytes.
const sniffLen = 512

// DefaultInclude selects markdown pages.
var DefaultInclude = []string{"**/*.md", "**/*.markdown"}

// FileInfo describes one page source.
type FileInfo struct {
	Path        string // absolute path on disk
	RelPath     string // slash-separated, relative to the docs root
	Size        int64
	ContentHash string // hex SHA-256 of the page bytes
}

// WalkerConfig selects which pages Walk returns.
type WalkerConfig struct {
	RootDir     string
	Include     []string // empty means DefaultInclude
	Exclude     []string
	MaxFileSize int64 // 0 means DefaultMaxFileSize
}

// Walk returns the pages under config.RootDir in lexical order. Directories
// in DefaultExcludes and paths matched by the root .gitignore are skipped,
// as are oversized and binary files. Unreadable entries are ignored.
func Walk(config WalkerConfig) ([]FileInfo, error) {
	root, err := filepath.Abs(config.RootDir)
	if err != nil {
		return nil, fmt.Errorf("walker: resolve root: %w", err)
	}
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("walker: %w", err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("walker: %s is not a directory", root)
	}

	fsys := os.DirFS(root)
	s := &scan{
		fsys:  fsys,
		root:  root,
		rules: newRules(config.Include, config.Exclude, readIgnoreFile(fsys)),
		limit: config.MaxFileSize,
	}
	if s.limit <= 0 {
		s.limit = DefaultMaxFileSize
	}

	if err := fs.WalkDir(fsys, ".", s.visit); err != nil {
		return nil, fmt.Errorf("walker: traversal: %w", err)
	}
	return s.found, nil
}

type scan struct {
	fsys  fs.FS
	root  string
	rules *rules
	limit int64
	found []FileInfo
}

func (s *scan) visit(rel string, d fs.DirEntry, err error) error {
	if err != nil {
		return nil
	}
	if d.IsDir() {
		if rel != "." && s.rules.skipDir(d.Name()) {
			return fs.SkipDir
		}
		return nil
	}
	if !d.Type().IsRegular() || !s.rules.keep(rel) {
		return nil
	}

	info, err := d.Info()
	if err != nil || info.Size() > s.limit {
		return nil
	}
	data, err := fs.ReadFile(s.fsys, rel)
	if err != nil || looksBinary(data) {
		return nil
	}

	sum := sha256.Sum256(data)
	s.found = append(s.found, FileInfo{
		Path:        filepath.Join(s.root, filepath.FromSlash(rel)),
		RelPath:     path.Clean(rel),
		Size:        info.Size(),
		ContentHash: hex.EncodeToString(sum[:]),
	})
	return nil
}

func looksBinary(data []byte) bool {
	if len(data) > sniffLen {
		data = data[:sniffLen]
	}
	return bytes.IndexByte(data, 0) >= 0
}
