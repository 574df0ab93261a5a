// Package filesystem walks the documented directory tree.
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/caffetsong/md-tree-updater/internal/pathfilter"
	"github.com/caffetsong/md-tree-updater/internal/types"
)

// RootKey is the description key of the walked root itself.
const RootKey = "./"

// ErrPathTraversal is returned by ResolvePath for paths that leave the root.
var ErrPathTraversal = errors.New("path traversal not allowed")

// Service walks a root directory with a set of ignore rules.
type Service struct {
	rootPath string
	rules    *pathfilter.Rules
}

// New creates a new Service rooted at rootPath.
func New(rootPath string, rules *pathfilter.Rules) *Service {
	absPath, _ := filepath.Abs(rootPath)
	if rules == nil {
		rules = pathfilter.New()
	}
	return &Service{
		rootPath: absPath,
		rules:    rules,
	}
}

// Key converts a walked path into its canonical description key: root
// relative, forward slashes, a trailing slash for directories and "./" for
// the root itself.
func Key(rootPath, path string, isDir bool) string {
	rel, err := filepath.Rel(rootPath, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" {
		return RootKey
	}
	if isDir {
		return rel + "/"
	}
	return rel
}

// Key returns the canonical description key of a node under this root.
func (s *Service) Key(n *types.Node) string {
	return Key(s.rootPath, n.Path, n.IsDir())
}

// Relative returns the root-relative slash path of an absolute path, without
// any trailing slash. The root itself is "".
func (s *Service) Relative(path string) string {
	rel, err := filepath.Rel(s.rootPath, path)
	if err != nil || rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// Walk enumerates the root into a node tree. Deep-ignored entries are left out
// entirely; every remaining directory is descended into, shallow or not.
func (s *Service) Walk() (*types.Node, error) {
	info, err := os.Stat(s.rootPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("root directory not found: %s", s.rootPath)
		}
		return nil, fmt.Errorf("failed to stat root directory: %s - %w", s.rootPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root is not a directory: %s", s.rootPath)
	}

	root := &types.Node{
		Name: filepath.Base(s.rootPath),
		Path: s.rootPath,
		Type: types.Directory,
	}
	if err := s.walkDir(root); err != nil {
		return nil, err
	}
	return root, nil
}

func (s *Service) walkDir(dir *types.Node) error {
	entries, err := os.ReadDir(dir.Path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("permission denied: %s", dir.Path)
		}
		return fmt.Errorf("failed to list directory: %s - %w", dir.Path, err)
	}

	dir.Children = make([]*types.Node, 0, len(entries))
	for _, entry := range entries {
		fullPath := filepath.Join(dir.Path, entry.Name())
		// Symlinks report as non-directories and are listed, never followed.
		isDir := entry.IsDir()

		if s.rules.Excluded(s.Relative(fullPath), isDir) {
			continue
		}

		child := &types.Node{
			Name: entry.Name(),
			Path: fullPath,
			Type: types.File,
		}
		if isDir {
			child.Type = types.Directory
			if err := s.walkDir(child); err != nil {
				return err
			}
		}
		dir.Children = append(dir.Children, child)
	}
	return nil
}

// LivePaths collects the canonical keys of the tree in pre-order. Collection
// stops below shallow-ignored directories, which are themselves listed.
func (s *Service) LivePaths(root *types.Node) []string {
	var paths []string
	var collect func(n *types.Node)
	collect = func(n *types.Node) {
		paths = append(paths, s.Key(n))
		rel := s.Relative(n.Path)
		if rel != "" && s.rules.Shallow(rel) {
			return
		}
		for _, child := range n.Children {
			collect(child)
		}
	}
	if root != nil {
		collect(root)
	}
	return paths
}

// ResolvePath resolves a description key or relative path within the root and
// validates that it does not escape it.
func (s *Service) ResolvePath(relativePath string) (string, error) {
	relativePath = strings.TrimSpace(relativePath)
	if relativePath == RootKey {
		relativePath = ""
	}
	relativePath = strings.TrimPrefix(relativePath, "/")

	absPath, err := filepath.Abs(filepath.Join(s.rootPath, filepath.FromSlash(relativePath)))
	if err != nil {
		return "", err
	}

	relPath, err := filepath.Rel(s.rootPath, absPath)
	if err != nil {
		return "", err
	}
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, relativePath)
	}

	return absPath, nil
}

// Root returns the absolute root path.
func (s *Service) Root() string {
	return s.rootPath
}

// Rules returns the ignore rules the walker applies.
func (s *Service) Rules() *pathfilter.Rules {
	return s.rules
}
