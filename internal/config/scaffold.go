package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caffetsong/md-tree-updater/internal/document"
	"github.com/caffetsong/md-tree-updater/internal/filelock"
)

const configTemplate = `# md-tree-updater configuration
# Every key can be overridden with an MDTREE_ environment variable,
# e.g. MDTREE_TARGET_FILE=docs/INDEX.md

root: .                                   # directory to document
target_file: README.md                    # document that receives the tree
descriptions_file: tree-descriptions.yml  # descriptions for files and folders
ignore_file: .treeignore                  # ignore rules
# gitignore: true                         # also apply .gitignore from the root
# git_root: true                          # document the enclosing git worktree
`

// DefaultIgnoreRules is the content of a freshly scaffolded ignore file.
const DefaultIgnoreRules = `# Ignore rules file for md-tree-updater

# Rules ending with a "/" are for shallow ignoring.

# --- Shallow Ignore (Folders Only) ---
# appear in the tree, but their contents will not be expanded.
node_modules/
dist/
build/
.vscode/

# --- Complete Ignore (Files & Folders) ---
# will be completely hidden from the tree.
.git
.idea
.DS_Store
`

const descriptionsTemplate = `# Add descriptions for the files and folders of your project here.
# Format: 'path/': 'your description'
#
# Example:
# './': 'My project root directory'
`

const documentTitle = "# My Project Documentation\n"

// ScaffoldResult lists what Scaffold did.
type ScaffoldResult struct {
	Created []string // files that did not exist before
	Marked  []string // existing documents that received a marker block
}

// Scaffold creates the default config file, ignore file and description
// file in dir, skipping any that already exist. The target document is
// created with a marker block, or has one appended when it lacks markers.
// configName is the config file name, DefaultFile when empty.
func Scaffold(dir, configName string) (*ScaffoldResult, error) {
	if configName == "" {
		configName = DefaultFile
	}
	d := Default()
	result := &ScaffoldResult{}

	files := []struct {
		name    string
		content string
	}{
		{configName, configTemplate},
		{d.IgnoreFile, DefaultIgnoreRules},
		{d.DescriptionsFile, descriptionsTemplate},
	}
	for _, f := range files {
		path := resolveIn(dir, f.name)
		created, err := createExclusive(path, []byte(f.content))
		if err != nil {
			return result, err
		}
		if created {
			result.Created = append(result.Created, path)
		}
	}

	target := resolveIn(dir, d.TargetFile)
	markers := d.Markers()

	content, err := os.ReadFile(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		doc := document.AppendMarkers(documentTitle, markers)
		if _, err := createExclusive(target, []byte(doc)); err != nil {
			return result, err
		}
		result.Created = append(result.Created, target)
	case err != nil:
		return result, fmt.Errorf("failed to read %s: %w", target, err)
	case errors.Is(markers.Check(string(content)), document.ErrUnclosedMarker):
		return result, fmt.Errorf("%s: %w", target, document.ErrUnclosedMarker)
	case !markers.Has(string(content)):
		doc := document.AppendMarkers(string(content), markers)
		if err := filelock.LockAndWrite(target, []byte(doc)); err != nil {
			return result, fmt.Errorf("failed to append markers to %s: %w", target, err)
		}
		result.Marked = append(result.Marked, target)
	}

	return result, nil
}

func resolveIn(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// createExclusive writes content to a new file. It reports false without
// error when the file already exists.
func createExclusive(path string, content []byte) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		return false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("failed to close %s: %w", path, err)
	}
	return true, nil
}
