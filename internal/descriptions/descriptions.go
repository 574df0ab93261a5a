// Package descriptions reads and writes the sidecar file of per-path
// descriptions.
//
// The file is a flat YAML mapping from description key to text, written with
// sorted keys. Entries whose paths disappeared are kept below an archive
// header as comment lines; the archive is carried forward verbatim on every
// rewrite and is never read back into the mapping.
package descriptions

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/caffetsong/md-tree-updater/internal/filelock"
	"github.com/caffetsong/md-tree-updater/internal/types"
)

// ArchiveHeader separates the mapping from archived entries.
const ArchiveHeader = "# --- Archived Entries ---"

const fileHeader = `# Project structure descriptions
# Add a description for any file or directory here, as "path/": "description".

`

// ErrUnparsable is returned alongside an empty mapping when the file exists
// but is not a valid mapping.
var ErrUnparsable = errors.New("description file is not a valid mapping")

// Mapping maps description keys to their text. Empty text is a known path
// without a description yet.
type Mapping map[string]string

// Keys returns the mapping keys in byte order, the order they are written in.
func (m Mapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Document is the parsed description file.
type Document struct {
	Mapping Mapping
	Archive []string // archived comment lines, oldest first
}

// Parse parses description file content. When the YAML part cannot be read
// as a mapping, the returned document has an empty mapping and the error wraps
// ErrUnparsable; the archive lines are still returned.
func Parse(content []byte) (Document, error) {
	doc := Document{
		Mapping: Mapping{},
		Archive: parseArchive(content),
	}

	var raw map[string]any
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return doc, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	for key, value := range raw {
		switch v := value.(type) {
		case nil:
			doc.Mapping[key] = ""
		case string:
			doc.Mapping[key] = v
		default:
			doc.Mapping[key] = fmt.Sprint(v)
		}
	}

	return doc, nil
}

func parseArchive(content []byte) []string {
	var archive []string
	inArchive := false
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == ArchiveHeader {
			inArchive = true
			continue
		}
		if inArchive && strings.HasPrefix(line, "#") {
			archive = append(archive, line)
		}
	}
	return archive
}

// Stringify renders the document back to file content.
func Stringify(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(fileHeader)

	mapping := doc.Mapping
	if mapping == nil {
		mapping = Mapping{}
	}

	// yaml.v3 emits map keys in sorted order.
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]string(mapping)); err != nil {
		return nil, fmt.Errorf("failed to encode descriptions: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode descriptions: %w", err)
	}

	if len(doc.Archive) > 0 {
		buf.WriteString("\n" + ArchiveHeader + "\n")
		for _, line := range doc.Archive {
			buf.WriteString(line + "\n")
		}
	}

	return buf.Bytes(), nil
}

// ArchiveLine formats a removed entry as an archive comment.
func ArchiveLine(entry types.ArchivedEntry) string {
	return fmt.Sprintf("# %s: %s # (File deleted)",
		strconv.Quote(entry.Path), strconv.Quote(entry.Description))
}

// Apply returns a copy of the document with the reconciled mapping and the
// removed entries appended to the archive.
func (d Document) Apply(r Reconciliation) Document {
	archive := make([]string, 0, len(d.Archive)+len(r.Removed))
	archive = append(archive, d.Archive...)
	for _, entry := range r.Removed {
		archive = append(archive, ArchiveLine(entry))
	}
	return Document{
		Mapping: r.Mapping,
		Archive: archive,
	}
}

// Store loads and saves the description file at a fixed path.
type Store struct {
	path string
}

// NewStore creates a Store for path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the description file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the description file. A missing file is an empty document and
// no error. An unparsable file is an empty mapping and an error wrapping
// ErrUnparsable. Other read failures are returned as is.
func (s *Store) Load() (Document, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{Mapping: Mapping{}}, nil
		}
		return Document{Mapping: Mapping{}}, fmt.Errorf("failed to read description file: %s - %w", s.path, err)
	}
	return Parse(content)
}

// Save writes the document atomically.
func (s *Store) Save(doc Document) error {
	content, err := Stringify(doc)
	if err != nil {
		return err
	}
	if err := filelock.LockAndWrite(s.path, content); err != nil {
		return fmt.Errorf("failed to write description file: %s - %w", s.path, err)
	}
	return nil
}
