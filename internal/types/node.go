// Package types defines all data structures shared across the tree updater.
package types

// NodeType tells files and directories apart.
type NodeType string

const (
	// File is a regular file, or anything else that is not descended into.
	File NodeType = "file"
	// Directory is a directory.
	Directory NodeType = "directory"
)

type (
	// Node is one entry of the walked filesystem tree.
	Node struct {
		Name     string
		Path     string // absolute
		Type     NodeType
		Children []*Node
	}

	// ArchivedEntry is a description that was removed because its path disappeared.
	ArchivedEntry struct {
		Path        string `json:"path"`
		Description string `json:"description"`
	}
)

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool {
	return n.Type == Directory
}
