// Package render turns a walked node tree into annotated box-drawing text.
//
// Rendering happens in two steps: Lines flattens the tree into an ordered
// list of lines carrying their nesting metadata, and Format draws them.
package render

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/caffetsong/md-tree-updater/internal/filesystem"
	"github.com/caffetsong/md-tree-updater/internal/pathfilter"
	"github.com/caffetsong/md-tree-updater/internal/types"
)

const (
	branch     = "├─ "
	lastBranch = "└─ "
	pipe       = "│  "
	blank      = "   "
)

// Line is one rendered entry below the root.
type Line struct {
	Name        string // display name; directories end in "/"
	Key         string
	Description string
	IsDir       bool
	Last        bool   // last among its siblings
	Ancestors   []bool // Last flag of each enclosing entry, outermost first
}

// Depth is the nesting level below the root, starting at 0.
func (l Line) Depth() int {
	return len(l.Ancestors)
}

// Options controls how a tree is flattened.
type Options struct {
	Root         string            // absolute root path, for description keys
	Descriptions map[string]string // keyed by description key
	Rules        *pathfilter.Rules // shallow rules stop expansion
}

// Lines flattens the children of root in pre-order. Siblings are ordered
// directories first, then by name. Shallow-ignored directories are listed
// without their contents.
func Lines(root *types.Node, opts Options) []Line {
	if root == nil {
		return nil
	}
	rules := opts.Rules
	if rules == nil {
		rules = pathfilter.New()
	}

	// Collators are not safe for concurrent use; one per call.
	col := collate.New(language.Und)

	var lines []Line
	var walk func(n *types.Node, ancestors []bool)
	walk = func(n *types.Node, ancestors []bool) {
		children := sortedChildren(n.Children, col)
		for i, child := range children {
			key := filesystem.Key(opts.Root, child.Path, child.IsDir())
			name := child.Name
			if child.IsDir() {
				name += "/"
			}
			line := Line{
				Name:        name,
				Key:         key,
				Description: opts.Descriptions[key],
				IsDir:       child.IsDir(),
				Last:        i == len(children)-1,
				Ancestors:   ancestors,
			}
			lines = append(lines, line)

			if child.IsDir() && !rules.Shallow(strings.TrimSuffix(key, "/")) {
				next := make([]bool, len(ancestors), len(ancestors)+1)
				copy(next, ancestors)
				walk(child, append(next, line.Last))
			}
		}
	}
	walk(root, nil)
	return lines
}

func sortedChildren(children []*types.Node, col *collate.Collator) []*types.Node {
	sorted := make([]*types.Node, len(children))
	copy(sorted, children)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.IsDir() != b.IsDir() {
			return a.IsDir()
		}
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c < 0
		}
		return a.Name < b.Name
	})
	return sorted
}

// Format draws lines as a newline-joined tree with no trailing newline.
func Format(lines []Line) string {
	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for d := range line.Depth() {
			if line.Ancestors[d] {
				sb.WriteString(blank)
			} else {
				sb.WriteString(pipe)
			}
		}
		if line.Last {
			sb.WriteString(lastBranch)
		} else {
			sb.WriteString(branch)
		}
		sb.WriteString(line.Name)
		sb.WriteString(annotation(line.Description))
	}
	return sb.String()
}

// Block wraps the tree in a fenced code block headed by the root line.
func Block(rootName, rootDescription string, lines []Line) string {
	var sb strings.Builder
	sb.WriteString("```\n")
	sb.WriteString(rootName + "/")
	sb.WriteString(annotation(rootDescription))
	if len(lines) > 0 {
		sb.WriteByte('\n')
		sb.WriteString(Format(lines))
	}
	sb.WriteString("\n```")
	return sb.String()
}

// Tree renders a complete block for root.
func Tree(root *types.Node, opts Options) string {
	return Block(root.Name, opts.Descriptions[filesystem.RootKey], Lines(root, opts))
}

func annotation(description string) string {
	description = strings.TrimSpace(description)
	if description == "" {
		return ""
	}
	description = strings.ReplaceAll(description, "\r\n", " ")
	description = strings.ReplaceAll(description, "\n", " ")
	return " # (" + description + ")"
}
