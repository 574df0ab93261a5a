package render

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/caffetsong/md-tree-updater/internal/pathfilter"
	"github.com/caffetsong/md-tree-updater/internal/types"
)

var testRoot = filepath.FromSlash("/proj")

func dir(parent, name string, children ...*types.Node) *types.Node {
	n := &types.Node{Name: name, Path: filepath.Join(parent, name), Type: types.Directory}
	n.Children = children
	return n
}

func file(parent, name string) *types.Node {
	return &types.Node{Name: name, Path: filepath.Join(parent, name), Type: types.File}
}

func rootNode(children ...*types.Node) *types.Node {
	return &types.Node{Name: "proj", Path: testRoot, Type: types.Directory, Children: children}
}

func mustRules(t *testing.T, text string) *pathfilter.Rules {
	t.Helper()
	r, err := pathfilter.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return r
}

func names(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Name
	}
	return out
}

func TestLines_SortOrder(t *testing.T) {
	root := rootNode(
		file(testRoot, "zeta.txt"),
		dir(testRoot, "Alpha"),
		file(testRoot, "beta.txt"),
	)

	got := names(Lines(root, Options{Root: testRoot}))
	want := []string{"Alpha/", "beta.txt", "zeta.txt"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Lines() order = %v, want %v", got, want)
	}
}

func TestLines_DirectoriesBeforeFilesCaseInsensitive(t *testing.T) {
	root := rootNode(
		file(testRoot, "b.txt"),
		file(testRoot, "A.txt"),
		dir(testRoot, "zdir"),
		dir(testRoot, "Bdir"),
		file(testRoot, "c.txt"),
	)

	got := names(Lines(root, Options{Root: testRoot}))
	want := []string{"Bdir/", "zdir/", "A.txt", "b.txt", "c.txt"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Lines() order = %v, want %v", got, want)
	}
}

func TestLines_Metadata(t *testing.T) {
	src := filepath.Join(testRoot, "src")
	root := rootNode(
		dir(testRoot, "src", file(src, "main.go")),
		file(testRoot, "go.mod"),
	)

	lines := Lines(root, Options{
		Root:         testRoot,
		Descriptions: map[string]string{"src/": "Sources", "src/main.go": "Entry"},
	})
	if len(lines) != 3 {
		t.Fatalf("Lines() returned %d lines, want 3", len(lines))
	}

	tests := []struct {
		idx   int
		key   string
		desc  string
		depth int
		last  bool
	}{
		{0, "src/", "Sources", 0, false},
		{1, "src/main.go", "Entry", 1, true},
		{2, "go.mod", "", 0, true},
	}
	for _, tt := range tests {
		l := lines[tt.idx]
		if l.Key != tt.key || l.Description != tt.desc || l.Depth() != tt.depth || l.Last != tt.last {
			t.Errorf("lines[%d] = %+v, want key=%q desc=%q depth=%d last=%v",
				tt.idx, l, tt.key, tt.desc, tt.depth, tt.last)
		}
	}
}

func TestLines_ShallowNotExpanded(t *testing.T) {
	nm := filepath.Join(testRoot, "node_modules")
	root := rootNode(
		dir(testRoot, "node_modules", dir(nm, "pkg", file(filepath.Join(nm, "pkg"), "index.js"))),
		file(testRoot, "package.json"),
	)

	out := Format(Lines(root, Options{Root: testRoot, Rules: mustRules(t, "node_modules/\n")}))

	if !strings.Contains(out, "node_modules/") {
		t.Errorf("output should list node_modules/:\n%s", out)
	}
	if strings.Contains(out, "pkg") {
		t.Errorf("output should not expand node_modules:\n%s", out)
	}
}

func TestFormat_Connectors(t *testing.T) {
	src := filepath.Join(testRoot, "src")
	lib := filepath.Join(src, "lib")
	root := rootNode(
		dir(testRoot, "src",
			dir(src, "lib", file(lib, "util.go")),
			file(src, "main.go"),
		),
		dir(testRoot, "tests", file(filepath.Join(testRoot, "tests"), "a_test.go")),
		file(testRoot, "README.md"),
	)

	got := Format(Lines(root, Options{
		Root:         testRoot,
		Descriptions: map[string]string{"src/main.go": "entry point", "README.md": ""},
	}))

	want := strings.Join([]string{
		"├─ src/",
		"│  ├─ lib/",
		"│  │  └─ util.go",
		"│  └─ main.go # (entry point)",
		"├─ tests/",
		"│  └─ a_test.go",
		"└─ README.md",
	}, "\n")

	if got != want {
		t.Errorf("Format() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormat_LastDirectoryUsesBlankContinuation(t *testing.T) {
	docs := filepath.Join(testRoot, "docs")
	root := rootNode(dir(testRoot, "docs", file(docs, "a.md"), file(docs, "b.md")))

	got := Format(Lines(root, Options{Root: testRoot}))
	want := "└─ docs/\n   ├─ a.md\n   └─ b.md"
	if got != want {
		t.Errorf("Format() =\n%q\nwant\n%q", got, want)
	}
}

func TestTree_Block(t *testing.T) {
	root := rootNode(file(testRoot, "a.txt"))

	got := Tree(root, Options{
		Root:         testRoot,
		Descriptions: map[string]string{"./": "My project"},
	})
	want := "```\nproj/ # (My project)\n└─ a.txt\n```"
	if got != want {
		t.Errorf("Tree() = %q, want %q", got, want)
	}
}

func TestTree_EmptyRoot(t *testing.T) {
	got := Tree(rootNode(), Options{Root: testRoot})
	want := "```\nproj/\n```"
	if got != want {
		t.Errorf("Tree() = %q, want %q", got, want)
	}
}

func TestAnnotation_SingleLine(t *testing.T) {
	if got := annotation("  two\nlines  "); got != " # (two lines)" {
		t.Errorf("annotation() = %q", got)
	}
	if got := annotation("   "); got != "" {
		t.Errorf("annotation(blank) = %q, want empty", got)
	}
}
