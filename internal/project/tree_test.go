package project

import (
	"errors"
	"testing"
)

func TestDefaultTreeSeed(t *testing.T) {
	tr := NewTree()

	tests := []struct {
		path string
		kind Kind
	}{
		{"", KindFolder},
		{"src", KindFolder},
		{"src/app.js", KindFile},
		{"src/styles.css", KindFile},
		{"package.json", KindFile},
	}

	for _, tt := range tests {
		node, err := tr.Resolve(tt.path)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.path, err)
		}
		if node.Kind != tt.kind {
			t.Errorf("Resolve(%q).Kind = %q, want %q", tt.path, node.Kind, tt.kind)
		}
	}

	if node, _ := tr.Resolve("src/app.js"); node.Content == "" {
		t.Error("seeded app.js should have content")
	}
	if CountNodes(tr.Root()) != 5 {
		t.Errorf("default tree has %d nodes, want 5", CountNodes(tr.Root()))
	}
}

func TestDefaultTreeIndependentPerCall(t *testing.T) {
	a := NewTree()
	b := NewTree()
	if err := a.UpdateFile("src/app.js", "changed"); err != nil {
		t.Fatal(err)
	}
	node, err := b.Resolve("src/app.js")
	if err != nil {
		t.Fatal(err)
	}
	if node.Content == "changed" {
		t.Error("trees from separate NewTree calls share nodes")
	}
}

func TestResolveNotFound(t *testing.T) {
	tr := NewTree()

	paths := []string{
		"missing",
		"src/missing.js",
		"package.json/impossible", // addresses through a file
		"/src",                    // leading slash yields an empty segment
		"src/",
	}
	for _, path := range paths {
		if _, err := tr.Resolve(path); !errors.Is(err, ErrNotFound) {
			t.Errorf("Resolve(%q) = %v, want ErrNotFound", path, err)
		}
	}
}

func TestCreateFile(t *testing.T) {
	tr := NewTree()

	if _, err := tr.Resolve("src/index.js"); !errors.Is(err, ErrNotFound) {
		t.Fatal("file should be absent before creation")
	}
	if err := tr.CreateFile("src", "index.js"); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	node, err := tr.Resolve("src/index.js")
	if err != nil {
		t.Fatalf("Resolve after create: %v", err)
	}
	if node.Kind != KindFile || node.Content != "" {
		t.Errorf("created file = %+v, want empty file", node)
	}
}

func TestCreateErrors(t *testing.T) {
	tr := NewTree()

	tests := []struct {
		name       string
		parentPath string
		child      string
		want       error
	}{
		{"duplicate name", "src", "app.js", ErrExists},
		{"parent missing", "nope", "x.js", ErrNotFound},
		{"parent is a file", "package.json", "x.js", ErrNotAFolder},
		{"empty name", "src", "", ErrBadName},
		{"slash in name", "src", "a/b", ErrBadName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := CountNodes(tr.Root())
			if err := tr.CreateFile(tt.parentPath, tt.child); !errors.Is(err, tt.want) {
				t.Errorf("CreateFile(%q, %q) = %v, want %v", tt.parentPath, tt.child, err, tt.want)
			}
			if got := CountNodes(tr.Root()); got != before {
				t.Errorf("failed create mutated the tree: %d -> %d nodes", before, got)
			}
		})
	}
}

func TestCreateFolderThenRetry(t *testing.T) {
	tr := NewTree()

	if err := tr.CreateFolder("", "docs"); err != nil {
		t.Fatalf("first CreateFolder: %v", err)
	}
	if err := tr.CreateFolder("", "docs"); !errors.Is(err, ErrExists) {
		t.Fatalf("retry CreateFolder = %v, want ErrExists", err)
	}
	node, err := tr.Resolve("docs")
	if err != nil {
		t.Fatal(err)
	}
	if node.Kind != KindFolder || len(node.Children) != 0 {
		t.Errorf("created folder = %+v, want empty folder", node)
	}
}

func TestDelete(t *testing.T) {
	tr := NewTree()

	if err := tr.Delete("src/app.js"); err != nil {
		t.Fatalf("Delete file: %v", err)
	}
	if _, err := tr.Resolve("src/app.js"); !errors.Is(err, ErrNotFound) {
		t.Error("deleted file still resolves")
	}

	// Folder deletion is recursive.
	if err := tr.Delete("src"); err != nil {
		t.Fatalf("Delete folder: %v", err)
	}
	if _, err := tr.Resolve("src/styles.css"); !errors.Is(err, ErrNotFound) {
		t.Error("child of deleted folder still resolves")
	}
}

func TestDeleteErrors(t *testing.T) {
	tr := NewTree()
	before := CountNodes(tr.Root())

	tests := []struct {
		name string
		path string
	}{
		{"missing path", "nope"},
		{"missing nested", "src/nope.js"},
		{"root", ""},
		{"through a file", "package.json/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tr.Delete(tt.path); !errors.Is(err, ErrNotFound) {
				t.Errorf("Delete(%q) = %v, want ErrNotFound", tt.path, err)
			}
		})
	}

	if got := CountNodes(tr.Root()); got != before {
		t.Errorf("failed deletes mutated the tree: %d -> %d nodes", before, got)
	}
}

func TestUpdateFile(t *testing.T) {
	tr := NewTree()

	if err := tr.UpdateFile("src/app.js", "x"); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}
	// Last write wins; no merge artifact.
	if err := tr.UpdateFile("src/app.js", "y"); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}
	node, err := tr.Resolve("src/app.js")
	if err != nil {
		t.Fatal(err)
	}
	if node.Content != "y" {
		t.Errorf("content = %q, want %q", node.Content, "y")
	}
}

func TestUpdateFileErrors(t *testing.T) {
	tr := NewTree()

	if err := tr.UpdateFile("missing.js", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateFile(missing) = %v, want ErrNotFound", err)
	}
	if err := tr.UpdateFile("src", "x"); !errors.Is(err, ErrNotAFile) {
		t.Errorf("UpdateFile(folder) = %v, want ErrNotAFile", err)
	}
	if err := tr.UpdateFile("", "x"); !errors.Is(err, ErrNotAFile) {
		t.Errorf("UpdateFile(root) = %v, want ErrNotAFile", err)
	}
}
