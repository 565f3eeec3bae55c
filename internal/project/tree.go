package project

import (
	"errors"
	"fmt"
	"strings"
)

// Structural errors. Every tree operation either fully applies or leaves
// the tree untouched and returns one of these (possibly wrapped).
var (
	ErrNotFound   = errors.New("path not found")
	ErrExists     = errors.New("name already exists")
	ErrNotAFolder = errors.New("not a folder")
	ErrNotAFile   = errors.New("not a file")
	ErrBadName    = errors.New("invalid name")
)

// Tree owns one room's project tree. The root is always a folder. Tree
// does no locking of its own; the owning room serializes access.
type Tree struct {
	root *Node
}

// NewTree returns a tree seeded with the default starter project.
func NewTree() *Tree {
	return &Tree{root: DefaultTree()}
}

// Root returns the root folder.
func (t *Tree) Root() *Node {
	return t.root
}

// Snapshot returns the root folder's children, the shape pushed to
// clients as a full project-state update.
func (t *Tree) Snapshot() map[string]*Node {
	return t.root.Children
}

// Resolve walks a slash-delimited path from the root. The empty path
// denotes the root folder. Resolution never mutates.
func (t *Tree) Resolve(path string) (*Node, error) {
	return resolve(t.root, path)
}

func resolve(root *Node, path string) (*Node, error) {
	if path == "" {
		return root, nil
	}
	cur := root
	for _, seg := range strings.Split(path, "/") {
		if cur.Kind != KindFolder {
			return nil, fmt.Errorf("%q: %w", path, ErrNotFound)
		}
		child, ok := cur.Children[seg]
		if !ok {
			return nil, fmt.Errorf("%q: %w", path, ErrNotFound)
		}
		cur = child
	}
	return cur, nil
}

// splitParent splits a path into its parent path and final segment.
func splitParent(path string) (dir, name string) {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}

// CreateFile adds an empty-content file under the folder at parentPath.
func (t *Tree) CreateFile(parentPath, name string) error {
	return t.createChild(parentPath, name, NewFile(""))
}

// CreateFolder adds an empty folder under the folder at parentPath.
func (t *Tree) CreateFolder(parentPath, name string) error {
	return t.createChild(parentPath, name, NewFolder())
}

func (t *Tree) createChild(parentPath, name string, child *Node) error {
	if name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%q: %w", name, ErrBadName)
	}
	parent, err := resolve(t.root, parentPath)
	if err != nil {
		return err
	}
	if parent.Kind != KindFolder {
		return fmt.Errorf("%q: %w", parentPath, ErrNotAFolder)
	}
	if _, ok := parent.Children[name]; ok {
		return fmt.Errorf("%q: %w", name, ErrExists)
	}
	parent.Children[name] = child
	return nil
}

// Delete removes the node at path, recursively for folders. Removing the
// root is reported as not found.
func (t *Tree) Delete(path string) error {
	if path == "" {
		return fmt.Errorf("root: %w", ErrNotFound)
	}
	dir, name := splitParent(path)
	parent, err := resolve(t.root, dir)
	if err != nil {
		return err
	}
	if parent.Kind != KindFolder {
		return fmt.Errorf("%q: %w", path, ErrNotFound)
	}
	if _, ok := parent.Children[name]; !ok {
		return fmt.Errorf("%q: %w", path, ErrNotFound)
	}
	delete(parent.Children, name)
	return nil
}

// UpdateFile replaces the content of the file at path. Last write wins;
// there is no merging of concurrent edits.
func (t *Tree) UpdateFile(path, content string) error {
	node, err := resolve(t.root, path)
	if err != nil {
		return err
	}
	if node.Kind != KindFile {
		return fmt.Errorf("%q: %w", path, ErrNotAFile)
	}
	node.Content = content
	return nil
}
