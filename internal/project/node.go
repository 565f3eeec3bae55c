// Package project models a room's project tree: files and folders
// addressed by slash-delimited paths, with a canonical byte encoding
// used for commit fingerprints.
package project

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the two node variants.
type Kind string

const (
	KindFile   Kind = "file"
	KindFolder Kind = "folder"
)

// Node is a file or folder in a project tree. Content is meaningful only
// for files, Children only for folders.
type Node struct {
	Kind     Kind
	Content  string
	Children map[string]*Node
}

// NewFile returns a file node with the given content.
func NewFile(content string) *Node {
	return &Node{Kind: KindFile, Content: content}
}

// NewFolder returns an empty folder node.
func NewFolder() *Node {
	return &Node{Kind: KindFolder, Children: make(map[string]*Node)}
}

type fileJSON struct {
	Type    Kind   `json:"type"`
	Content string `json:"content"`
}

type folderJSON struct {
	Type     Kind             `json:"type"`
	Children map[string]*Node `json:"children"`
}

// MarshalJSON emits the wire shape clients consume:
// {"type":"file","content":...} or {"type":"folder","children":{...}}.
func (n *Node) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case KindFile:
		return json.Marshal(fileJSON{Type: KindFile, Content: n.Content})
	case KindFolder:
		children := n.Children
		if children == nil {
			children = map[string]*Node{}
		}
		return json.Marshal(folderJSON{Type: KindFolder, Children: children})
	default:
		return nil, fmt.Errorf("unknown node kind %q", n.Kind)
	}
}

// UnmarshalJSON accepts the same wire shape.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type     Kind             `json:"type"`
		Content  string           `json:"content"`
		Children map[string]*Node `json:"children"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case KindFile:
		*n = Node{Kind: KindFile, Content: raw.Content}
	case KindFolder:
		children := raw.Children
		if children == nil {
			children = make(map[string]*Node)
		}
		*n = Node{Kind: KindFolder, Children: children}
	default:
		return fmt.Errorf("unknown node kind %q", raw.Type)
	}
	return nil
}

// CountNodes counts all nodes in a tree, the root included.
func CountNodes(n *Node) int {
	if n == nil {
		return 0
	}
	count := 1
	for _, child := range n.Children {
		count += CountNodes(child)
	}
	return count
}

// DefaultTree builds the seeded starter project every room begins with.
// Each call returns an independent tree.
func DefaultTree() *Node {
	return &Node{Kind: KindFolder, Children: map[string]*Node{
		"src": {Kind: KindFolder, Children: map[string]*Node{
			"app.js":     NewFile("// Welcome to your new project!\nconsole.log('Hello, JuliaCode Collab!');"),
			"styles.css": NewFile("/* Add your styles here */\nbody { background-color: #1e1e1e; }"),
		}},
		"package.json": NewFile(`{ "name": "new-project", "version": "1.0.0" }`),
	}}
}
