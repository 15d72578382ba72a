package lang

import (
	"fmt"
	"io"
)

// NodeKind classifies a parse-tree node.
type NodeKind int

const (
	NtRoot NodeKind = iota
	NtBlock
	NtMap
	NtAssign
	NtCommand
	NtDirective
	NtJName
	NtName
	NtList
	NtInsert
	NtCopy
	NtPipeline
	NtFlag
	NtCd
)

var nodeKindNames = [...]string{
	NtRoot:      "ROOT",
	NtBlock:     "BLOCK",
	NtMap:       "MAP",
	NtAssign:    "ASSIGN",
	NtCommand:   "COMMAND",
	NtDirective: "DIRECTIVE",
	NtJName:     "JNAME",
	NtName:      "NAME",
	NtList:      "LIST",
	NtInsert:    "INSERT",
	NtCopy:      "COPY",
	NtPipeline:  "PIPELINE",
	NtFlag:      "FLAG",
	NtCd:        "CD",
}

func (k NodeKind) String() string {
	if int(k) < len(nodeKindNames) {
		return nodeKindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Node is one parse-tree node. Children are edges (ids), never owners;
// parent is -1 for the root. Every non-root node anchors exactly one
// token via TokID.
type Node struct {
	ID       int
	Parent   int
	Children []int
	Kind     NodeKind
	TokID    int
}

// Tree is a flat, append-only parse tree. Node 0 is the root, and
// construction guarantees parent(n) < n for every n > 0.
type Tree struct {
	Nodes []Node
}

// NewTree returns a tree holding only the root node.
func NewTree() *Tree {
	return &Tree{Nodes: []Node{{ID: 0, Parent: -1, Kind: NtRoot, TokID: 0}}}
}

// addNode appends node, assigns its id, and links it under its parent
// when one is set.
func (t *Tree) addNode(node Node) int {
	node.ID = len(t.Nodes)
	if node.Parent >= 0 {
		t.Nodes[node.Parent].Children = append(t.Nodes[node.Parent].Children, node.ID)
	}
	t.Nodes = append(t.Nodes, node)
	return node.ID
}

// BindChild patches the edge parent → child after both exist.
func (t *Tree) BindChild(parent, child int) {
	t.Nodes[parent].Children = append(t.Nodes[parent].Children, child)
	t.Nodes[child].Parent = parent
}

// Get returns the node with the given id.
func (t *Tree) Get(id int) *Node {
	return &t.Nodes[id]
}

// IsEmpty reports whether the tree holds only its root.
func (t *Tree) IsEmpty() bool {
	return len(t.Nodes) == 1
}

// Dump writes an indented rendering of the tree, for debugging and test
// snapshots.
func (t *Tree) Dump(w io.Writer) {
	t.dumpNode(w, 0, 0)
}

func (t *Tree) dumpNode(w io.Writer, id, depth int) {
	n := t.Get(id)
	for i := 0; i < depth; i++ {
		fmt.Fprint(w, "\t")
	}
	fmt.Fprintf(w, "%d: %s [%d]\n", n.ID, n.Kind, n.TokID)
	for _, c := range n.Children {
		t.dumpNode(w, c, depth+1)
	}
}
