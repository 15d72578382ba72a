// Package interp holds the interpreter core: the value model, the symbol
// tables, variable interpolation, and block execution.
package interp

import (
	"regexp"

	"github.com/jgbyrne/jann/cmd/jann/lang"
)

// Value is the sealed interface over the interpreter's value kinds.
// Only Str, List, Name, and JName implement it.
type Value interface {
	isValue()
}

// Str is a plain string value; the only kind that interpolates.
type Str string

// List is an ordered collection of values.
type List []Value

// Name is an unresolved user-variable reference.
type Name string

// JName is an unresolved interpreter-variable reference.
type JName string

func (Str) isValue()   {}
func (List) isValue()  {}
func (Name) isValue()  {}
func (JName) isValue() {}

// Include is an external deploy-file reference bound to a stage name.
type Include struct {
	File  string
	Entry string
	Sudo  bool
}

// Symbols holds the interpreter's name tables for one invocation.
// Names is lexically scoped: entries introduced by an assignment inside a
// block are stripped when the block exits. JNames persist for the whole
// invocation.
type Symbols struct {
	Names    map[string]Value
	JNames   map[string]Value
	Blocks   map[string]int
	Includes map[string]Include
}

// NewSymbols returns empty symbol tables.
func NewSymbols() *Symbols {
	return &Symbols{
		Names:    make(map[string]Value),
		JNames:   make(map[string]Value),
		Blocks:   make(map[string]int),
		Includes: make(map[string]Include),
	}
}

var nameRe = regexp.MustCompile(`^[A-Za-z0-9_]*$`)

// CheckName reports whether name is a valid variable, block, stage,
// pipeline, or tag name.
func CheckName(name string) bool {
	return nameRe.MatchString(name)
}

// Artifact pairs a token stream with the tree parsed from it.
type Artifact struct {
	Toks []lang.Token
	Tree *lang.Tree
}

// NewArtifact wraps a lexed and parsed deploy file.
func NewArtifact(toks []lang.Token, tree *lang.Tree) *Artifact {
	return &Artifact{Toks: toks, Tree: tree}
}

// LinkNode joins a parse-tree node with its anchor token.
type LinkNode struct {
	Art *Artifact
	Tok *lang.Token
	PTN *lang.Node
}

// Root returns the link node for the tree root. The root's token is
// arbitrary and must never be read.
func (a *Artifact) Root() LinkNode {
	if a.Tree.IsEmpty() {
		panic("parse tree is empty")
	}
	return LinkNode{Art: a, Tok: &a.Toks[0], PTN: a.Tree.Get(0)}
}

// Node returns the link node for the given tree node id.
func (a *Artifact) Node(n int) LinkNode {
	if n == 0 {
		return a.Root()
	}
	ptn := a.Tree.Get(n)
	return LinkNode{Art: a, Tok: &a.Toks[ptn.TokID-1], PTN: ptn}
}

// Children returns the node's children as link nodes.
func (n LinkNode) Children() []LinkNode {
	children := make([]LinkNode, 0, len(n.PTN.Children))
	for _, cid := range n.PTN.Children {
		children = append(children, n.Art.Node(cid))
	}
	return children
}

// IsKind reports whether the node has the given kind.
func (n LinkNode) IsKind(k lang.NodeKind) bool {
	return n.PTN.Kind == k
}

// TokenValue returns the source text spanned by the node's anchor token.
func (n LinkNode) TokenValue() string {
	return n.Tok.Val.Slice()
}

// LoadValue resolves a value node against the symbol tables. An unbound
// NAME is a bareword string literal; an unbound JNAME is an error.
func LoadValue(log *lang.Log, symbols *Symbols, node LinkNode) Value {
	switch node.PTN.Kind {
	case lang.NtName:
		name := node.TokenValue()
		if val, ok := symbols.Names[name]; ok {
			return val
		}
		return Str(name)

	case lang.NtJName:
		jname := node.TokenValue()
		val, ok := symbols.JNames[jname]
		if !ok {
			log.Terminal("Undefined JNAME", "Only interpreter-defined names may be used here", node.Tok)
		}
		return val

	case lang.NtList:
		vals := make(List, 0, len(node.PTN.Children))
		for _, elem := range node.Children() {
			vals = append(vals, LoadValue(log, symbols, elem))
		}
		return vals

	default:
		log.Terminal("Bad Value", "This cannot be used as a value", node.Tok)
		return nil
	}
}
