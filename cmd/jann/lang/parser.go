package lang

// parser owns a cursor into the token stream and appends nodes to the
// tree in discovery order. Statement ids are returned upward so callers
// can bind them; id 0 (the root) doubles as the "block closed" sentinel.
type parser struct {
	toks []Token
	back int
	tree *Tree
	log  *Log
}

// parseFailed marks a production that could not be completed; the
// surrounding block recovers by skipping to its closing brace.
const parseFailed = -1

func newParser(log *Log, toks []Token) *parser {
	return &parser{toks: toks, tree: NewTree(), log: log}
}

func (p *parser) tok() *Token {
	return &p.toks[p.back]
}

func (p *parser) tokID() int {
	return p.toks[p.back].ID
}

func (p *parser) hasCur() bool {
	return p.back < len(p.toks)
}

func (p *parser) hasNext() bool {
	return p.back+1 < len(p.toks)
}

func (p *parser) retreat() {
	p.back--
}

func (p *parser) step() {
	p.back++
}

// stepOrErr advances, or raises a terminal diagnostic when the stream is
// exhausted mid-production.
func (p *parser) stepOrErr(msg, hint string) {
	if !p.hasNext() {
		p.terminal(msg, hint)
	}
	p.step()
}

// orphan appends a parentless node anchored at tokID; the caller binds it.
func (p *parser) orphan(kind NodeKind, tokID int) int {
	return p.tree.addNode(Node{Parent: -1, Kind: kind, TokID: tokID})
}

func (p *parser) error(msg, hint string) {
	p.log.Error(msg, hint, p.tok())
}

func (p *parser) terminal(msg, hint string) {
	p.log.Terminal(msg, hint, p.tok())
}

// parseVal parses a value: a bareword/quoted string (NAME), an
// @-prefixed interpreter name (JNAME), or a bracketed list.
func (p *parser) parseVal() int {
	tokID := p.tokID()
	switch p.tok().Kind {
	case TkString:
		p.step()
		return p.orphan(NtName, tokID)

	case TkAt:
		p.stepOrErr("Bare '@'", "Cannot conclude here")
		nameID := p.tokID()
		if p.tok().Kind != TkString {
			p.error("Name must follow '@'", "Change this value to a name")
			return parseFailed
		}
		p.step()
		return p.orphan(NtJName, nameID)

	case TkLBrack:
		list := p.orphan(NtList, tokID)
		p.stepOrErr("Bare Left Bracket", "Cannot conclude here")
		for {
			if p.tok().Kind == TkRBrack {
				p.step()
				return list
			}
			elem := p.parseVal()
			if elem == parseFailed {
				return parseFailed
			}
			p.tree.BindChild(list, elem)

			if !p.hasCur() {
				p.retreat()
				p.terminal("Unclosed List", "Add a bracket after here")
			}
			switch p.tok().Kind {
			case TkComma:
				p.stepOrErr("Bare Comma", "Cannot conclude here")
			case TkRBrack:
				p.step()
				return list
			default:
				p.error("Malformed List", "Add a comma or bracket before here")
				return parseFailed
			}
		}

	default:
		p.error("Expected value", "Add a value before here")
		return parseFailed
	}
}

// recoverBlock skips forward to the matching close brace after a
// malformed block body.
func (p *parser) recoverBlock() {
	depth := 0
	for {
		if !p.hasNext() {
			p.terminal("Unclosed Brace", "Add a brace after here")
		}
		p.step()
		switch p.tok().Kind {
		case TkLBrace:
			depth++
		case TkRBrace:
			if depth == 0 {
				p.step()
				return
			}
			depth--
		}
	}
}

// parseBlock parses "{ stmt* }" with the given tags as the block's
// leading children.
func (p *parser) parseBlock(tags ...int) int {
	block := p.orphan(NtBlock, p.tokID())
	for _, tag := range tags {
		p.tree.BindChild(block, tag)
	}
	p.stepOrErr("Unclosed Brace", "Add a brace after here")
	for {
		stmt := p.parseStmt()
		if stmt == parseFailed {
			p.recoverBlock()
			break
		}
		if stmt == 0 {
			break
		}
		p.tree.BindChild(block, stmt)
	}
	return block
}

// parseValStmt parses the statements that begin with a value: assignment,
// copy, insert, pipeline, map block, cd block, and plain block.
func (p *parser) parseValStmt() int {
	val := p.parseVal()
	if val == parseFailed {
		return parseFailed
	}

	if !p.hasCur() {
		p.retreat()
		p.error("Bare Value", "Cannot conclude here")
		return parseFailed
	}

	// "cd <path> { ... }": a change-directory block. The keyword is only
	// special in statement position with a value following it.
	if p.tree.Get(val).Kind == NtName && p.toks[p.tree.Get(val).TokID-1].Val.Slice() == "cd" {
		switch p.tok().Kind {
		case TkString, TkAt, TkLBrack:
			return p.parseCd(val)
		}
	}

	tokID := p.tokID()
	switch p.tok().Kind {
	case TkString, TkAt, TkLBrack:
		return p.parseNamedMap(val)

	case TkEquals:
		stmt := p.orphan(NtAssign, tokID)
		p.tree.BindChild(stmt, val)
		p.stepOrErr("Bare Equals", "Cannot conclude here")
		rval := p.parseVal()
		if rval == parseFailed {
			return parseFailed
		}
		p.tree.BindChild(stmt, rval)
		return stmt

	case TkAArrow:
		stmt := p.orphan(NtCopy, tokID)
		p.tree.BindChild(stmt, val)
		p.stepOrErr("Bare Copy Arrow", "Cannot conclude here")
		rval := p.parseVal()
		if rval == parseFailed {
			return parseFailed
		}
		p.tree.BindChild(stmt, rval)
		return stmt

	case TkDArrow:
		stmt := p.orphan(NtInsert, tokID)
		p.tree.BindChild(stmt, val)
		p.stepOrErr("Bare Insertion Arrow", "Cannot conclude here")
		rval := p.parseVal()
		if rval == parseFailed {
			return parseFailed
		}
		p.tree.BindChild(stmt, rval)
		return stmt

	case TkPipe, TkColon:
		return p.parsePipeline(val)

	case TkArrow:
		mapNode := p.orphan(NtMap, tokID)
		p.tree.BindChild(mapNode, val)
		p.stepOrErr("Bare arrow", "Cannot conclude here")
		rval := p.parseVal()
		if rval == parseFailed {
			return parseFailed
		}
		p.tree.BindChild(mapNode, rval)

		if !p.hasCur() {
			p.retreat()
			p.error("Expected block", "Add a block after here")
			return parseFailed
		}
		if p.tok().Kind != TkLBrace {
			p.error("Expected block", "Add a brace before here")
			return parseFailed
		}
		return p.parseBlock(mapNode)

	case TkLBrace:
		return p.parseBlock(val)

	default:
		p.error("Malformed statement", "This token is invalid in this position")
		return parseFailed
	}
}

// parsePipeline parses "name (| or :) stage [tags] (| or :) stage ...".
// The separator before each stage decides its enabled flag: an enabled
// stage receives a synthetic FLAG child anchored at the separator token.
func (p *parser) parsePipeline(val int) int {
	enabled := p.tok().Kind == TkPipe
	barTokID := p.tokID()

	stmt := p.orphan(NtPipeline, p.tokID())
	p.tree.BindChild(stmt, val)
	p.stepOrErr("Bare pipeline symbol", "Cannot conclude here")
	stages := p.orphan(NtList, barTokID)
	for {
		stage := p.parseVal()
		if stage == parseFailed {
			return parseFailed
		}
		p.tree.BindChild(stages, stage)
		if enabled {
			flag := p.orphan(NtFlag, barTokID)
			p.tree.BindChild(stage, flag)
		}
		if !p.hasCur() {
			break
		}
		if p.tok().Kind == TkLBrack {
			tags := p.parseVal()
			if tags == parseFailed {
				return parseFailed
			}
			p.tree.BindChild(stage, tags)
		}
		if !p.hasCur() {
			break
		}

		barTokID = p.tokID()
		switch p.tok().Kind {
		case TkPipe:
			enabled = true
			p.stepOrErr("Bare enabled pipe", "Cannot conclude here")
		case TkColon:
			enabled = false
			p.stepOrErr("Bare disabled pipe", "Cannot conclude here")
		default:
			p.tree.BindChild(stmt, stages)
			return stmt
		}
	}
	p.tree.BindChild(stmt, stages)
	return stmt
}

// parseNamedMap parses "name rhs -> loop { ... }": a map block that is
// also registered under a name, so pipeline stages can reach it. The
// block's leading children are the NAME and the MAP.
func (p *parser) parseNamedMap(val int) int {
	if p.tree.Get(val).Kind != NtName {
		p.error("Malformed statement", "This token is invalid in this position")
		return parseFailed
	}

	rhs := p.parseVal()
	if rhs == parseFailed {
		return parseFailed
	}
	if !p.hasCur() {
		p.retreat()
		p.error("Bare Value", "Cannot conclude here")
		return parseFailed
	}
	if p.tok().Kind != TkArrow {
		p.error("Malformed statement", "This token is invalid in this position")
		return parseFailed
	}

	mapNode := p.orphan(NtMap, p.tokID())
	p.tree.BindChild(mapNode, rhs)
	p.stepOrErr("Bare arrow", "Cannot conclude here")
	loopName := p.parseVal()
	if loopName == parseFailed {
		return parseFailed
	}
	p.tree.BindChild(mapNode, loopName)

	if !p.hasCur() {
		p.retreat()
		p.error("Expected block", "Add a block after here")
		return parseFailed
	}
	if p.tok().Kind != TkLBrace {
		p.error("Expected block", "Add a brace before here")
		return parseFailed
	}
	return p.parseBlock(val, mapNode)
}

// parseCd parses "cd <path> { ... }". The CD node is anchored at the
// keyword token and carries the path value as its only child; it becomes
// the tag of the block that follows.
func (p *parser) parseCd(val int) int {
	cd := p.orphan(NtCd, p.tree.Get(val).TokID)
	path := p.parseVal()
	if path == parseFailed {
		return parseFailed
	}
	p.tree.BindChild(cd, path)

	if !p.hasCur() {
		p.retreat()
		p.error("Expected block", "Add a block after here")
		return parseFailed
	}
	if p.tok().Kind != TkLBrace {
		p.error("Expected block", "Add a brace before here")
		return parseFailed
	}
	return p.parseBlock(cd)
}

// parseStmt parses one statement. It returns the new node id, 0 when a
// close brace ended the enclosing block, or parseFailed.
func (p *parser) parseStmt() int {
	if !p.hasCur() {
		p.retreat()
		return parseFailed
	}

	tokID := p.tokID()
	switch p.tok().Kind {
	case TkCommand:
		stmt := p.orphan(NtCommand, tokID)
		p.step()
		return stmt

	case TkHash:
		stmt := p.orphan(NtDirective, tokID)
		p.stepOrErr("Bare '#'", "Cannot conclude here")
		verb := p.parseVal()
		if verb == parseFailed {
			return parseFailed
		}
		p.tree.BindChild(stmt, verb)
		if !p.hasCur() {
			p.retreat()
			p.error("Malformed directive", "Directives take a verb and a value")
			return parseFailed
		}
		data := p.parseVal()
		if data == parseFailed {
			return parseFailed
		}
		p.tree.BindChild(stmt, data)
		return stmt

	case TkRBrace:
		p.step()
		return 0

	default:
		return p.parseValStmt()
	}
}

func (p *parser) parseFile() {
	if !p.hasCur() {
		return
	}
	for {
		stmt := p.parseStmt()
		if stmt == parseFailed {
			return
		}
		if stmt != 0 {
			p.tree.BindChild(0, stmt)
		}
		if !p.hasNext() {
			return
		}
	}
}

// Parse builds the parse tree for a lexed token stream. Errors are
// reported through log; the returned tree is best-effort when the sink
// holds errors.
func Parse(log *Log, toks []Token) *Tree {
	p := newParser(log, toks)
	p.parseFile()
	// Productions create operands before the node that owns them, so the
	// tree is renumbered in preorder: every parent then precedes its
	// children. Nodes never bound under the root are dropped.
	built := p.tree.Nodes
	tree := &Tree{}
	var visit func(old, parent int) int
	visit = func(old, parent int) int {
		id := len(tree.Nodes)
		tree.Nodes = append(tree.Nodes, Node{ID: id, Parent: parent, Kind: built[old].Kind, TokID: built[old].TokID})
		for _, c := range built[old].Children {
			tree.Nodes[id].Children = append(tree.Nodes[id].Children, visit(c, id))
		}
		return id
	}
	visit(0, -1)
	return tree
}
