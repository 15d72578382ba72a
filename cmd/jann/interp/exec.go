package interp

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/jgbyrne/jann/cmd/jann/deploy"
	"github.com/jgbyrne/jann/cmd/jann/lang"
)

// Env carries the per-invocation context the executor needs: where
// relative sources anchor, the deploy policy, and where status output
// goes.
type Env struct {
	Root   string
	Opts   deploy.Options
	Shell  string // fallback shell when @shell is unset
	DryRun bool
	Out    io.Writer
}

func (e *Env) out() io.Writer {
	if e.Out == nil {
		return os.Stdout
	}
	return e.Out
}

// shell returns the shell to run command statements with: the @shell
// jname when set, the configured fallback otherwise, /bin/sh as a last
// resort.
func (e *Env) shell(symbols *Symbols) string {
	if v, ok := symbols.JNames["shell"]; ok {
		if s, isStr := v.(Str); isStr {
			return string(s)
		}
	}
	if e.Shell != "" {
		return e.Shell
	}
	return "/bin/sh"
}

// command interpolates and runs one shell command statement. A non-zero
// exit is a warning, not an abort.
func command(env *Env, symbols *Symbols, log *lang.Log, node LinkNode) {
	body := Interpolate(log, symbols, node.TokenValue(), node.Tok)
	fmt.Fprintf(env.out(), ">>> %s\n", body)

	cmd := exec.Command(env.shell(symbols), "-c", body)
	cmd.Stdout = env.out()
	cmd.Stderr = env.out()
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(env.out(), "Command ended with non-zero status")
		} else {
			fmt.Fprintf(env.out(), "Command failed to start: %v\n", err)
		}
	}
}

// deployStmt validates and performs one copy or insert statement.
func deployStmt(env *Env, symbols *Symbols, log *lang.Log, node LinkNode) {
	children := node.Children()
	srcNode, dstNode := children[0], children[1]

	src := Interpolate(log, symbols, srcNode.TokenValue(), srcNode.Tok)
	if src == "" {
		log.Terminal("Source path is empty", "Put a path here", srcNode.Tok)
	}
	if !deploy.IsRelNormal(src) {
		log.Terminal("Invalid source path",
			"Remove any expansions and ensure path is relative to the deploy file", srcNode.Tok)
	}

	fullSrc := filepath.Join(env.Root, src)
	srcInfo, err := os.Stat(fullSrc)
	if err != nil {
		log.Terminal(fmt.Sprintf("No entity at source path: %s", fullSrc),
			"Make this a valid path", srcNode.Tok)
	}

	dst := Interpolate(log, symbols, dstNode.TokenValue(), dstNode.Tok)
	if dst == "" {
		log.Terminal("Destination path is empty", "Put a path here", dstNode.Tok)
	}

	dst, err = deploy.ExpandHome(dst)
	if err != nil {
		log.SysTerminal(err.Error())
	}

	if deploy.HasDotComponents(dst) {
		log.Terminal(fmt.Sprintf("Invalid destination path %s", dst),
			"Ensure path is absolute", dstNode.Tok)
	}

	// An insert drops the source's last component inside the destination.
	// The leading "/" join makes the target absolute only when the given
	// destination was not already; preserved as the dialect has it.
	if node.IsKind(lang.NtInsert) {
		dst = filepath.Join("/", dst, filepath.Base(src))
	}

	srcEnt := deploy.EntFile
	if srcInfo.IsDir() {
		srcEnt = deploy.EntDir
	}

	if err := deploy.Deploy(fullSrc, srcEnt, dst, env.Opts, env.DryRun, env.out()); err != nil {
		log.Terminal(fmt.Sprintf("Deployment error: %v", err),
			"Modify this line appropriately", node.Tok)
	}
}

// executeStmts runs a block's statement list in order. Names introduced
// by assignments are stripped again when the list completes; jnames
// persist for the invocation.
func executeStmts(env *Env, symbols *Symbols, log *lang.Log, stmts []LinkNode) {
	var scopeNames []string
	for _, node := range stmts {
		switch node.PTN.Kind {
		case lang.NtAssign:
			children := node.Children()
			lval := children[0]
			rval := LoadValue(log, symbols, children[1])
			if !CheckName(lval.TokenValue()) {
				log.Terminal("Invalid variable name", "Make this a valid name", lval.Tok)
			}
			if lval.IsKind(lang.NtName) {
				scopeNames = append(scopeNames, lval.TokenValue())
				symbols.Names[lval.TokenValue()] = rval
			} else if lval.IsKind(lang.NtJName) {
				symbols.JNames[lval.TokenValue()] = rval
			}

		case lang.NtCommand:
			command(env, symbols, log, node)

		case lang.NtCopy, lang.NtInsert:
			deployStmt(env, symbols, log, node)

		case lang.NtBlock:
			ExecuteBlock(env, symbols, log, node)
		}
	}
	for _, name := range scopeNames {
		delete(symbols.Names, name)
	}
}

// mapBlock runs a block's statement list once per element of the map's
// list value, binding the loop name to each element in turn. String
// elements are interpolated against the map's anchor before binding.
func mapBlock(env *Env, symbols *Symbols, log *lang.Log, mapNode LinkNode, stmts []LinkNode) {
	mapChildren := mapNode.Children()
	list, ok := LoadValue(log, symbols, mapChildren[0]).(List)
	if !ok {
		log.Terminal("Left side of Map must be a list",
			"Replace this value with a list", mapChildren[0].Tok)
	}
	name := mapChildren[1].TokenValue()
	if !CheckName(name) {
		log.Terminal("Invalid Map Variable Name",
			"Choose a valid name for this variable", mapChildren[1].Tok)
	}
	for _, elem := range list {
		if s, isStr := elem.(Str); isStr {
			elem = Str(Interpolate(log, symbols, string(s), mapNode.Tok))
		}
		symbols.Names[name] = elem
		executeStmts(env, symbols, log, stmts)
	}
	delete(symbols.Names, name)
}

// cdBlock runs a block's statements inside another working directory,
// restoring the previous one on every exit path.
func cdBlock(env *Env, symbols *Symbols, log *lang.Log, tag LinkNode, stmts []LinkNode) {
	pathNode := tag.Children()[0]
	path := Interpolate(log, symbols, pathNode.TokenValue(), pathNode.Tok)

	abs, err := filepath.Abs(path)
	if err != nil {
		log.SysTerminal(fmt.Sprintf("Could not resolve path %s", path))
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		log.Error("Not a directory", "Point this at an existing directory", pathNode.Tok)
		return
	}

	prev, err := os.Getwd()
	if err != nil {
		log.SysTerminal("Could not get cwd")
	}
	if err := os.Chdir(abs); err != nil {
		log.SysTerminal(fmt.Sprintf("Could not change working directory to %s", abs))
	}
	defer os.Chdir(prev)

	executeStmts(env, symbols, log, stmts)
}

// ExecuteBlock runs one BLOCK node. The block's first child is its tag:
// a NAME, a MAP, or a CD.
func ExecuteBlock(env *Env, symbols *Symbols, log *lang.Log, node LinkNode) {
	children := node.Children()
	tag := children[0]

	switch tag.PTN.Kind {
	case lang.NtName:
		if !CheckName(tag.TokenValue()) {
			log.Terminal("Invalid Block Name", "Choose a valid name for this block", tag.Tok)
		}
		// A named map block carries its MAP as the second leading child.
		if len(children) > 1 && children[1].IsKind(lang.NtMap) {
			mapBlock(env, symbols, log, children[1], children[2:])
		} else {
			executeStmts(env, symbols, log, children[1:])
		}

	case lang.NtMap:
		mapBlock(env, symbols, log, tag, children[1:])

	case lang.NtCd:
		cdBlock(env, symbols, log, tag, children[1:])

	default:
		log.Terminal("Invalid Block Tag", "Replace this with a name or a mapping", tag.Tok)
	}
}
