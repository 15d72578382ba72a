package flow

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/jgbyrne/jann/cmd/jann/deploy"
	"github.com/jgbyrne/jann/cmd/jann/interp"
	"github.com/jgbyrne/jann/cmd/jann/lang"
)

// Invocation is one run of a deploy file: the paths it anchors to, the
// deploy policy, the entry pipeline, and the parsed artifact.
type Invocation struct {
	Root     string
	EDir     string
	Opts     deploy.Options
	PlName   string
	Art      *interp.Artifact
	Switches []Switch
	Shell    string
	DryRun   bool
	Out      io.Writer
}

func (inv *Invocation) out() io.Writer {
	if inv.Out == nil {
		return os.Stdout
	}
	return inv.Out
}

func (inv *Invocation) env() *interp.Env {
	return &interp.Env{
		Root:   inv.Root,
		Opts:   inv.Opts,
		Shell:  inv.Shell,
		DryRun: inv.DryRun,
		Out:    inv.out(),
	}
}

// Invoke switches into the execution directory, builds the workflow, and
// runs the entry pipeline. The previous working directory is restored on
// every return path.
func (inv *Invocation) Invoke(log *lang.Log) {
	if inv.Art.Tree.IsEmpty() {
		log.SysTerminal("Empty deploy file")
	}

	cwd, err := os.Getwd()
	if err != nil {
		log.SysTerminal("Could not get cwd")
	}

	if _, err := os.Stat(inv.EDir); err != nil {
		if err := os.MkdirAll(inv.EDir, 0o755); err != nil {
			log.SysTerminal("Unable to create execution dir")
		}
	}

	if err := os.Chdir(inv.EDir); err != nil {
		log.SysTerminal(fmt.Sprintf("Could not change working directory to %s", inv.EDir))
	}
	defer os.Chdir(cwd)

	symbols := interp.NewSymbols()
	if inv.Shell != "" {
		symbols.JNames["shell"] = interp.Str(inv.Shell)
	}

	flow := Build(log, symbols, inv.Art)
	flow.Apply(inv.Switches)
	flow.Link()
	flow.Execute(inv, symbols, log)
}

// runInclude executes an included deploy file hermetically: a fresh child
// instance of this very binary, anchored at the invocation root, with no
// inherited symbols. A failing child aborts the run.
func runInclude(inv *Invocation, inc interp.Include, log *lang.Log, st *Stage) {
	exe, err := os.Executable()
	if err != nil {
		log.SysTerminal("Could not locate own executable")
	}

	args := []string{inc.File, "--execute", inc.Entry}
	var cmd *exec.Cmd
	if inc.Sudo {
		cmd = exec.Command("sudo", append([]string{exe}, args...)...)
	} else {
		cmd = exec.Command(exe, args...)
	}
	cmd.Dir = inv.Root
	cmd.Stdout = inv.out()
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	tracelog.Debugf("spawning include %s::%s (sudo=%v)", inc.File, inc.Entry, inc.Sudo)
	if err := cmd.Run(); err != nil {
		log.Terminal(fmt.Sprintf("Include %s failed: %v", st.Name, err),
			"Fix the included deploy file", st.Tok)
	}
}
