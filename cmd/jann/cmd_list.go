package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jgbyrne/jann/cmd/jann/flow"
	"github.com/jgbyrne/jann/cmd/jann/interp"
	"github.com/jgbyrne/jann/cmd/jann/lang"
	"github.com/jgbyrne/jann/pkg/lib"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "Show the pipelines and blocks of a deploy file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		file, err := os.Open(path)
		if err != nil {
			lib.ExitNoInput(path)
		}
		lines := readLines(file)
		file.Close()

		log := lang.NewLog(path, lines, os.Stdout)
		toks := lang.LexLines(log, lines)
		if log.HasErr() {
			os.Exit(log.Conclude())
		}

		var tree *lang.Tree
		if !log.Guard(func() { tree = lang.Parse(log, toks) }) {
			os.Exit(log.Conclude())
		}
		if log.HasErr() {
			os.Exit(log.Conclude())
		}

		art := interp.NewArtifact(toks, tree)
		symbols := interp.NewSymbols()
		var wf *flow.Workflow
		if !log.Guard(func() { wf = flow.Build(log, symbols, art) }) {
			os.Exit(log.Conclude())
		}
		wf.Link()

		printWorkflow(wf, symbols)
		return nil
	},
}

// printWorkflow renders the pipelines with their stage separators and
// tags, then the plain blocks, aligned the way they would be invoked.
func printWorkflow(wf *flow.Workflow, symbols *interp.Symbols) {
	if len(wf.Lines) == 0 {
		fmt.Println("no pipelines found")
	}
	for _, pl := range wf.Lines {
		var b strings.Builder
		b.WriteString(pl.Name)
		for _, st := range pl.Stages {
			if st.Enabled {
				b.WriteString(" | ")
			} else {
				b.WriteString(" : ")
			}
			b.WriteString(st.Name)
			if len(st.Tags) > 0 {
				b.WriteString("[" + strings.Join(st.Tags, ",") + "]")
			}
			if st.PlPtr >= 0 {
				b.WriteString("*")
			}
		}
		fmt.Printf("%s  [pipeline]\n", b.String())
	}

	var blocks []string
	for name := range symbols.Blocks {
		if _, isPipeline := wf.Index[name]; !isPipeline {
			blocks = append(blocks, name)
		}
	}
	sort.Strings(blocks)
	for _, name := range blocks {
		fmt.Printf("%s  [block]\n", name)
	}

	var includes []string
	for name := range symbols.Includes {
		includes = append(includes, name)
	}
	sort.Strings(includes)
	for _, name := range includes {
		inc := symbols.Includes[name]
		fmt.Printf("%s  [include %s::%s]\n", name, inc.File, inc.Entry)
	}
}
