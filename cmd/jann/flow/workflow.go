package flow

import (
	"fmt"
	"os"
	"strings"

	"github.com/jgbyrne/jann/cmd/jann/interp"
	"github.com/jgbyrne/jann/cmd/jann/lang"
	"github.com/jgbyrne/jann/pkg/logutil"
)

var tracelog = logutil.Setup(os.Stderr, logutil.Level())

// RunState tracks whether a stage's body has run in this invocation.
// The only transition is NotRun → Done.
type RunState int

const (
	NotRun RunState = iota
	Done
)

// Stage is one element of a pipeline. PlPtr is set after linking when the
// stage names another pipeline; -1 otherwise.
type Stage struct {
	Name    string
	Tags    []string
	Enabled bool
	State   RunState
	PlPtr   int
	Tok     *lang.Token
}

// HasTag reports whether the stage carries the tag.
func (s *Stage) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Pipeline is an ordered list of stages.
type Pipeline struct {
	Name   string
	Stages []Stage
}

// Workflow is the set of pipelines extracted from one deploy file.
type Workflow struct {
	Lines []Pipeline
	Index map[string]int
}

// splitIncludeRef splits "file[::entry]" into its parts, defaulting the
// entry pipeline to "main".
func splitIncludeRef(ref string) (file, entry string) {
	if file, entry, ok := strings.Cut(ref, "::"); ok {
		return file, entry
	}
	return ref, "main"
}

// registerInclude binds an include or sudo_include directive into the
// include table. The data is either a single "file[::entry]" name or a
// two-element list of (file reference, alias).
func registerInclude(log *lang.Log, symbols *interp.Symbols, node interp.LinkNode) {
	children := node.Children()
	verb := children[0].TokenValue()
	data := children[1]

	var sudo bool
	switch verb {
	case "include":
	case "sudo_include":
		sudo = true
	default:
		log.Terminal("Unknown directive", "Use include or sudo_include", children[0].Tok)
	}

	var file, entry, key string
	switch {
	case data.IsKind(lang.NtName):
		file, entry = splitIncludeRef(data.TokenValue())
		key = entry

	case data.IsKind(lang.NtList):
		elems := data.Children()
		if len(elems) != 2 || !elems[0].IsKind(lang.NtName) || !elems[1].IsKind(lang.NtName) {
			log.Terminal("Malformed include", "Write [file.deploy::entry, alias]", data.Tok)
		}
		file, entry = splitIncludeRef(elems[0].TokenValue())
		key = elems[1].TokenValue()

	default:
		log.Terminal("Malformed include", "Name a deploy file here", data.Tok)
	}

	if !interp.CheckName(entry) {
		log.Terminal("Invalid include entry name", "Choose a valid pipeline name", data.Tok)
	}
	if !interp.CheckName(key) {
		log.Terminal("Invalid include alias", "Choose a valid stage name", data.Tok)
	}

	tracelog.Debugf("registered include %s -> %s::%s (sudo=%v)", key, file, entry, sudo)
	symbols.Includes[key] = interp.Include{File: file, Entry: entry, Sudo: sudo}
}

// registerPipeline validates a pipeline statement and appends it to the
// workflow.
func registerPipeline(log *lang.Log, flow *Workflow, node interp.LinkNode) {
	children := node.Children()
	nameNode := children[0]
	name := nameNode.TokenValue()
	if !interp.CheckName(name) {
		log.Terminal("Invalid Pipeline Name", "Choose a valid name for this pipeline", nameNode.Tok)
	}

	var stages []Stage
	for _, stageNode := range children[1].Children() {
		if !stageNode.IsKind(lang.NtName) {
			log.Terminal("Invalid stage", "Name a block or pipeline here", stageNode.Tok)
		}
		stageName := stageNode.TokenValue()
		if !interp.CheckName(stageName) {
			log.Terminal("Invalid Stage Name", "Choose a valid name for this stage", stageNode.Tok)
		}

		var enabled bool
		var tags []string
		for _, attr := range stageNode.Children() {
			switch attr.PTN.Kind {
			case lang.NtFlag:
				enabled = true
			case lang.NtList:
				for _, tagNode := range attr.Children() {
					tag := tagNode.TokenValue()
					if !interp.CheckName(tag) {
						log.Terminal("Invalid Tag", "Choose a valid name for this tag", tagNode.Tok)
					}
					tags = append(tags, tag)
				}
			}
		}

		stages = append(stages, Stage{
			Name:    stageName,
			Tags:    tags,
			Enabled: enabled,
			State:   NotRun,
			PlPtr:   -1,
			Tok:     stageNode.Tok,
		})
	}

	flow.Index[name] = len(flow.Lines)
	flow.Lines = append(flow.Lines, Pipeline{Name: name, Stages: stages})
}

// Build walks the root's children once, populating the block and include
// tables and collecting every pipeline. Root-level assignments are
// evaluated here so their bindings are visible to every stage.
func Build(log *lang.Log, symbols *interp.Symbols, art *interp.Artifact) *Workflow {
	flow := &Workflow{Index: make(map[string]int)}

	root := art.Root()
	for _, child := range root.Children() {
		if child.IsKind(lang.NtDirective) {
			registerInclude(log, symbols, child)
			continue
		}

		children := child.Children()
		if len(children) == 0 {
			continue
		}
		tag := children[0]

		if child.IsKind(lang.NtAssign) {
			rval := interp.LoadValue(log, symbols, children[1])
			if !interp.CheckName(tag.TokenValue()) {
				log.Terminal("Invalid variable name", "Make this a valid name", tag.Tok)
			}
			if tag.IsKind(lang.NtName) {
				symbols.Names[tag.TokenValue()] = rval
			} else if tag.IsKind(lang.NtJName) {
				symbols.JNames[tag.TokenValue()] = rval
			}
		}

		if tag.IsKind(lang.NtName) {
			symbols.Blocks[tag.TokenValue()] = child.PTN.ID
		}

		if child.IsKind(lang.NtPipeline) {
			registerPipeline(log, flow, child)
		}
	}

	tracelog.Debugf("registered %d pipelines, %d blocks, %d includes",
		len(flow.Lines), len(symbols.Blocks), len(symbols.Includes))
	return flow
}

// setStage applies one selector decision to every matching stage.
func (w *Workflow) setStage(ref Reference, enabled bool) {
	for li := range w.Lines {
		pl := &w.Lines[li]
		for si := range pl.Stages {
			st := &pl.Stages[si]
			match := false
			switch r := ref.(type) {
			case TagRef:
				match = st.HasTag(string(r))
			case StageRef:
				match = st.Name == string(r)
			case PipelineTagRef:
				match = pl.Name == r.Pipeline && st.HasTag(r.Tag)
			case PipelineStageRef:
				match = pl.Name == r.Pipeline && st.Name == r.Stage
			case AllRef:
				match = true
			}
			if match {
				st.Enabled = enabled
			}
		}
	}
}

// Apply runs the enable and disable switches over the workflow in textual
// order; the last write to a stage's enabled bit wins.
func (w *Workflow) Apply(switches []Switch) {
	for _, sw := range switches {
		var enabled bool
		switch sw.Verb {
		case "enable":
			enabled = true
		case "disable":
			enabled = false
		default:
			continue
		}
		for _, ref := range sw.Refs {
			w.setStage(ref, enabled)
		}
	}
}

// Link resolves every stage whose name matches a registered pipeline into
// a pipeline reference. Called once, after all pipelines are registered.
func (w *Workflow) Link() {
	for li := range w.Lines {
		for si := range w.Lines[li].Stages {
			st := &w.Lines[li].Stages[si]
			if idx, ok := w.Index[st.Name]; ok {
				st.PlPtr = idx
			}
		}
	}
}

// Execute runs the invocation's entry pipeline.
func (w *Workflow) Execute(inv *Invocation, symbols *interp.Symbols, log *lang.Log) {
	idx, ok := w.Index[inv.PlName]
	if !ok {
		log.SysTerminal(fmt.Sprintf("No such pipeline %s", inv.PlName))
	}
	w.executeLine(idx, inv, symbols, log, 0)
}

// executeLine runs one pipeline's stages in order. Block and include
// stages memoise: re-entry after a completed run is a no-op. Pipeline
// references recurse instead and carry no state of their own.
func (w *Workflow) executeLine(plSelf int, inv *Invocation, symbols *interp.Symbols, log *lang.Log, depth int) {
	out := inv.out()
	tabs := strings.Repeat("\t", depth)
	fmt.Fprintf(out, "%s %s%s\n", labelExecute(), tabs, w.Lines[plSelf].Name)

	for si := range w.Lines[plSelf].Stages {
		st := &w.Lines[plSelf].Stages[si]
		if !st.Enabled {
			fmt.Fprintf(out, "%s %s : %s\n", labelIgnore(), tabs, st.Name)
			continue
		}

		if st.PlPtr >= 0 {
			fmt.Fprintf(out, "%s %s | %s\n", labelRunning(), tabs, st.Name)
			w.executeLine(st.PlPtr, inv, symbols, log, depth+1)
		} else {
			switch st.State {
			case NotRun:
				fmt.Fprintf(out, "%s %s | %s\n", labelExecute(), tabs, st.Name)
				if blockID, ok := symbols.Blocks[st.Name]; ok {
					interp.ExecuteBlock(inv.env(), symbols, log, inv.Art.Node(blockID))
				} else if inc, ok := symbols.Includes[st.Name]; ok {
					runInclude(inv, inc, log, st)
				} else {
					log.Terminal("No such block or pipeline",
						"Define a block, pipeline, or include with this name", st.Tok)
				}
			case Done:
				fmt.Fprintf(out, "%s %s * %s\n", labelDone(), tabs, st.Name)
			}
		}
		st.State = Done
	}
}

// PipelineNames returns the pipeline names declared at the root of the
// artifact, in order of declaration.
func PipelineNames(art *interp.Artifact) []string {
	var names []string
	if art.Tree.IsEmpty() {
		return nil
	}
	for _, child := range art.Root().Children() {
		if !child.IsKind(lang.NtPipeline) {
			continue
		}
		children := child.Children()
		if len(children) > 0 && children[0].IsKind(lang.NtName) {
			names = append(names, children[0].TokenValue())
		}
	}
	return names
}
