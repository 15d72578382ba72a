// Package flow builds the workflow graph out of a parsed deploy file,
// applies command-line selectors, links pipeline references, and executes
// the selected entry pipeline.
package flow

// Reference is the sealed interface over command-line switch arguments:
// stage selectors, an execution target, or a deploy-option flag.
type Reference interface {
	isRef()
}

// TagRef selects every stage carrying the tag (%tag).
type TagRef string

// StageRef selects every stage with the given name.
type StageRef string

// PipelineTagRef selects tagged stages of one pipeline (pl.%tag).
type PipelineTagRef struct {
	Pipeline string
	Tag      string
}

// PipelineStageRef selects one stage of one pipeline (pl.name).
type PipelineStageRef struct {
	Pipeline string
	Stage    string
}

// AllRef selects every stage (*).
type AllRef struct{}

// PipelineRef names an entry pipeline for --execute.
type PipelineRef string

// FlagRef names a deploy option for --allow and --forbid.
type FlagRef string

func (TagRef) isRef()           {}
func (StageRef) isRef()         {}
func (PipelineTagRef) isRef()   {}
func (PipelineStageRef) isRef() {}
func (AllRef) isRef()           {}
func (PipelineRef) isRef()      {}
func (FlagRef) isRef()          {}

// Switch is one command-line verb with its argument references, in the
// order they were given.
type Switch struct {
	Verb string
	Refs []Reference
}
