package main

import (
	"fmt"
	"strings"

	"github.com/jgbyrne/jann/cmd/jann/flow"
)

// switchVerbs is the set of verbs the orchestrator surface accepts.
// Tokens after a verb are its arguments, until the next verb.
var switchVerbs = map[string]bool{
	"execute": true,
	"enable":  true,
	"disable": true,
	"allow":   true,
	"forbid":  true,
	"pick":    true,
}

// switchError distinguishes malformed command lines (exit 1) from
// unknown verbs, which fall back to the help text (exit 64).
type switchError struct {
	msg   string
	usage bool
}

func (e *switchError) Error() string {
	return e.msg
}

// parseSelector parses one enable/disable argument:
// "*" (all), "%tag", "name", "pl.name", or "pl.%tag".
func parseSelector(arg string) flow.Reference {
	if arg == "*" {
		return flow.AllRef{}
	}
	if tag, ok := strings.CutPrefix(arg, "%"); ok {
		return flow.TagRef(tag)
	}
	if pl, rest, ok := strings.Cut(arg, "."); ok {
		if tag, isTag := strings.CutPrefix(rest, "%"); isTag {
			return flow.PipelineTagRef{Pipeline: pl, Tag: tag}
		}
		return flow.PipelineStageRef{Pipeline: pl, Stage: rest}
	}
	return flow.StageRef(arg)
}

// deployFlags names the overwrite options addressable by --allow/--forbid.
var deployFlags = map[string]bool{
	"ff":    true, // file over file
	"dd":    true, // dir over dir
	"fd":    true, // dir over file
	"df":    true, // file over dir
	"inter": true, // intermediate directories
}

// parseRef converts one switch argument into a reference, interpreting it
// according to its verb.
func parseRef(verb, arg string) (flow.Reference, error) {
	switch verb {
	case "execute":
		return flow.PipelineRef(arg), nil
	case "allow", "forbid":
		if arg == "*" {
			return flow.AllRef{}, nil
		}
		if !deployFlags[arg] {
			return nil, &switchError{msg: fmt.Sprintf("unknown deploy flag %q (expected ff, dd, fd, df, inter, or *)", arg)}
		}
		return flow.FlagRef(arg), nil
	case "pick":
		return nil, &switchError{msg: fmt.Sprintf("--pick takes no argument, got %q", arg)}
	default:
		return parseSelector(arg), nil
	}
}

// parseSwitches turns the argument tail into verb groups. An argument
// with no preceding verb is a fatal usage error; an unknown verb sends
// the user back to the help text.
func parseSwitches(args []string) ([]flow.Switch, error) {
	var switches []flow.Switch
	curVerb := ""
	var curRefs []flow.Reference

	flush := func() {
		if curVerb != "" {
			switches = append(switches, flow.Switch{Verb: curVerb, Refs: curRefs})
			curRefs = nil
		}
	}

	for _, arg := range args {
		if verb, ok := strings.CutPrefix(arg, "--"); ok {
			if !switchVerbs[verb] {
				return nil, &switchError{msg: fmt.Sprintf("unknown switch --%s", verb), usage: true}
			}
			flush()
			curVerb = verb
			continue
		}

		if curVerb == "" {
			return nil, &switchError{
				msg: fmt.Sprintf("Expected a verb (such as --enable) in the position of the argument %s", arg),
			}
		}
		ref, err := parseRef(curVerb, arg)
		if err != nil {
			return nil, err
		}
		curRefs = append(curRefs, ref)
	}
	flush()
	return switches, nil
}
