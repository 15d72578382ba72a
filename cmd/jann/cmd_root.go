package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jgbyrne/jann/cmd/jann/deploy"
	"github.com/jgbyrne/jann/cmd/jann/flow"
	"github.com/jgbyrne/jann/cmd/jann/interp"
	"github.com/jgbyrne/jann/cmd/jann/lang"
	"github.com/jgbyrne/jann/pkg/lib"

	"github.com/joho/godotenv"
	"github.com/ktr0731/go-fuzzyfinder"
	"github.com/spf13/cobra"
)

const usageText = appName + ` - Configuration deployment utility for *nix

usage:
  ` + appName + ` <file> [switches ...]   execute a deploy file
  ` + appName + ` -- [switches ...]       read the deploy file from stdin
  ` + appName + ` --version               print the version
  ` + appName + ` --help                  print this help

switches:
  --execute <pipeline>    entry pipeline (default: main)
  --enable <ref> ...      enable stages (* | %tag | name | pl.name | pl.%tag)
  --disable <ref> ...     disable stages
  --allow <flag> ...      permit overwrites (ff | dd | fd | df | inter | *)
  --forbid <flag> ...     forbid overwrites
  --pick                  choose the entry pipeline interactively

subcommands:
  init      scaffold a starter Jannfile
  list      show the pipelines and blocks of a deploy file
  doctor    report the host environment jann runs in`

// rootCmd owns the whole orchestrator surface. Flag parsing is disabled:
// the verb/argument switch grammar and its exit codes are handled by our
// own parser.
var rootCmd = &cobra.Command{
	Use:                appName + " [file] [switches ...]",
	Short:              "Configuration deployment utility for *nix",
	Args:               cobra.ArbitraryArgs,
	DisableFlagParsing: true,
	SilenceUsage:       true,
	SilenceErrors:      true,
	RunE: func(cmd *cobra.Command, args []string) error {
		runRoot(args)
		return nil
	},
}

// runRoot dispatches the top-level argument forms and never returns: it
// always concludes through an exit path.
func runRoot(args []string) {
	if len(args) == 0 {
		lib.ExitUsage(usageText)
	}

	var job string
	var lines []string

	switch args[0] {
	case "--help", "-h":
		lib.ExitUsage(usageText)

	case "--version":
		fmt.Printf("%s v%s\n", appName, version)
		os.Exit(lib.CodeOK)

	case "--":
		job = "stdin"
		lines = readLines(os.Stdin)

	default:
		job = args[0]
		file, err := os.Open(job)
		if err != nil {
			lib.ExitNoInput(job)
		}
		lines = readLines(file)
		file.Close()
	}

	switches, err := parseSwitches(args[1:])
	if err != nil {
		if se, ok := err.(*switchError); ok && se.usage {
			fmt.Println(se.msg)
			lib.ExitUsage(usageText)
		}
		fmt.Println(err.Error())
		os.Exit(lib.CodeFailed)
	}

	os.Exit(run(job, lines, switches))
}

func readLines(f *os.File) []string {
	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines
}

// run lexes, parses, and executes the deploy file, returning the process
// exit code. Any accumulated lex or parse diagnostic concludes the run
// before execution begins.
func run(job string, lines []string, switches []flow.Switch) int {
	log := lang.NewLog(job, lines, os.Stdout)

	toks := lang.LexLines(log, lines)
	if log.HasErr() {
		return log.Conclude()
	}

	var tree *lang.Tree
	if !log.Guard(func() { tree = lang.Parse(log, toks) }) {
		return log.Conclude()
	}
	if log.HasErr() {
		return log.Conclude()
	}

	cfg, err := loadConfig()
	if err != nil {
		lib.Exit(err)
	}
	loadEnvFile(cfg, job)

	opts := cfg.options()
	plName := "main"
	pick := false
	for _, sw := range switches {
		switch sw.Verb {
		case "execute":
			if len(sw.Refs) > 0 {
				if pl, ok := sw.Refs[0].(flow.PipelineRef); ok {
					plName = string(pl)
				}
			}
		case "allow":
			applyFlagRefs(&opts, sw.Refs, true)
		case "forbid":
			applyFlagRefs(&opts, sw.Refs, false)
		case "pick":
			pick = true
		}
	}

	art := interp.NewArtifact(toks, tree)
	if pick {
		plName = pickPipeline(art)
	}

	cwd, err := os.Getwd()
	if err != nil {
		lib.Exit(fmt.Errorf("could not get cwd: %w", err))
	}

	inv := &flow.Invocation{
		Root:     cwd,
		EDir:     filepath.Join(cwd, "deploy"),
		Opts:     opts,
		PlName:   plName,
		Art:      art,
		Switches: switches,
		Shell:    cfg.Shell,
		DryRun:   cfg.MostlyHarmless || os.Getenv(envDryRun) == "1",
	}
	log.Guard(func() { inv.Invoke(log) })
	return log.Conclude()
}

// loadEnvFile seeds the process environment before any command stage
// runs: an explicitly configured env file, or a .env next to the deploy
// file when one exists. A deploy file read from stdin looks in the current
// directory.
func loadEnvFile(cfg Config, job string) {
	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil {
			lib.Exit(fmt.Errorf("env file %s: %w", cfg.EnvFile, err))
		}
		return
	}
	envPath := ".env"
	if job != "stdin" {
		envPath = filepath.Join(filepath.Dir(job), ".env")
	}
	if _, err := os.Stat(envPath); err == nil {
		_ = godotenv.Load(envPath)
	}
}

// applyFlagRefs flips the addressed overwrite options on or off.
func applyFlagRefs(opts *deploy.Options, refs []flow.Reference, allowed bool) {
	for _, ref := range refs {
		switch r := ref.(type) {
		case flow.AllRef:
			opts.FileOverFile = allowed
			opts.DirOverDir = allowed
			opts.DirOverFile = allowed
			opts.FileOverDir = allowed
			opts.Intermediate = allowed
		case flow.FlagRef:
			switch string(r) {
			case "ff":
				opts.FileOverFile = allowed
			case "dd":
				opts.DirOverDir = allowed
			case "fd":
				opts.DirOverFile = allowed
			case "df":
				opts.FileOverDir = allowed
			case "inter":
				opts.Intermediate = allowed
			}
		}
	}
}

// pickPipeline lets the user select the entry pipeline interactively.
func pickPipeline(art *interp.Artifact) string {
	names := flow.PipelineNames(art)
	if len(names) == 0 {
		lib.Exit(fmt.Errorf("no pipelines to pick from"))
	}
	idx, err := fuzzyfinder.Find(
		names,
		func(i int) string {
			return names[i]
		},
		fuzzyfinder.WithPromptString("Select pipeline: "),
	)
	if err != nil {
		lib.Exit(fmt.Errorf("no pipeline selected: %w", err))
	}
	return names[idx]
}
