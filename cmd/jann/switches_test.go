package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jgbyrne/jann/cmd/jann/deploy"
	"github.com/jgbyrne/jann/cmd/jann/flow"
)

func TestParseSelector(t *testing.T) {
	cases := []struct {
		arg  string
		want flow.Reference
	}{
		{"*", flow.AllRef{}},
		{"%quick", flow.TagRef("quick")},
		{"build", flow.StageRef("build")},
		{"main.build", flow.PipelineStageRef{Pipeline: "main", Stage: "build"}},
		{"main.%quick", flow.PipelineTagRef{Pipeline: "main", Tag: "quick"}},
	}
	for _, tc := range cases {
		if got := parseSelector(tc.arg); got != tc.want {
			t.Fatalf("parseSelector(%q) = %#v, want %#v", tc.arg, got, tc.want)
		}
	}
}

func TestParseSwitches(t *testing.T) {
	t.Run("verb grouping", func(t *testing.T) {
		switches, err := parseSwitches([]string{"--execute", "main", "--enable", "a", "%t", "--disable", "*"})
		if err != nil {
			t.Fatal(err)
		}
		if len(switches) != 3 {
			t.Fatalf("got %d switches, want 3", len(switches))
		}
		if switches[0].Verb != "execute" || switches[0].Refs[0] != flow.PipelineRef("main") {
			t.Fatalf("bad execute switch: %+v", switches[0])
		}
		if switches[1].Verb != "enable" || len(switches[1].Refs) != 2 {
			t.Fatalf("bad enable switch: %+v", switches[1])
		}
		if switches[2].Refs[0] != (flow.AllRef{}) {
			t.Fatalf("bad disable switch: %+v", switches[2])
		}
	})

	t.Run("argument before any verb is fatal", func(t *testing.T) {
		_, err := parseSwitches([]string{"stray"})
		se, ok := err.(*switchError)
		if !ok || se.usage {
			t.Fatalf("want a non-usage switch error, got %v", err)
		}
	})

	t.Run("unknown verb falls back to help", func(t *testing.T) {
		_, err := parseSwitches([]string{"--frobnicate"})
		se, ok := err.(*switchError)
		if !ok || !se.usage {
			t.Fatalf("want a usage switch error, got %v", err)
		}
	})

	t.Run("allow validates flags", func(t *testing.T) {
		switches, err := parseSwitches([]string{"--allow", "ff", "inter"})
		if err != nil {
			t.Fatal(err)
		}
		if switches[0].Refs[0] != flow.FlagRef("ff") {
			t.Fatalf("bad allow refs: %+v", switches[0])
		}
		if _, err := parseSwitches([]string{"--allow", "bogus"}); err == nil {
			t.Fatal("expected an error for an unknown deploy flag")
		}
	})

	t.Run("empty args", func(t *testing.T) {
		switches, err := parseSwitches(nil)
		if err != nil || len(switches) != 0 {
			t.Fatalf("got %v, %v", switches, err)
		}
	})
}

func TestApplyFlagRefs(t *testing.T) {
	opts := deploy.DefaultOptions()
	applyFlagRefs(&opts, []flow.Reference{flow.FlagRef("fd")}, true)
	if !opts.DirOverFile {
		t.Fatal("allow fd should set DirOverFile")
	}
	applyFlagRefs(&opts, []flow.Reference{flow.AllRef{}}, false)
	if opts.FileOverFile || opts.DirOverDir || opts.DirOverFile || opts.FileOverDir || opts.Intermediate {
		t.Fatalf("forbid * should clear everything: %+v", opts)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envConfigDir, dir)

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := loadConfig()
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Shell != "" || cfg.MostlyHarmless {
			t.Fatalf("unexpected config: %+v", cfg)
		}
		if got := cfg.options(); got != deploy.DefaultOptions() {
			t.Fatalf("unexpected default options: %+v", got)
		}
	})

	t.Run("file overrides", func(t *testing.T) {
		yml := "shell: /bin/bash\nmostly_harmless: true\ndeploy:\n  file_over_file: false\n  intermediate: true\n"
		if err := os.WriteFile(filepath.Join(dir, "config.yml"), []byte(yml), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := loadConfig()
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Shell != "/bin/bash" || !cfg.MostlyHarmless {
			t.Fatalf("bad config: %+v", cfg)
		}
		opts := cfg.options()
		if opts.FileOverFile || !opts.Intermediate {
			t.Fatalf("bad deploy options: %+v", opts)
		}
	})
}
