package deploy

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestOptionsCheck(t *testing.T) {
	opt := Options{FileOverFile: true, DirOverDir: true, DirOverFile: false, FileOverDir: true}
	cases := []struct {
		src, dst Entity
		want     bool
	}{
		{EntFile, EntFile, true},
		{EntFile, EntDir, true},
		{EntDir, EntFile, false},
		{EntDir, EntDir, true},
	}
	for _, tc := range cases {
		if got := opt.Check(tc.src, tc.dst); got != tc.want {
			t.Fatalf("Check(%s, %s) = %v, want %v", tc.src, tc.dst, got, tc.want)
		}
	}
}

func TestDeployNewFile(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src.txt")
	writeFile(t, src, "content")
	dst := filepath.Join(t.TempDir(), "dst.txt")

	if err := Deploy(src, EntFile, dst, DefaultOptions(), false, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	if readFile(t, dst) != "content" {
		t.Fatal("bad deployed content")
	}
}

func TestDeployIntermediate(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src.txt")
	writeFile(t, src, "content")

	t.Run("created when allowed", func(t *testing.T) {
		dst := filepath.Join(t.TempDir(), "a", "b", "dst.txt")
		if err := Deploy(src, EntFile, dst, DefaultOptions(), false, &bytes.Buffer{}); err != nil {
			t.Fatal(err)
		}
		if readFile(t, dst) != "content" {
			t.Fatal("bad deployed content")
		}
	})

	t.Run("refused when forbidden", func(t *testing.T) {
		dst := filepath.Join(t.TempDir(), "a", "b", "dst.txt")
		opt := DefaultOptions()
		opt.Intermediate = false
		err := Deploy(src, EntFile, dst, opt, false, &bytes.Buffer{})
		if err == nil {
			t.Fatal("expected an error")
		}
		if !strings.Contains(err.Error(), "[Deploy]") {
			t.Fatalf("expected a Deploy-tagged error, got %v", err)
		}
		if _, statErr := os.Stat(dst); statErr == nil {
			t.Fatal("destination must not exist")
		}
	})
}

func TestDeployOverwritePolicy(t *testing.T) {
	t.Run("disallowed overwrite is a silent no-op", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "src.txt")
		writeFile(t, src, "new")
		dst := filepath.Join(t.TempDir(), "dst.txt")
		writeFile(t, dst, "old")

		opt := DefaultOptions()
		opt.FileOverFile = false
		if err := Deploy(src, EntFile, dst, opt, false, &bytes.Buffer{}); err != nil {
			t.Fatal(err)
		}
		if readFile(t, dst) != "old" {
			t.Fatal("destination was destroyed without permission")
		}
	})

	t.Run("allowed overwrite replaces", func(t *testing.T) {
		src := filepath.Join(t.TempDir(), "src.txt")
		writeFile(t, src, "new")
		dst := filepath.Join(t.TempDir(), "dst.txt")
		writeFile(t, dst, "old")

		if err := Deploy(src, EntFile, dst, DefaultOptions(), false, &bytes.Buffer{}); err != nil {
			t.Fatal(err)
		}
		if readFile(t, dst) != "new" {
			t.Fatal("destination was not replaced")
		}
	})

	t.Run("dir over file needs permission", func(t *testing.T) {
		srcDir := t.TempDir()
		writeFile(t, filepath.Join(srcDir, "inner.txt"), "i")
		dstDir := t.TempDir()
		clash := filepath.Join(dstDir, "clash")
		writeFile(t, clash, "file")
		dst := filepath.Join(clash, "deep")

		err := Deploy(srcDir, EntDir, dst, DefaultOptions(), false, &bytes.Buffer{})
		if err == nil {
			t.Fatal("expected an error with DirOverFile unset")
		}

		opt := DefaultOptions()
		opt.DirOverFile = true
		if err := Deploy(srcDir, EntDir, dst, opt, false, &bytes.Buffer{}); err != nil {
			t.Fatal(err)
		}
		if readFile(t, filepath.Join(dst, "inner.txt")) != "i" {
			t.Fatal("directory not deployed past the clashing file")
		}
	})
}

func TestDeployDirRecursive(t *testing.T) {
	srcDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(srcDir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(srcDir, "top.txt"), "t")
	writeFile(t, filepath.Join(srcDir, "sub", "deep.txt"), "d")

	dst := filepath.Join(t.TempDir(), "out")
	if err := Deploy(srcDir, EntDir, dst, DefaultOptions(), false, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	if readFile(t, filepath.Join(dst, "top.txt")) != "t" {
		t.Fatal("top-level file missing")
	}
	if readFile(t, filepath.Join(dst, "sub", "deep.txt")) != "d" {
		t.Fatal("nested file missing")
	}
}

func TestDeployDryRun(t *testing.T) {
	src := filepath.Join(t.TempDir(), "src.txt")
	writeFile(t, src, "content")
	dst := filepath.Join(t.TempDir(), "dst.txt")

	out := &bytes.Buffer{}
	if err := Deploy(src, EntFile, dst, DefaultOptions(), true, out); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dst); err == nil {
		t.Fatal("dry run must not touch the filesystem")
	}
	if !strings.Contains(out.String(), "[dry-run]") {
		t.Fatalf("expected a dry-run report, got:\n%s", out.String())
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory in test environment")
	}

	cases := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/x/y", filepath.Join(home, "x", "y")},
		{"/abs/path", "/abs/path"},
		{"rel/path", "rel/path"},
		{"~user/x", "~user/x"},
	}
	for _, tc := range cases {
		got, err := ExpandHome(tc.in)
		if err != nil {
			t.Fatalf("ExpandHome(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ExpandHome(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPathHelpers(t *testing.T) {
	t.Run("components", func(t *testing.T) {
		got := Components("/a/b/c")
		want := []string{"/", "a", "b", "c"}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("got %v, want %v", got, want)
			}
		}
	})

	t.Run("rel normal", func(t *testing.T) {
		if !IsRelNormal("a/b") || IsRelNormal("/a") || IsRelNormal("../a") || IsRelNormal("") || IsRelNormal("./a") {
			t.Fatal("IsRelNormal misclassified a path")
		}
	})

	t.Run("dot components", func(t *testing.T) {
		if HasDotComponents("/a/b") || !HasDotComponents("/a/../b") || !HasDotComponents("./a") {
			t.Fatal("HasDotComponents misclassified a path")
		}
	})
}
