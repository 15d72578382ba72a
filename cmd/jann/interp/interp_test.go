package interp

import (
	"bytes"
	"testing"

	"github.com/jgbyrne/jann/cmd/jann/lang"
)

func testAnchor(line string) (*lang.Log, *lang.Token) {
	log := lang.NewLog("test", []string{line}, &bytes.Buffer{})
	tok := &lang.Token{ID: 1, Line: 1, Kind: lang.TkString, Val: lang.Span{Src: line, Lptr: 0, Rptr: len(line) - 1}}
	return log, tok
}

func TestInterpolate(t *testing.T) {
	symbols := NewSymbols()
	symbols.Names["x"] = Str("Q")
	symbols.Names["greeting"] = Str("hello world")
	symbols.JNames["shell"] = Str("/bin/bash")
	symbols.Names["l"] = List{Str("a")}

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain round trip", "a b c", "a b c"},
		{"simple substitution", "a{{x}}b", "aQb"},
		{"substitution with spaces", "say {{ greeting }}!", "say hello world!"},
		{"jname fallback", "run {{shell}}", "run /bin/bash"},
		{"lone brace is literal", "a{b", "a{b"},
		{"escaped braces", `\{\{x}}`, "{{x}}"},
		{"escape consumed", `a\\b`, `a\b`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log, tok := testAnchor(tc.in)
			got := Interpolate(log, symbols, tc.in, tok)
			if got != tc.want {
				t.Fatalf("Interpolate(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}

	terminal := []struct {
		name string
		in   string
	}{
		{"missing variable", "a{{nope}}b"},
		{"non-string value", "a{{l}}b"},
		{"unclosed interpolation", "a{{x"},
		{"missing second right brace", "a{{x}b"},
	}

	for _, tc := range terminal {
		t.Run(tc.name, func(t *testing.T) {
			log, tok := testAnchor(tc.in)
			completed := log.Guard(func() {
				Interpolate(log, symbols, tc.in, tok)
			})
			if completed || !log.HasErr() {
				t.Fatalf("Interpolate(%q) should be a terminal diagnostic", tc.in)
			}
		})
	}
}

func TestCheckName(t *testing.T) {
	valid := []string{"", "a", "foo_bar", "X9", "_"}
	invalid := []string{"a-b", "a b", "a.b", "%x", "a/b"}
	for _, name := range valid {
		if !CheckName(name) {
			t.Fatalf("CheckName(%q) = false, want true", name)
		}
	}
	for _, name := range invalid {
		if CheckName(name) {
			t.Fatalf("CheckName(%q) = true, want false", name)
		}
	}
}

func TestLoadValue(t *testing.T) {
	src := `items = ["a", "b"]`
	log := lang.NewLog("test", []string{src}, &bytes.Buffer{})
	toks := lang.LexLines(log, []string{src})
	var tree *lang.Tree
	if !log.Guard(func() { tree = lang.Parse(log, toks) }) || log.HasErr() {
		t.Fatal("setup parse failed")
	}
	art := NewArtifact(toks, tree)
	assign := art.Node(tree.Get(0).Children[0])
	children := assign.Children()

	symbols := NewSymbols()

	t.Run("list of bareword literals", func(t *testing.T) {
		val := LoadValue(log, symbols, children[1])
		list, ok := val.(List)
		if !ok || len(list) != 2 {
			t.Fatalf("got %#v, want 2-element list", val)
		}
		if list[0] != Str("a") || list[1] != Str("b") {
			t.Fatalf("bad elements: %#v", list)
		}
	})

	t.Run("bound name resolves", func(t *testing.T) {
		symbols.Names["items"] = Str("bound")
		defer delete(symbols.Names, "items")
		if got := LoadValue(log, symbols, children[0]); got != Str("bound") {
			t.Fatalf("got %#v, want bound value", got)
		}
	})

	t.Run("unbound name is a literal", func(t *testing.T) {
		if got := LoadValue(log, symbols, children[0]); got != Str("items") {
			t.Fatalf("got %#v, want Str(items)", got)
		}
	})
}
