package interp

import (
	"strings"

	"github.com/jgbyrne/jann/cmd/jann/lang"
)

// interpState is the interpolator's parsing state.
type interpState int

const (
	ipNone   interpState = iota
	ipLBrace             // saw one '{'
	ipRBrace             // value emitted, expecting the closing '}'
	ipWithin             // collecting a variable name
)

// Interpolate substitutes every {{name}} occurrence in base with the
// variable's value, looking names up first in the user table and then in
// the interpreter table. A single '{' followed by another character is
// literal; a '{' that ends base is a syntax error. '\' escapes the next
// character. Only Str values may be substituted. Diagnostics anchor at
// tok.
func Interpolate(log *lang.Log, symbols *Symbols, base string, tok *lang.Token) string {
	esc := false
	ex := ipNone

	var out strings.Builder
	var name strings.Builder

	for _, c := range base {
		if ex == ipRBrace {
			if c != '}' {
				log.Terminal("Expected right brace", "Missing right brace", tok)
			}
			ex = ipNone
			continue
		}

		if ex == ipWithin {
			if c == '}' {
				key := strings.TrimSpace(name.String())
				val, ok := symbols.Names[key]
				if !ok {
					val, ok = symbols.JNames[key]
				}
				if !ok {
					log.Terminal("No such variable "+key,
						"Ensure interpolation uses extant, in-scope variables", tok)
				}
				if s, isStr := val.(Str); isStr {
					out.WriteString(string(s))
				} else {
					log.Terminal("Only strings can be interpolated",
						"Change the type of variable "+key, tok)
				}
				name.Reset()
				ex = ipRBrace
				continue
			}
			name.WriteRune(c)
			continue
		}

		if ex == ipLBrace {
			if c == '{' {
				ex = ipWithin
				continue
			}
			ex = ipNone
			out.WriteString("{")
		}

		if c == '\\' && !esc {
			esc = true
			continue
		}
		if c == '{' && !esc {
			ex = ipLBrace
			continue
		}

		if esc {
			esc = false
		}

		out.WriteRune(c)
	}

	if ex != ipNone {
		log.Terminal("Bad interpolation syntax", "Make sure all braces are matched", tok)
	}

	return out.String()
}
