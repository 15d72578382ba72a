package lang

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// lexState is the lexer's per-line state machine.
type lexState int

const (
	lexNone lexState = iota
	lexQString
	lexBString
	lexComStart
	lexCommand
	lexArrow
	lexDArrow
	lexAArrow
)

// breaking reports whether c terminates a bareword. Alphanumerics never
// break; whitespace and the structural punctuation always do.
func breaking(c rune) bool {
	if unicode.IsLetter(c) || unicode.IsDigit(c) {
		return false
	}
	if unicode.IsSpace(c) {
		return true
	}
	return strings.ContainsRune("{}[]$@->=,!|#", c)
}

// runeEnd returns the index of the last byte of the rune starting at i.
func runeEnd(i int, c rune) int {
	return i + utf8.RuneLen(c) - 1
}

// trailingBrace reports whether a command span ends in a lone close
// brace: a "}" that is the span's last byte and stands apart from the
// command text (first byte, or preceded by whitespace). Returns the
// brace's index.
func trailingBrace(input string, span Span) (int, bool) {
	end := span.Rptr
	for end >= span.Lptr && (input[end] == ' ' || input[end] == '\t') {
		end--
	}
	if end < span.Lptr || input[end] != '}' {
		return 0, false
	}
	if end == span.Lptr {
		return end, true
	}
	prev := input[end-1]
	if prev == ' ' || prev == '\t' {
		return end, true
	}
	return 0, false
}

// Tokenise lexes a single source line. Token ids continue from *id, which
// is advanced for the next line. Lines whose first non-whitespace
// characters are "//" produce no tokens.
func Tokenise(log *Log, lno int, id *int, input string) []Token {
	if strings.HasPrefix(strings.TrimLeft(input, " \t"), "//") {
		return nil
	}

	type ic struct {
		i int
		c rune
	}
	var ci []ic
	for i, c := range input {
		ci = append(ci, ic{i, c})
	}

	within := lexNone
	esc := false
	span := spanSingle(input, 0)
	var toks []Token

	emit := func(kind TokenKind, val Span) {
		toks = append(toks, Token{ID: *id, Line: lno, Kind: kind, Val: val})
		*id++
	}

	idx := 0
	for idx < len(ci) {
		i, c := ci[idx].i, ci[idx].c
		reprocess := false

		switch within {
		case lexNone:
			var single TokenKind
			isSingle := true
			switch c {
			case '{':
				single = TkLBrace
			case '}':
				single = TkRBrace
			case '[':
				single = TkLBrack
			case ']':
				single = TkRBrack
			case '@':
				single = TkAt
			case ',':
				single = TkComma
			case '|':
				single = TkPipe
			case ':':
				single = TkColon
			case '#':
				single = TkHash
			default:
				isSingle = false
			}

			if isSingle {
				emit(single, spanSingle(input, i))
			} else {
				span = spanBegin(input, i)
				switch {
				case c == '-':
					within = lexArrow
				case c == '=':
					within = lexDArrow
				case c == '>':
					within = lexAArrow
				case c == '"':
					within = lexQString
				case c == '$':
					within = lexComStart
				case !breaking(c):
					within = lexBString
				default:
					within = lexNone
				}
			}

		case lexQString:
			if c == '"' && !esc {
				span.conclude(i)
				span.shrink(1)
				emit(TkString, span)
				span = spanSingle(input, 0)
				within = lexNone
			} else if c == '\\' && !esc {
				esc = true
			} else if esc {
				esc = false
			}

		case lexBString:
			if breaking(c) && !esc {
				span.concludePrev(i)
				emit(TkString, span)
				span = spanSingle(input, 0)
				within = lexNone
				reprocess = true
			} else if c == '\\' && !esc {
				esc = true
			} else if esc {
				esc = false
			}

		case lexComStart:
			if !unicode.IsSpace(c) {
				span = spanBegin(input, i)
				within = lexCommand
				reprocess = true
			}

		case lexCommand:
			// Consumes to end of line.

		case lexArrow, lexAArrow:
			if c == '>' {
				span.conclude(i)
				if within == lexArrow {
					emit(TkArrow, span)
				} else {
					emit(TkAArrow, span)
				}
				span = spanSingle(input, 0)
				within = lexNone
			} else {
				span.concludePrev(i)
				emit(TkErr, span)
				log.Error("Headless Arrow", "Add a '>' character", &toks[len(toks)-1])
				return toks
			}

		case lexDArrow:
			if c == '>' {
				span.conclude(i)
				emit(TkDArrow, span)
				span = spanSingle(input, 0)
				within = lexNone
			} else {
				span.concludePrev(i)
				emit(TkEquals, span)
				span = spanSingle(input, 0)
				within = lexNone
				reprocess = true
			}
		}

		if !reprocess {
			idx++
		}

		if idx >= len(ci) {
			last := ci[len(ci)-1]
			switch within {
			case lexNone:
			case lexBString:
				span.conclude(runeEnd(last.i, last.c))
				emit(TkString, span)
			case lexCommand:
				span.conclude(runeEnd(last.i, last.c))
				// A lone trailing "}" closes the enclosing block rather
				// than joining the command, so one-line blocks like
				// "hello { $ echo hi }" work. Escape it or attach it to
				// the preceding word to keep a literal trailing brace.
				if brace, ok := trailingBrace(input, span); ok {
					span.conclude(brace - 1)
					for span.Rptr >= span.Lptr && (input[span.Rptr] == ' ' || input[span.Rptr] == '\t') {
						span.Rptr--
					}
					if span.Rptr >= span.Lptr {
						emit(TkCommand, span)
					}
					emit(TkRBrace, spanSingle(input, brace))
				} else {
					emit(TkCommand, span)
				}
			default:
				span.conclude(runeEnd(last.i, last.c))
				emit(TkErr, span)
				log.Error("Unexpected EOF", "Close this construct", &toks[len(toks)-1])
				return toks
			}
			break
		}
	}
	return toks
}

// LexLines tokenises a whole file, threading line numbers and the global
// token id through every line.
func LexLines(log *Log, lines []string) []Token {
	var toks []Token
	id := 1
	for n, line := range lines {
		toks = append(toks, Tokenise(log, n+1, &id, line)...)
	}
	return toks
}
