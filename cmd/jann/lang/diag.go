package lang

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	diagLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	diagLineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	diagCaretStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	diagHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// Log is the diagnostic sink. Errors accumulate; terminal diagnostics
// additionally unwind to the nearest Guard call so the caller can flush
// and conclude. All output goes to a single writer so tests can capture it.
type Log struct {
	job      string
	lines    []string
	errCount int
	out      io.Writer
}

// bail is the panic sentinel used by terminal diagnostics. It never
// escapes the package: Guard is the only recovery point.
type bail struct{}

// NewLog returns a sink for the given job name (file path or "stdin")
// over the file's source lines.
func NewLog(job string, lines []string, out io.Writer) *Log {
	return &Log{job: job, lines: lines, out: out}
}

// Out exposes the sink's writer so callers can interleave status output
// with diagnostics.
func (l *Log) Out() io.Writer {
	return l.out
}

// message prints the offending line with a caret underline, preceded by
// the previous line when it exists and is non-empty.
func (l *Log) message(lvl, msg, hint string, tok *Token) {
	fmt.Fprintf(l.out, "%s: %s\n", diagLabelStyle.Render(lvl), msg)
	if tok.Line != 1 && tok.Line-2 < len(l.lines) {
		preln := l.lines[tok.Line-2]
		if preln != "" {
			fmt.Fprintf(l.out, "%s\n", diagLineStyle.Render(fmt.Sprintf("%4d | %s", tok.Line-1, preln)))
		}
	}
	fmt.Fprintf(l.out, "%4d | %s\n", tok.Line, l.lines[tok.Line-1])
	fmt.Fprintf(l.out, "     |%s%s\n",
		strings.Repeat(" ", 1+tok.Val.Lptr),
		diagCaretStyle.Render(strings.Repeat("^", tok.Val.Rptr-tok.Val.Lptr+1)))
	fmt.Fprintf(l.out, "%s: %s\n\n", diagHintStyle.Render("hint"), hint)
}

// HasErr reports whether any diagnostic has been recorded.
func (l *Log) HasErr() bool {
	return l.errCount > 0
}

// Error records a recoverable diagnostic anchored at tok.
func (l *Log) Error(msg, hint string, tok *Token) {
	l.message("error", msg, hint, tok)
	l.errCount++
}

// Terminal records a diagnostic and unwinds to the nearest Guard.
func (l *Log) Terminal(msg, hint string, tok *Token) {
	l.message("error", msg, hint, tok)
	l.errCount++
	panic(bail{})
}

// SysTerminal records a diagnostic with no source anchor and unwinds to
// the nearest Guard.
func (l *Log) SysTerminal(msg string) {
	fmt.Fprintf(l.out, "%s: %s\n", diagLabelStyle.Render("error"), msg)
	l.errCount++
	panic(bail{})
}

// Guard runs fn, intercepting terminal diagnostics. It reports whether fn
// ran to completion. Panics other than the diagnostic sentinel propagate.
func (l *Log) Guard(fn func()) (completed bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, isBail := r.(bail); !isBail {
				panic(r)
			}
		}
	}()
	fn()
	return true
}

// Conclude prints the run trailer and returns the process exit code.
func (l *Log) Conclude() int {
	if l.errCount == 0 {
		fmt.Fprintf(l.out, "\n[%s] success\n", l.job)
		return 0
	}
	fmt.Fprintf(l.out, "\n[%s] failed\n", l.job)
	return 1
}
