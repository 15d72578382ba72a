package flow

import "github.com/charmbracelet/lipgloss"

// Stage status labels. The bracketed text is part of the output contract;
// styling degrades to plain text off-terminal.
var (
	styleExecute = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	styleRunning = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	styleIgnore  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	styleDone    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func labelExecute() string { return styleExecute.Render("[Execute]") }
func labelRunning() string { return styleRunning.Render("[Running]") }
func labelIgnore() string  { return styleIgnore.Render("[ Ignore]") }
func labelDone() string    { return styleDone.Render("[   Done]") }
