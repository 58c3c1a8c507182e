// Package cli holds the terminal styling shared by voxrisk commands.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

const appTitle = "Voxrisk 🗣"

var (
	violet = lipgloss.Color("#6A3FA0")
	amber  = lipgloss.Color("#FFA500")
	grey   = lipgloss.Color("#888888")
	white  = lipgloss.Color("#FFFFFF")
	red    = lipgloss.Color("#D7263D")
	green  = lipgloss.Color("#00AA00")
	teal   = lipgloss.Color("#00AAAA")
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(violet)
	SectionStyle = lipgloss.NewStyle().Bold(true).Foreground(amber)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(red)
	WarningStyle = lipgloss.NewStyle().Italic(true).Foreground(amber)
	KeyStyle     = lipgloss.NewStyle().Foreground(grey)
	ValueStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
)

// keyWidth aligns PrintKeyValue values
const keyWidth = 16

// PrintVersion prints the application title and version
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render(appTitle))
	PrintKeyValue("Version", version)
}

// PrintError prints an error message to stderr
func PrintError(message string) {
	fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), message)
}

// PrintSection prints a section heading preceded by a blank line
func PrintSection(title string) {
	fmt.Println()
	fmt.Println(SectionStyle.Render(title))
}

// PrintKeyValue prints one aligned "key: value" line
func PrintKeyValue(key, value string) {
	fmt.Println(KeyValue(key, value))
}

// KeyValue renders one aligned "key: value" line
func KeyValue(key, value string) string {
	return KeyStyle.Render(fmt.Sprintf("%-*s", keyWidth, key+":")) + " " + ValueStyle.Render(value)
}

// PrintNote writes a highlighted caveat to w
func PrintNote(w io.Writer, note string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, WarningStyle.Render("Note: "+note))
}
