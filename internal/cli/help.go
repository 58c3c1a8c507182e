package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

const appDescription = "Speech-based Parkinsonian risk screening"

var (
	helpTermStyle    = lipgloss.NewStyle().Bold(true).Foreground(teal)
	helpFlagStyle    = lipgloss.NewStyle().Bold(true).Foreground(green)
	helpDefaultStyle = lipgloss.NewStyle().Italic(true).Foreground(grey)
	helpDescStyle    = lipgloss.NewStyle().Italic(true).Foreground(amber)
)

// helpEntry is one line of a help section
type helpEntry struct {
	term       string
	help       string
	defaultVal string
}

// helpSection is a titled, aligned list of entries
type helpSection struct {
	title   string
	style   lipgloss.Style
	entries []helpEntry
}

func (s helpSection) write(w io.Writer) {
	if len(s.entries) == 0 {
		return
	}
	width := 0
	for _, e := range s.entries {
		width = max(width, len(e.term))
	}

	fmt.Fprintf(w, "\n%s\n", SectionStyle.Render(s.title+":"))
	for _, e := range s.entries {
		line := "  " + s.style.Render(fmt.Sprintf("%-*s", width, e.term))
		if e.help != "" {
			line += "  " + e.help
		}
		if e.defaultVal != "" {
			line += " " + helpDefaultStyle.Render("(default: "+e.defaultVal+")")
		}
		fmt.Fprintln(w, line)
	}
}

// StyledHelpPrinter renders kong help with lipgloss styling. A selected
// command shows its own arguments and flags after the global flags.
func StyledHelpPrinter(options kong.HelpOptions) func(options kong.HelpOptions, ctx *kong.Context) error {
	return func(_ kong.HelpOptions, ctx *kong.Context) error {
		root := ctx.Model.Node
		node := root
		if selected := ctx.Selected(); selected != nil {
			node = selected
		}
		writeHelp(ctx.Stdout, ctx.Model.Name, root, node)
		return nil
	}
}

func writeHelp(w io.Writer, appName string, root, node *kong.Node) {
	desc := appDescription
	if node != root && node.Help != "" {
		desc = node.Help
	}

	fmt.Fprintln(w, TitleStyle.Render(appTitle))
	fmt.Fprintln(w, helpDescStyle.Render(desc))
	fmt.Fprintf(w, "\n%s\n  %s\n", SectionStyle.Render("Usage:"), usageLine(appName, root, node))

	helpSection{title: "Commands", style: helpTermStyle, entries: commandEntries(node)}.write(w)
	helpSection{title: "Arguments", style: helpTermStyle, entries: argumentEntries(node)}.write(w)
	helpSection{title: "Flags", style: helpFlagStyle, entries: flagEntries(root, node)}.write(w)
	fmt.Fprintln(w)
}

func usageLine(appName string, root, node *kong.Node) string {
	if node == root {
		return appName + " <command> [flags]"
	}
	parts := []string{appName, node.Name, "[flags]"}
	for _, arg := range node.Positional {
		parts = append(parts, arg.Summary())
	}
	return strings.Join(parts, " ")
}

func commandEntries(node *kong.Node) []helpEntry {
	var entries []helpEntry
	for _, child := range node.Children {
		if child.Type == kong.CommandNode && !child.Hidden {
			entries = append(entries, helpEntry{term: child.Name, help: child.Help})
		}
	}
	return entries
}

func argumentEntries(node *kong.Node) []helpEntry {
	entries := make([]helpEntry, 0, len(node.Positional))
	for _, arg := range node.Positional {
		entries = append(entries, helpEntry{term: arg.Summary(), help: arg.Help})
	}
	return entries
}

// flagEntries lists help, the global flags, then the selected command's flags
func flagEntries(root, node *kong.Node) []helpEntry {
	entries := []helpEntry{{term: "-h, --help", help: "Show context-sensitive help."}}

	nodes := []*kong.Node{root}
	if node != root {
		nodes = append(nodes, node)
	}
	for _, n := range nodes {
		for _, f := range n.Flags {
			if f.Name == "help" || f.Hidden {
				continue
			}
			term := "--" + f.Name
			if f.Short != 0 {
				term = fmt.Sprintf("-%c, %s", f.Short, term)
			}
			if !f.IsBool() && f.PlaceHolder != "" {
				term += "=" + strings.ToUpper(f.PlaceHolder)
			}
			entries = append(entries, helpEntry{term: term, help: f.Help, defaultVal: f.Default})
		}
	}
	return entries
}
