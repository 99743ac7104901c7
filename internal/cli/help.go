package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

// Custom help styles - fire theme
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(FireYellow).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(FireOrange).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(FireOrange).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(FireYellow).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(FireRed).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(WarmGray).
				Italic(true)
)

// StyledHelpPrinter creates a custom help printer with Lipgloss styling.
// Flags are listed under their kong group title, ungrouped flags last.
func StyledHelpPrinter(options kong.HelpOptions) kong.HelpPrinter {
	return kong.HelpPrinter(func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		sb.WriteString(helpTitleStyle.Render(AppTitle))
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render(AppDescription))
		sb.WriteString("\n")

		section := func(title string) {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render(title + ":"))
			sb.WriteString("\n")
		}

		section("Usage")
		fmt.Fprintf(&sb, "  %s <audio> <cover> [<output>] [flags]\n", ctx.Model.Name)

		if args := ctx.Model.Node.Positional; len(args) > 0 {
			section("Arguments")
			for _, arg := range args {
				fmt.Fprintf(&sb, "  %s  %s\n", helpArgStyle.Render(arg.Summary()), arg.Help)
			}
		}

		for _, g := range groupFlags(ctx) {
			section(g.title)
			for _, f := range g.flags {
				sb.WriteString("  ")
				sb.WriteString(helpFlagStyle.Render(f.flags))
				if f.help != "" {
					sb.WriteString("  ")
					sb.WriteString(f.help)
				}
				if f.defaultVal != "" {
					sb.WriteString(" ")
					sb.WriteString(helpDefaultStyle.Render("(default: " + f.defaultVal + ")"))
				}
				sb.WriteString("\n")
			}
		}

		section("Examples")
		for _, ex := range examples {
			fmt.Fprintf(&sb, "  "+ex.cmd+"\n", ctx.Model.Name)
			sb.WriteString("    ")
			sb.WriteString(helpDefaultStyle.Render(ex.note))
			sb.WriteString("\n")
		}

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	})
}

var examples = []struct {
	cmd  string
	note string
}{
	{"%s song.mp3 cover.jpg", "7 second canvas written to song.mp4"},
	{"%s song.flac cover.png canvas.mp4 --duration 9 --intensity 1.5", "longer, livelier canvas"},
	{"%s song.wav cover.webp --seed 42 --title \"Song Title\"", "reproducible particles plus a captioned poster"},
}

type flag struct {
	flags      string
	help       string
	defaultVal string
}

type flagGroup struct {
	title string
	flags []flag
}

// groupFlags collects the visible flags in declaration order, bucketed by
// group. The help flag always leads the ungrouped "Flags" section.
func groupFlags(ctx *kong.Context) []flagGroup {
	general := flagGroup{
		title: "Flags",
		flags: []flag{{flags: "-h, --help", help: "Show context-sensitive help."}},
	}

	var groups []flagGroup
	index := map[string]int{}

	for _, f := range ctx.Model.Node.Flags {
		if f.Name == "help" || f.Hidden {
			continue
		}

		if f.Group == nil {
			general.flags = append(general.flags, describeFlag(f))
			continue
		}
		i, ok := index[f.Group.Key]
		if !ok {
			i = len(groups)
			index[f.Group.Key] = i
			groups = append(groups, flagGroup{title: f.Group.Title})
		}
		groups[i].flags = append(groups[i].flags, describeFlag(f))
	}

	return append(groups, general)
}

func describeFlag(f *kong.Flag) flag {
	flagStr := "--" + f.Name
	if f.Short != 0 {
		flagStr = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
	}
	if !f.IsBool() && f.PlaceHolder != "" {
		flagStr += "=" + strings.ToUpper(f.PlaceHolder)
	}

	// Only show meaningful defaults, not type placeholders
	defaultVal := ""
	if f.HasDefault && !f.IsBool() && f.Default != "" && f.Default != "STRING" && f.Default != "BOOL" {
		defaultVal = f.Default
	}

	return flag{flags: flagStr, help: f.Help, defaultVal: defaultVal}
}
