package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pipebuilder/pkg/registry"
	"github.com/matzehuels/pipebuilder/pkg/submit"
)

var (
	colorCyan   = lipgloss.Color("36")  // primary actions
	colorGreen  = lipgloss.Color("35")  // success
	colorYellow = lipgloss.Color("220") // warnings
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // commands
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // secondary text
	colorDim    = lipgloss.Color("240") // muted text
)

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printNotice prints a submission notice with its tone's icon.
func printNotice(n submit.Notice) {
	if n.IsZero() {
		return
	}
	switch n.Tone {
	case submit.ToneSuccess:
		printSuccess("%s", n.Text)
	case submit.ToneWarn:
		printWarning("%s", n.Text)
	case submit.ToneError:
		printError("%s", n.Text)
	default:
		printInfo("%s", n.Text)
	}
}

// noticeStyle colors a notice for the terminal editor.
func noticeStyle(t submit.Tone) lipgloss.Style {
	switch t {
	case submit.ToneSuccess:
		return StyleSuccess
	case submit.ToneWarn:
		return StyleWarning
	case submit.ToneError:
		return lipgloss.NewStyle().Foreground(colorRed)
	default:
		return StyleValue
	}
}

// printStats prints pipeline statistics on a single line.
func printStats(nodeCount, edgeCount int, cached bool) {
	parts := []string{
		fmt.Sprintf("%d nodes", nodeCount),
		fmt.Sprintf("%d edges", edgeCount),
	}
	if cached {
		parts = append(parts, styleCached.Render(iconCached))
	} else {
		parts = append(parts, styleComputed.Render(iconFresh))
	}
	fmt.Println("  " + StyleDim.Render(strings.Join(parts, " · ")))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// paletteTable renders the registry palette with each kind's accent.
func paletteTable(reg *registry.Registry) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	kinds := reg.Kinds()

	rows := make([][]string, 0, len(kinds))
	for _, kind := range kinds {
		t, _ := reg.TemplateOf(kind)
		rows = append(rows, []string{
			t.Icon,
			kind,
			t.Title,
			portNames(t.Inputs),
			portNames(t.Outputs),
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Kind", "Title", "Inputs", "Outputs").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 1 && row >= 0 && row < len(kinds) {
				t, _ := reg.TemplateOf(kinds[row])
				if t.Accent != "" {
					return lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)).Bold(true)
				}
			}
			if col >= 3 {
				return lipgloss.NewStyle().Foreground(colorGray)
			}
			return lipgloss.NewStyle()
		}).
		Render()
}

func portNames(ports []registry.Port) string {
	if len(ports) == 0 {
		return "—"
	}
	ids := make([]string, len(ports))
	for i, p := range ports {
		ids[i] = p.ID
	}
	return strings.Join(ids, ", ")
}
