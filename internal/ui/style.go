package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/joshharrison/planloom/internal/model"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintLogo renders the colored planloom logo.
func PrintLogo(w io.Writer) {
	frame := color.New(color.FgCyan)
	bars := color.New(color.FgYellow)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +--------------------------+")
	bars.Fprintln(w, "   |  ====                    |")
	bars.Fprintln(w, "   |      ========            |")
	bars.Fprintln(w, "   |          ======  ====    |")
	brand.Fprintln(w, "   |  P  L  A  N  L  O  O  M  |")
	frame.Fprintln(w, "   +--------------------------+")
	tag.Fprintln(w, "   tasks, resources and the critical path")
	fmt.Fprintln(w)
}

// taskColors is a set of distinct bold colors for telling tasks apart.
var taskColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// TaskPrefix returns a colored #id label. Each id keeps its color.
func TaskPrefix(id int) string {
	c := taskColors[id%len(taskColors)]
	return Dim("[") + c(fmt.Sprintf("#%d", id)) + Dim("]")
}

// CriticalMark flags critical tasks in tables.
func CriticalMark(critical bool) string {
	if critical {
		return BoldYellow("⚡")
	}
	return " "
}

// heatLevels shades a day by load relative to capacity.
var heatLevels = []string{"░", "▒", "▓", "█"}

// HeatCell renders one day of a resource loading heatmap: a dot for an idle
// day, a shade for 0-100% of capacity and a red mark for overload. A day
// with no capacity but some load is an overload.
func HeatCell(load, capacity float64) string {
	switch {
	case load <= 0:
		return Dim("·")
	case model.Overloaded(load, capacity):
		return BoldRed("!")
	}
	level := int(load / capacity * float64(len(heatLevels)))
	level = min(max(level, 0), len(heatLevels)-1)
	if load/capacity > 0.9 {
		return Yellow(heatLevels[level])
	}
	return Green(heatLevels[level])
}

// Swatch renders a two-cell block in a palette color. Unknown names render
// blank.
func Swatch(name string) string {
	hex, ok := model.ColorHex(name)
	if !ok {
		return "  "
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  ")
}

// Overload colors a utilization figure by severity.
func Overload(load, capacity float64) string {
	s := fmt.Sprintf("%.2f/%.2f", load, capacity)
	switch {
	case model.Overloaded(load, capacity):
		return Red(s)
	case load > 0 && !model.Overloaded(capacity, load):
		return Yellow(s)
	default:
		return s
	}
}
