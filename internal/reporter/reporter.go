// Package reporter renders a project snapshot as terminal text or JSON:
// a task table, a resource loading heatmap under month headers and the
// critical path. Rendering never touches the model.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/joshharrison/planloom/internal/calendar"
	"github.com/joshharrison/planloom/internal/cpm"
	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/ui"
	"github.com/joshharrison/planloom/internal/workbench"
)

// Reporter renders one snapshot, optionally with a critical path analysis.
type Reporter struct {
	Snap     workbench.Snapshot
	Critical *cpm.CPMResult
	MaxDays  int // heatmap width; 0 shows the whole timeline
}

// New creates a new Reporter. critical may be nil.
func New(snap workbench.Snapshot, critical *cpm.CPMResult) *Reporter {
	return &Reporter{Snap: snap, Critical: critical}
}

func (r *Reporter) cal() calendar.Calendar {
	return r.Snap.Window.Calendar()
}

func (r *Reporter) isCritical(id int) bool {
	if r.Critical.Empty() {
		return false
	}
	ts, ok := r.Critical.Tasks[id]
	return ok && ts.IsCritical
}

// PrintHeader writes the project line.
func (r *Reporter) PrintHeader(w io.Writer) {
	win := r.Snap.Window
	cal := r.cal()
	fmt.Fprintf(w, "%s %s → %s  (%d days, %d rows)  %d tasks, %d resources",
		ui.BoldCyan("▦ Planloom"),
		calendar.FormatDate(win.StartDate),
		calendar.FormatDate(cal.DateOfDay(win.Days-1)),
		win.Days, win.MaxRows,
		len(r.Snap.Tasks), len(r.Snap.Resources))
	if f := r.Snap.Filters; f.Active() {
		fmt.Fprintf(w, " %s", ui.Dim(fmt.Sprintf("[filtered: tasks %v, resources %v]", f.TaskTags, f.ResourceTags)))
	}
	fmt.Fprintf(w, "\n%s\n\n", ui.Dim("today: "+calendar.FormatDate(win.SetDate)))
}

// PrintTasks writes the task table.
func (r *Reporter) PrintTasks(w io.Writer) {
	cal := r.cal()
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Faint(true)).
		Headers("ID", "", "ROW", "START", "FINISH", "DAYS", "TAGS", "DESCRIPTION", "")

	for _, task := range r.Snap.Tasks {
		desc := task.Description
		if len(desc) > 40 {
			desc = desc[:37] + "..."
		}
		t.Row(
			fmt.Sprintf("#%d", task.ID),
			ui.Swatch(task.Color),
			fmt.Sprint(task.Row),
			calendar.FormatDate(cal.DateOfDay(task.Col)),
			calendar.FormatDate(cal.DateOfDay(task.End()-1)),
			fmt.Sprint(task.Duration),
			strings.Join(task.Tags, ","),
			desc,
			ui.CriticalMark(r.isCritical(task.ID)),
		)
	}
	fmt.Fprintln(w, t.String())
}

// PrintLoading writes one heatmap row per resource under month headers.
func (r *Reporter) PrintLoading(w io.Writer) {
	days := r.Snap.Window.Days
	if r.MaxDays > 0 && r.MaxDays < days {
		days = r.MaxDays
	}

	nameWidth := 8
	for _, res := range r.Snap.Resources {
		nameWidth = max(nameWidth, len(res.Name))
	}

	var header strings.Builder
	for _, mr := range r.Snap.Months {
		if mr.Start >= days {
			break
		}
		width := min(mr.End, days-1) - mr.Start + 1
		label := mr.Label
		if len(label) > width {
			label = label[:width]
		}
		header.WriteString(label + strings.Repeat(" ", width-len(label)))
	}
	fmt.Fprintf(w, "%-*s %s\n", nameWidth, "", ui.Bold(header.String()))

	for _, res := range r.Snap.Resources {
		load := r.Snap.Loading[res.ID]
		var row strings.Builder
		for k := 0; k < days; k++ {
			var l float64
			if k < len(load) {
				l = load[k]
			}
			row.WriteString(ui.HeatCell(l, res.Capacity[k]))
		}
		fmt.Fprintf(w, "%-*s %s", nameWidth, res.Name, row.String())
		if over := overloadedDays(load, res.Capacity); len(over) > 0 {
			fmt.Fprintf(w, " %s", ui.Red(fmt.Sprintf("%d overloaded", len(over))))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}

// PrintCritical writes the critical path with per-task dates and float.
func (r *Reporter) PrintCritical(w io.Writer) {
	if r.Critical.Empty() {
		fmt.Fprintf(w, "%s\n", ui.Dim("no critical path"))
		return
	}
	labels := make([]string, len(r.Critical.CriticalPath))
	for i, id := range r.Critical.CriticalPath {
		labels[i] = fmt.Sprintf("#%d", id)
	}
	fmt.Fprintf(w, "%s %s  %s\n",
		ui.BoldYellow("⚡ Critical:"),
		strings.Join(labels, " → "),
		ui.Bold(fmt.Sprintf("%d days", r.Critical.TotalDuration)))

	for _, id := range r.Critical.TopoOrder {
		ts := r.Critical.Tasks[id]
		fmt.Fprintf(w, "    %s %s %s → %s  late %s → %s  float %d\n",
			ui.CriticalMark(ts.IsCritical),
			ui.TaskPrefix(id),
			calendar.FormatDate(ts.EarlyStartDate),
			calendar.FormatDate(ts.EarlyFinishDate),
			calendar.FormatDate(ts.LateStartDate),
			calendar.FormatDate(ts.LateFinishDate),
			ts.Slack)
	}
	fmt.Fprintln(w)
}

// PrintWaves writes the analysed tasks grouped by early start.
func (r *Reporter) PrintWaves(w io.Writer) {
	if r.Critical.Empty() {
		return
	}
	for _, wave := range r.Critical.Waves {
		marker := ""
		if wave.IsCritical {
			marker = " " + ui.CriticalMark(true)
		}
		var start string
		if len(wave.TaskIDs) > 0 {
			start = calendar.FormatDate(r.Critical.Tasks[wave.TaskIDs[0]].EarlyStartDate)
		}
		fmt.Fprintf(w, "  🌊 %s %d %s%s:", ui.BoldWhite("Wave"), wave.Index+1, ui.Dim(start), marker)
		for _, id := range wave.TaskIDs {
			fmt.Fprintf(w, " %s", ui.TaskPrefix(id))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}

// PrintSummaryReport writes every section. The output is also returned as
// a string for reuse.
func (r *Reporter) PrintSummaryReport(w io.Writer) string {
	var b strings.Builder
	mw := io.MultiWriter(w, &b)

	r.PrintHeader(mw)
	r.PrintTasks(mw)
	fmt.Fprintln(mw)
	if len(r.Snap.Resources) > 0 {
		r.PrintLoading(mw)
	}
	if r.Critical != nil {
		r.PrintCritical(mw)
		r.PrintWaves(mw)
	}
	return b.String()
}

// JSON returns the snapshot and analysis in machine-readable form.
func (r *Reporter) JSON() ([]byte, error) {
	type resourceLoad struct {
		ID         int       `json:"id"`
		Name       string    `json:"name"`
		Load       []float64 `json:"load"`
		Capacity   []float64 `json:"capacity"`
		Overloaded []int     `json:"overloaded_days"`
	}
	type output struct {
		StartDate string                `json:"start_date"`
		SetDate   string                `json:"setdate"`
		Days      int                   `json:"days"`
		MaxRows   int                   `json:"max_rows"`
		Months    []calendar.MonthRange `json:"months"`
		Tasks     []model.Task          `json:"tasks"`
		Resources []resourceLoad        `json:"resources"`
		Tags      []string              `json:"tags"`
		Critical  *cpm.CPMResult        `json:"critical,omitempty"`
	}

	win := r.Snap.Window
	o := output{
		StartDate: calendar.FormatDate(win.StartDate),
		SetDate:   calendar.FormatDate(win.SetDate),
		Days:      win.Days,
		MaxRows:   win.MaxRows,
		Months:    r.Snap.Months,
		Tasks:     r.Snap.Tasks,
		Resources: []resourceLoad{},
		Tags:      r.Snap.Tags,
		Critical:  r.Critical,
	}
	for _, res := range r.Snap.Resources {
		load := r.Snap.Loading[res.ID]
		o.Resources = append(o.Resources, resourceLoad{
			ID:         res.ID,
			Name:       res.Name,
			Load:       load,
			Capacity:   res.Capacity,
			Overloaded: overloadedDays(load, res.Capacity),
		})
	}
	return json.MarshalIndent(o, "", "  ")
}

func overloadedDays(load, capacity []float64) []int {
	var out []int
	for k, l := range load {
		if k < len(capacity) && model.Overloaded(l, capacity[k]) {
			out = append(out, k)
		}
	}
	return out
}
