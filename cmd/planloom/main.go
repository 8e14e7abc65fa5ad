package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshharrison/planloom/internal/calendar"
	"github.com/joshharrison/planloom/internal/config"
	"github.com/joshharrison/planloom/internal/document"
	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/reporter"
	"github.com/joshharrison/planloom/internal/state"
	"github.com/joshharrison/planloom/internal/ui"
	"github.com/joshharrison/planloom/internal/viewer"
	"github.com/joshharrison/planloom/internal/workbench"
)

var (
	flagFile   string
	flagConfig string
	flagJSON   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "planloom",
		Short: "Plan tasks and resources on a day grid",
		Long: `Planloom keeps a project of tasks laid out on rows and days, with
resources, capacities and dependency links, in a single JSON document.
It resolves overlaps when tasks move, keeps calendar dates when the
start date changes, and computes the critical path of any selection.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&flagFile, "file", "f", document.DefaultName, "Project document")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/planloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")

	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(depCmd())
	rootCmd.AddCommand(resourceCmd())
	rootCmd.AddCommand(tagCmd())
	rootCmd.AddCommand(filterCmd())
	rootCmd.AddCommand(windowCmd())
	rootCmd.AddCommand(shiftStartCmd())
	rootCmd.AddCommand(criticalCmd())
	rootCmd.AddCommand(cycleCmd())
	rootCmd.AddCommand(loadingCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(viewCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is what every command works on: config, logger, the open project and
// its saved session.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	wb     *workbench.Workbench
	store  *state.Store
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// openApp loads config and the project document, then restores the saved
// filters for it.
func openApp() (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	wb, err := workbench.Open(flagFile, workbench.WithLogger(logger))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no project at %s (run 'planloom init' first)", flagFile)
	}
	if err != nil {
		return nil, err
	}

	store, err := state.Open(flagFile)
	if err != nil {
		return nil, err
	}
	sess := store.Get(flagFile)
	if err := wb.SetFilters(sess.Filters); err != nil {
		logger.Warn("ignoring saved filters", "error", err)
	}
	return &app{cfg: cfg, logger: logger, wb: wb, store: store}, nil
}

// save writes the project if anything changed.
func (a *app) save() error {
	if !a.wb.Dirty() {
		return nil
	}
	return a.wb.Save()
}

// saveSession records the current filters and prunes stale ids.
func (a *app) saveSession(fn func(*state.Session)) error {
	return a.store.Update(flagFile, time.Now(), func(ss *state.Session) {
		ss.Filters = a.wb.Filters()
		if fn != nil {
			fn(ss)
		}
		ss.PruneSelection(func(id int) bool {
			_, err := a.wb.Task(id)
			return err == nil
		})
	})
}

// mutating wraps a command that changes the project: open, run, save.
func mutating(run func(a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		if err := run(a, args); err != nil {
			return err
		}
		return a.save()
	}
}

func initCmd() *cobra.Command {
	var (
		flagDays  int
		flagRows  int
		flagStart string
		flagForce bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new empty project document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(flagFile); err == nil && !flagForce {
				return fmt.Errorf("%s already exists (use --force to overwrite)", flagFile)
			}

			cfg, err := config.Load(flagConfig)
			if err != nil {
				return err
			}
			win := cfg.Window(model.Window{})
			if cmd.Flags().Changed("days") {
				win.Days = flagDays
			}
			if cmd.Flags().Changed("rows") {
				win.MaxRows = flagRows
			}
			if flagStart != "" {
				if win.StartDate, err = calendar.ParseDate(flagStart); err != nil {
					return err
				}
			}

			wb, err := workbench.New(win, workbench.WithLogger(newLogger(cfg)))
			if err != nil {
				return err
			}
			if err := wb.SaveAs(flagFile); err != nil {
				return err
			}
			if err := state.Clean(flagFile); err != nil {
				return err
			}

			if flagJSON {
				return outputJSON(wb.Window())
			}
			ui.PrintLogo(os.Stdout)
			w := wb.Window()
			fmt.Printf("✅ Created %s: %d days from %s, %d rows\n",
				ui.Bold(flagFile), w.Days, calendar.FormatDate(w.StartDate), w.MaxRows)
			return nil
		},
	}

	cmd.Flags().IntVar(&flagDays, "days", model.DefaultDays, "Timeline length in days")
	cmd.Flags().IntVar(&flagRows, "rows", model.DefaultMaxRows, "Number of rows")
	cmd.Flags().StringVar(&flagStart, "start", "", "Start date YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&flagForce, "force", false, "Overwrite an existing document")

	return cmd
}

func windowCmd() *cobra.Command {
	var (
		flagDays    int
		flagRows    int
		flagSetDate string
	)

	cmd := &cobra.Command{
		Use:   "window",
		Short: "Show or change timeline length, rows and the setdate",
		RunE: mutating(func(a *app, args []string) error {
			w := a.wb.Window()
			days, rows, setDate := w.Days, w.MaxRows, w.SetDate
			changed := false
			if flagDays > 0 {
				days, changed = flagDays, true
			}
			if flagRows > 0 {
				rows, changed = flagRows, true
			}
			if flagSetDate != "" {
				d, err := calendar.ParseDate(flagSetDate)
				if err != nil {
					return err
				}
				setDate, changed = d, true
			}
			if changed {
				if err := a.wb.UpdateWindow(days, rows, setDate); err != nil {
					return err
				}
				w = a.wb.Window()
			}

			if flagJSON {
				return outputJSON(w)
			}
			cal := w.Calendar()
			fmt.Printf("%s %s → %s (%d days), %d rows, setdate %s\n",
				ui.BoldCyan("Window:"),
				calendar.FormatDate(w.StartDate), calendar.FormatDate(cal.DateOfDay(w.Days-1)),
				w.Days, w.MaxRows, calendar.FormatDate(w.SetDate))
			return nil
		}),
	}

	cmd.Flags().IntVar(&flagDays, "days", 0, "New timeline length")
	cmd.Flags().IntVar(&flagRows, "rows", 0, "New number of rows")
	cmd.Flags().StringVar(&flagSetDate, "setdate", "", "New setdate YYYY-MM-DD")

	return cmd
}

func shiftStartCmd() *cobra.Command {
	var (
		flagNoShift     bool
		flagOverflow    string
		flagUnreachable string
	)

	cmd := &cobra.Command{
		Use:   "shift-start DATE",
		Short: "Move the project start date, keeping task dates",
		Long: `Moves day 0 to DATE. Tasks and capacities keep their calendar dates,
so their columns move the other way. Tasks that would start outside the
timeline can be deleted; tasks that would run past its end can be
truncated or deleted. Any refusal rolls the whole change back.

With --no-shift only the start date changes and tasks keep their columns.`,
		Args: cobra.ExactArgs(1),
		RunE: mutating(func(a *app, args []string) error {
			newStart, err := calendar.ParseDate(args[0])
			if err != nil {
				return err
			}
			if flagOverflow != "" {
				a.cfg.Shift.Overflow = flagOverflow
			}
			if flagUnreachable != "" {
				a.cfg.Shift.Unreachable = flagUnreachable
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}

			report, err := a.wb.ChangeStartDate(newStart, !flagNoShift, newPrompter(a.cfg.Shift, stdinIsTerminal()))
			if errors.Is(err, model.ErrUserAborted) {
				fmt.Fprintf(os.Stderr, "🛑 %s\n", ui.Yellow("Shift aborted, nothing changed."))
				return err
			}
			if err != nil {
				return err
			}

			if flagJSON {
				return outputJSON(report)
			}
			fmt.Printf("📅 %s %s (%+d days)\n", ui.BoldCyan("Start date:"), calendar.FormatDate(newStart), report.Delta)
			if len(report.Moved) > 0 {
				fmt.Printf("  moved:     %v\n", report.Moved)
			}
			if len(report.Truncated) > 0 {
				fmt.Printf("  %s %v\n", ui.Yellow("truncated:"), report.Truncated)
			}
			if len(report.Deleted) > 0 {
				fmt.Printf("  %s   %v\n", ui.Red("deleted:"), report.Deleted)
			}
			return a.saveSession(nil)
		}),
	}

	cmd.Flags().BoolVar(&flagNoShift, "no-shift", false, "Change the start date only")
	cmd.Flags().StringVar(&flagOverflow, "overflow", "", "Tasks past the end: ask, truncate, delete or abort")
	cmd.Flags().StringVar(&flagUnreachable, "unreachable", "", "Tasks outside the timeline: ask, delete or abort")

	return cmd
}

func criticalCmd() *cobra.Command {
	var flagTag bool

	cmd := &cobra.Command{
		Use:   "critical [ID...]",
		Short: "Compute the critical path of the given or visible tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				ids = a.store.Get(flagFile).Selection
			}

			result, err := a.wb.CriticalPath(ids)
			if err != nil {
				if errors.Is(err, model.ErrCycleDetected) {
					if cycle := a.wb.FindCycle(); cycle != nil {
						fmt.Fprintf(os.Stderr, "🔁 %s %v\n", ui.Red("Cycle:"), cycle)
					}
				}
				return err
			}

			if flagTag {
				if err := a.wb.TagCriticalPath(result.CriticalPath); err != nil {
					return err
				}
				if err := a.save(); err != nil {
					return err
				}
			}
			if err := a.saveSession(func(ss *state.Session) {
				ss.Selection = ids
				ss.CriticalPath = result.CriticalPath
			}); err != nil {
				return err
			}

			if flagJSON {
				return outputJSON(result)
			}
			reporter.New(a.wb.Snapshot(), result).PrintCritical(os.Stdout)
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagTag, "tag", false, "Tag the critical tasks with CriticalPath")

	return cmd
}

func cycleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycle",
		Short: "Report a dependency cycle, if any",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			cycle := a.wb.FindCycle()
			if flagJSON {
				return outputJSON(map[string][]int{"cycle": cycle})
			}
			if cycle == nil {
				fmt.Printf("✅ %s\n", ui.Green("No dependency cycles"))
				return nil
			}
			fmt.Printf("🔁 %s", ui.Red("Cycle:"))
			for _, id := range cycle {
				fmt.Printf(" %s", ui.TaskPrefix(id))
			}
			fmt.Println()
			return nil
		},
	}
}

func loadingCmd() *cobra.Command {
	var flagDays int

	cmd := &cobra.Command{
		Use:   "loading",
		Short: "Show resource loading against capacity",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			rpt := reporter.New(a.wb.Snapshot(), nil)
			if flagJSON {
				data, err := rpt.JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			rpt.MaxDays = flagDays
			rpt.PrintLoading(os.Stdout)
			return nil
		},
	}

	cmd.Flags().IntVar(&flagDays, "days", 0, "Only show the first N days")

	return cmd
}

func reportCmd() *cobra.Command {
	var (
		flagWatch bool
		flagDays  int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show tasks, resource loading and the critical path",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}

			build := func() *reporter.Reporter {
				crit, err := a.wb.CriticalPath(a.store.Get(flagFile).Selection)
				if err != nil {
					a.logger.Debug("report without critical path", "error", err)
				}
				rpt := reporter.New(a.wb.Snapshot(), crit)
				rpt.MaxDays = flagDays
				return rpt
			}

			rpt := build()
			if flagJSON {
				data, err := rpt.JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			if !flagWatch {
				rpt.PrintSummaryReport(os.Stdout)
				return nil
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			redraw := func() {
				fmt.Print("\033[2J\033[H") // clear screen
				build().PrintSummaryReport(os.Stdout)
				fmt.Printf("%s\n", ui.Dim("watching "+flagFile+", ctrl-c to stop"))
			}
			redraw()
			return document.Watch(ctx, flagFile, document.DefaultDebounce, a.logger, func() {
				if err := a.wb.Load(flagFile); err != nil {
					a.logger.Warn("reload failed, keeping previous project", "error", err)
					return
				}
				redraw()
			})
		},
	}

	cmd.Flags().BoolVar(&flagWatch, "watch", false, "Redraw when the document changes")
	cmd.Flags().IntVar(&flagDays, "days", 0, "Only show the first N days of loading")

	return cmd
}

func viewCmd() *cobra.Command {
	var (
		flagPort   int
		flagNoOpen bool
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Serve the project as JSON over HTTP",
		Long: `Starts a read-only HTTP viewer for the project document and keeps it in
sync with the file on disk. Endpoints: /project, /loading,
/critical?ids=1,2,3, /tags and /cycle.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			port := a.cfg.Viewer.Port
			if cmd.Flags().Changed("port") {
				port = flagPort
			}
			if viewer.IsPortOpen(fmt.Sprintf("localhost:%d", port)) {
				return fmt.Errorf("port %d is already in use", port)
			}

			addr, srv, err := viewer.Start(a.wb, port, a.logger)
			if err != nil {
				return err
			}
			fmt.Printf("🖥️  Viewer on %s\n", ui.Bold(addr))
			if !flagNoOpen {
				openBrowser(addr + "/project")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			err = document.Watch(ctx, flagFile, document.DefaultDebounce, a.logger, func() {
				if err := a.wb.Load(flagFile); err != nil {
					a.logger.Warn("reload failed, keeping previous project", "error", err)
					return
				}
				a.logger.Info("viewer reloaded", "path", flagFile)
			})

			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			if serr := srv.Shutdown(shutdownCtx); serr != nil {
				a.logger.Warn("viewer shutdown", "error", serr)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&flagPort, "port", 7171, "Viewer port (default from config)")
	cmd.Flags().BoolVar(&flagNoOpen, "no-open", false, "Skip opening browser")

	return cmd
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		cmd = exec.Command("cmd", "/c", "start", url)
	}
	cmd.Start()
}

// --- Output helpers ---

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, s := range args {
		id, err := parseID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
