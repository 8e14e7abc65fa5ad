package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshharrison/planloom/internal/calendar"
	"github.com/joshharrison/planloom/internal/collision"
	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/reporter"
	"github.com/joshharrison/planloom/internal/state"
	"github.com/joshharrison/planloom/internal/ui"
)

func taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Add, move, resize and edit tasks",
	}
	cmd.AddCommand(taskAddCmd())
	cmd.AddCommand(taskUpdateCmd())
	cmd.AddCommand(taskMoveCmd())
	cmd.AddCommand(taskResizeCmd())
	cmd.AddCommand(taskEdgeCmd())
	cmd.AddCommand(taskRemoveCmd())
	cmd.AddCommand(taskListCmd())
	cmd.AddCommand(taskSelectCmd())
	return cmd
}

func taskAddCmd() *cobra.Command {
	var (
		in        model.TaskInput
		flagStart string
		flagAlloc []string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task",
		RunE: mutating(func(a *app, args []string) error {
			if in.Color == "" {
				in.Color = a.cfg.Defaults.Color
			}
			if flagStart != "" {
				d, err := calendar.ParseDate(flagStart)
				if err != nil {
					return err
				}
				in.Col = a.wb.Window().Calendar().DayOfDate(d)
			}
			alloc, err := parseAllocations(a, flagAlloc)
			if err != nil {
				return err
			}
			in.Resources = alloc

			t, err := a.wb.AddTask(in)
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(t)
			}
			fmt.Printf("➕ %s %s\n", ui.TaskPrefix(t.ID), t.Description)
			return nil
		}),
	}

	cmd.Flags().IntVar(&in.Row, "row", 0, "Row")
	cmd.Flags().IntVar(&in.Col, "col", 0, "First day (index)")
	cmd.Flags().StringVar(&flagStart, "start", "", "First day as YYYY-MM-DD (overrides --col)")
	cmd.Flags().IntVarP(&in.Duration, "duration", "d", 1, "Duration in days")
	cmd.Flags().StringVarP(&in.Description, "desc", "m", "", "Description")
	cmd.Flags().StringVar(&in.URL, "url", "", "Link")
	cmd.Flags().StringVar(&in.Color, "color", "", "Palette color (default from config)")
	cmd.Flags().StringVar(&in.Notes, "notes", "", "Free-form notes")
	cmd.Flags().StringSliceVarP(&in.Tags, "tag", "t", nil, "Tags")
	cmd.Flags().IntSliceVar(&in.Predecessors, "after", nil, "Predecessor task ids")
	cmd.Flags().IntSliceVar(&in.Successors, "before", nil, "Successor task ids")
	cmd.Flags().StringArrayVar(&flagAlloc, "alloc", nil, "Resource allocation RESOURCE=AMOUNT (id or name)")

	return cmd
}

func taskUpdateCmd() *cobra.Command {
	var (
		flagDesc  string
		flagURL   string
		flagColor string
		flagNotes string
		flagAlloc []string
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit task fields without moving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutating(func(a *app, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				var p model.TaskPatch
				if cmd.Flags().Changed("desc") {
					p.Description = &flagDesc
				}
				if cmd.Flags().Changed("url") {
					p.URL = &flagURL
				}
				if cmd.Flags().Changed("color") {
					p.Color = &flagColor
				}
				if cmd.Flags().Changed("notes") {
					p.Notes = &flagNotes
				}
				if cmd.Flags().Changed("alloc") {
					if p.Resources, err = parseAllocations(a, flagAlloc); err != nil {
						return err
					}
				}
				t, err := a.wb.UpdateTask(id, p)
				if err != nil {
					return err
				}
				if flagJSON {
					return outputJSON(t)
				}
				fmt.Printf("✏️  %s %s\n", ui.TaskPrefix(t.ID), t.Description)
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().StringVarP(&flagDesc, "desc", "m", "", "Description")
	cmd.Flags().StringVar(&flagURL, "url", "", "Link")
	cmd.Flags().StringVar(&flagColor, "color", "", "Palette color")
	cmd.Flags().StringVar(&flagNotes, "notes", "", "Free-form notes")
	cmd.Flags().StringArrayVar(&flagAlloc, "alloc", nil, "Replace allocations with RESOURCE=AMOUNT entries")

	return cmd
}

func taskMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move ID ROW COL",
		Short: "Move a task, pushing later tasks on the row to the right",
		Args:  cobra.ExactArgs(3),
		RunE: mutating(func(a *app, args []string) error {
			n, err := parseIDs(args)
			if err != nil {
				return err
			}
			res, err := a.wb.MoveTask(n[0], n[1], n[2])
			if err != nil {
				return err
			}
			return printPlacement(res)
		}),
	}
}

func taskResizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resize ID DURATION",
		Short: "Change a task's duration",
		Args:  cobra.ExactArgs(2),
		RunE: mutating(func(a *app, args []string) error {
			n, err := parseIDs(args)
			if err != nil {
				return err
			}
			res, err := a.wb.ResizeTask(n[0], n[1])
			if err != nil {
				return err
			}
			return printPlacement(res)
		}),
	}
}

func taskEdgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edge ID left|right DAY",
		Short: "Drag one edge of a task to DAY",
		Args:  cobra.ExactArgs(3),
		RunE: mutating(func(a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			edge, err := collision.ParseEdge(args[1])
			if err != nil {
				return err
			}
			day, err := parseID(args[2])
			if err != nil {
				return err
			}
			res, err := a.wb.ResizeTaskEdge(id, edge, day)
			if err != nil {
				return err
			}
			return printPlacement(res)
		}),
	}
}

func printPlacement(res collision.Result) error {
	if flagJSON {
		return outputJSON(res)
	}
	t := res.Task
	fmt.Printf("📌 %s row %d, day %d, %d days\n", ui.TaskPrefix(t.ID), t.Row, t.Col, t.Duration)
	for _, id := range res.Displaced {
		fmt.Printf("   %s %s\n", ui.Dim("pushed"), ui.TaskPrefix(id))
	}
	return nil
}

func taskRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID...",
		Aliases: []string{"delete"},
		Short:   "Delete tasks and their links",
		Args:    cobra.MinimumNArgs(1),
		RunE: mutating(func(a *app, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if err := a.wb.DeleteTask(id); err != nil {
					return err
				}
				if !flagJSON {
					fmt.Printf("🗑️  %s\n", ui.TaskPrefix(id))
				}
			}
			return a.saveSession(nil)
		}),
	}
}

func taskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List visible tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(a.wb.VisibleTasks())
			}
			reporter.New(a.wb.Snapshot(), nil).PrintTasks(os.Stdout)
			return nil
		},
	}
}

func taskSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select [ID...]",
		Short: "Remember a task selection for critical and report (no ids clears it)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			for _, id := range ids {
				if _, err := a.wb.Task(id); err != nil {
					return err
				}
			}
			return a.saveSession(func(ss *state.Session) {
				ss.Selection = ids
				ss.CriticalPath = nil
			})
		},
	}
}

func depCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Link and unlink tasks",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add PRED SUCC",
		Short: "Make SUCC depend on PRED",
		Args:  cobra.ExactArgs(2),
		RunE: mutating(func(a *app, args []string) error {
			n, err := parseIDs(args)
			if err != nil {
				return err
			}
			if err := a.wb.AddSuccessor(n[0], n[1]); err != nil {
				return err
			}
			fmt.Printf("🔗 %s → %s\n", ui.TaskPrefix(n[0]), ui.TaskPrefix(n[1]))
			if cycle := a.wb.FindCycle(); cycle != nil {
				fmt.Fprintf(os.Stderr, "⚠️  %s %v\n", ui.Yellow("Dependencies now contain a cycle:"), cycle)
			}
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm PRED SUCC",
		Short: "Remove the link from PRED to SUCC",
		Args:  cobra.ExactArgs(2),
		RunE: mutating(func(a *app, args []string) error {
			n, err := parseIDs(args)
			if err != nil {
				return err
			}
			return a.wb.RemoveSuccessor(n[0], n[1])
		}),
	})

	return cmd
}

func tagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Tag tasks and resources",
	}

	change := func(use, short string, task func(a *app, id int, tags []string) error, res func(a *app, id int, tags []string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " task|resource ID TAG...",
			Short: short,
			Args:  cobra.MinimumNArgs(3),
			RunE: mutating(func(a *app, args []string) error {
				tags := args[2:]
				switch args[0] {
				case "task":
					id, err := parseID(args[1])
					if err != nil {
						return err
					}
					return task(a, id, tags)
				case "resource":
					r, err := lookupResource(a, args[1])
					if err != nil {
						return err
					}
					return res(a, r.ID, tags)
				}
				return fmt.Errorf("expected task or resource, got %q", args[0])
			}),
		}
	}

	cmd.AddCommand(change("add", "Add tags",
		func(a *app, id int, tags []string) error { return a.wb.AddTaskTags(id, tags...) },
		func(a *app, id int, tags []string) error { return a.wb.AddResourceTags(id, tags...) }))
	cmd.AddCommand(change("rm", "Remove tags",
		func(a *app, id int, tags []string) error { return a.wb.RemoveTaskTags(id, tags...) },
		func(a *app, id int, tags []string) error { return a.wb.RemoveResourceTags(id, tags...) }))
	cmd.AddCommand(change("set", "Replace tags",
		func(a *app, id int, tags []string) error { return a.wb.SetTaskTags(id, tags) },
		func(a *app, id int, tags []string) error { return a.wb.SetResourceTags(id, tags) }))

	cmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List every tag in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(a.wb.AllTags())
			}
			fmt.Println(strings.Join(a.wb.AllTags(), "\n"))
			return nil
		},
	})

	return cmd
}

func filterCmd() *cobra.Command {
	var flagAll bool

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Show only tasks and resources carrying tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			return outputJSON(a.wb.Filters())
		},
	}

	set := func(use string, apply func(a *app, tags []string) error) *cobra.Command {
		c := &cobra.Command{
			Use:   use + " [TAG...]",
			Short: "Filter " + use + " by tag (no tags clears it)",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := openApp()
				if err != nil {
					return err
				}
				if err := apply(a, args); err != nil {
					return err
				}
				return a.saveSession(nil)
			},
		}
		c.Flags().BoolVar(&flagAll, "all", false, "Require every tag instead of any")
		return c
	}

	cmd.AddCommand(set("tasks", func(a *app, tags []string) error {
		return a.wb.SetTaskFilter(tags, flagAll)
	}))
	cmd.AddCommand(set("resources", func(a *app, tags []string) error {
		return a.wb.SetResourceFilter(tags, flagAll)
	}))
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove both filters",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			a.wb.ClearFilters()
			return a.saveSession(nil)
		},
	})

	return cmd
}

// parseAllocations turns RESOURCE=AMOUNT entries into an allocation map.
// RESOURCE is an id or a name.
func parseAllocations(a *app, entries []string) (map[int]float64, error) {
	out := make(map[int]float64, len(entries))
	for _, e := range entries {
		key, val, ok := strings.Cut(e, "=")
		if !ok {
			return nil, fmt.Errorf("allocation %q: want RESOURCE=AMOUNT", e)
		}
		amount, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("allocation %q: %w", e, err)
		}
		r, err := lookupResource(a, key)
		if err != nil {
			return nil, err
		}
		out[r.ID] = amount
	}
	return out, nil
}
