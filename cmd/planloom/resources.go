package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/joshharrison/planloom/internal/calendar"
	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/ui"
)

func resourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "resource",
		Aliases: []string{"res"},
		Short:   "Manage resources, capacities and allocations",
	}
	cmd.AddCommand(resourceAddCmd())
	cmd.AddCommand(resourceRemoveCmd())
	cmd.AddCommand(resourceRenameCmd())
	cmd.AddCommand(resourceCapacityCmd())
	cmd.AddCommand(resourceWeekendsCmd())
	cmd.AddCommand(resourceAllocCmd())
	cmd.AddCommand(resourceListCmd())
	cmd.AddCommand(resourceUtilizationCmd())
	return cmd
}

// lookupResource resolves an id or a name.
func lookupResource(a *app, key string) (model.Resource, error) {
	if id, err := strconv.Atoi(key); err == nil {
		return a.wb.Resource(id)
	}
	r, ok := a.wb.ResourceByName(key)
	if !ok {
		return model.Resource{}, fmt.Errorf("resource %q: %w", key, model.ErrNotFound)
	}
	return r, nil
}

func resourceAddCmd() *cobra.Command {
	var flagWeekends bool

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a resource with default capacity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutating(func(a *app, args []string) error {
				weekends := a.cfg.Defaults.WorksWeekends
				if cmd.Flags().Changed("weekends") {
					weekends = flagWeekends
				}
				r, err := a.wb.AddResource(args[0], weekends)
				if err != nil {
					return err
				}
				if flagJSON {
					return outputJSON(r)
				}
				fmt.Printf("➕ resource %d %s\n", r.ID, ui.Bold(r.Name))
				return nil
			})(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&flagWeekends, "weekends", true, "Resource works weekends (default from config)")

	return cmd
}

func resourceRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm RESOURCE",
		Short: "Remove a resource and every allocation of it",
		Args:  cobra.ExactArgs(1),
		RunE: mutating(func(a *app, args []string) error {
			r, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}
			return a.wb.RemoveResource(r.ID)
		}),
	}
}

func resourceRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename RESOURCE NAME",
		Short: "Rename a resource",
		Args:  cobra.ExactArgs(2),
		RunE: mutating(func(a *app, args []string) error {
			r, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}
			return a.wb.RenameResource(r.ID, args[1])
		}),
	}
}

func resourceCapacityCmd() *cobra.Command {
	var flagFrom, flagTo string

	cmd := &cobra.Command{
		Use:   "capacity RESOURCE VALUE",
		Short: "Set capacity for a day or a range of days",
		Long: `Sets capacity on days --from through --to (inclusive). Each may be a
day index or a YYYY-MM-DD date; --to defaults to --from.`,
		Args: cobra.ExactArgs(2),
		RunE: mutating(func(a *app, args []string) error {
			r, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}
			value, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("capacity %q: %w", args[1], err)
			}
			cal := a.wb.Window().Calendar()
			from, err := parseDay(cal, flagFrom)
			if err != nil {
				return err
			}
			to := from
			if flagTo != "" {
				if to, err = parseDay(cal, flagTo); err != nil {
					return err
				}
			}
			if from == to {
				return a.wb.SetCapacity(r.ID, from, value)
			}
			return a.wb.SetCapacityRange(r.ID, from, to, value)
		}),
	}

	cmd.Flags().StringVar(&flagFrom, "from", "0", "First day (index or date)")
	cmd.Flags().StringVar(&flagTo, "to", "", "Last day (index or date)")

	return cmd
}

// parseDay accepts a day index or a date inside cal.
func parseDay(cal calendar.Calendar, s string) (int, error) {
	if k, err := strconv.Atoi(s); err == nil {
		return k, nil
	}
	d, err := calendar.ParseDate(s)
	if err != nil {
		return 0, err
	}
	return cal.DayOfDate(d), nil
}

func resourceWeekendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weekends RESOURCE true|false",
		Short: "Set whether a resource works weekends",
		Args:  cobra.ExactArgs(2),
		RunE: mutating(func(a *app, args []string) error {
			r, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}
			on, err := strconv.ParseBool(args[1])
			if err != nil {
				return err
			}
			return a.wb.SetWorksWeekends(r.ID, on)
		}),
	}
}

func resourceAllocCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alloc TASK RESOURCE AMOUNT",
		Short: "Allocate a resource to a task per day (0 removes it)",
		Args:  cobra.ExactArgs(3),
		RunE: mutating(func(a *app, args []string) error {
			taskID, err := parseID(args[0])
			if err != nil {
				return err
			}
			r, err := lookupResource(a, args[1])
			if err != nil {
				return err
			}
			amount, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("amount %q: %w", args[2], err)
			}
			return a.wb.SetAllocation(taskID, r.ID, amount)
		}),
	}
}

func resourceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List visible resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			resources := a.wb.VisibleResources()
			if flagJSON {
				return outputJSON(resources)
			}
			loading := a.wb.ResourceLoading()
			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "NAME", "WEEKENDS", "OVERLOADED DAYS", "TAGS")
			for _, r := range resources {
				over := 0
				for k, l := range loading[r.ID] {
					if model.Overloaded(l, r.Capacity[k]) {
						over++
					}
				}
				t.Row(strconv.Itoa(r.ID), r.Name, strconv.FormatBool(r.WorksWeekends),
					strconv.Itoa(over), fmt.Sprint(r.Tags))
			}
			fmt.Fprintln(os.Stdout, t.String())
			return nil
		},
	}
}

func resourceUtilizationCmd() *cobra.Command {
	var flagOverOnly bool

	cmd := &cobra.Command{
		Use:   "util RESOURCE",
		Short: "Show load against capacity per day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			r, err := lookupResource(a, args[0])
			if err != nil {
				return err
			}
			days, err := a.wb.Utilization(r.ID)
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(days)
			}
			cal := a.wb.Window().Calendar()
			for k, d := range days {
				if flagOverOnly && !d.Overloaded {
					continue
				}
				fmt.Printf("%4d  %s  %s\n", k, calendar.FormatDate(cal.DateOfDay(k)), ui.Overload(d.Load, d.Capacity))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagOverOnly, "over", false, "Only overloaded days")

	return cmd
}
