package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/joshharrison/planloom/internal/config"
	"github.com/joshharrison/planloom/internal/model"
	"github.com/joshharrison/planloom/internal/shift"
)

func stdinIsTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}

// asker is the interactive half of a prompter.
type asker interface {
	confirmDelete(t model.Task, newCol int) bool
	chooseOverflow(t model.Task, newCol int) shift.OverflowChoice
}

// configPrompter answers shift prompts from config, falling back to asker
// for "ask". Without a terminal "ask" aborts.
type configPrompter struct {
	cfg         config.ShiftConfig
	interactive bool
	ask         asker
}

func newPrompter(cfg config.ShiftConfig, interactive bool) *configPrompter {
	return &configPrompter{cfg: cfg, interactive: interactive, ask: huhAsker{}}
}

func (p *configPrompter) Unreachable(t model.Task, newCol int) bool {
	switch p.cfg.Unreachable {
	case "delete":
		return true
	case "ask":
		return p.interactive && p.ask.confirmDelete(t, newCol)
	default:
		return false
	}
}

func (p *configPrompter) Overflow(t model.Task, newCol int) shift.OverflowChoice {
	if p.cfg.Overflow == "ask" {
		if !p.interactive {
			return shift.Abort
		}
		return p.ask.chooseOverflow(t, newCol)
	}
	choice, err := shift.ParseOverflowChoice(p.cfg.Overflow)
	if err != nil {
		return shift.Abort
	}
	return choice
}

type huhAsker struct{}

func label(t model.Task) string {
	if t.Description == "" {
		return fmt.Sprintf("#%d", t.ID)
	}
	return fmt.Sprintf("#%d %q", t.ID, t.Description)
}

func (huhAsker) confirmDelete(t model.Task, newCol int) bool {
	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Task %s would start at day %d, outside the timeline.", label(t), newCol)).
		Description("Delete it? Declining cancels the whole shift.").
		Affirmative("Delete").
		Negative("Cancel shift").
		Value(&ok).
		Run()
	return err == nil && ok
}

func (huhAsker) chooseOverflow(t model.Task, newCol int) shift.OverflowChoice {
	choice := shift.Truncate.String()
	err := huh.NewSelect[string]().
		Title(fmt.Sprintf("Task %s would run past the end of the timeline from day %d.", label(t), newCol)).
		Options(
			huh.NewOption("Truncate at the last day", shift.Truncate.String()),
			huh.NewOption("Delete the task", shift.Delete.String()),
			huh.NewOption("Cancel the whole shift", shift.Abort.String()),
		).
		Value(&choice).
		Run()
	if err != nil {
		return shift.Abort
	}
	c, err := shift.ParseOverflowChoice(choice)
	if err != nil {
		return shift.Abort
	}
	return c
}
