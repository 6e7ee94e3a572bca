// Package report renders run outcomes for people to read.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/shishobooks/organize-ebooks/pkg/fileutils"
	"github.com/shishobooks/organize-ebooks/pkg/models"
)

// kindOrder is the order totals are listed in.
var kindOrder = []string{
	models.OutcomeOrganized,
	models.OutcomeUncertainOrganized,
	models.OutcomePamphletMoved,
	models.OutcomeCorruptMoved,
	models.OutcomeCorruptReportedOnly,
	models.OutcomePamphletSkipped,
	models.OutcomeSkipped,
}

type Options struct {
	// Colorize uses the rounded style and colors the outcome column.
	Colorize bool
	// TotalsOnly leaves out the per-file rows.
	TotalsOnly bool
}

// OptionsFor colorizes only when w is a terminal.
func OptionsFor(w io.Writer) Options {
	return Options{Colorize: IsTerminal(w)}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Totals counts outcomes per kind. Every known kind is present.
func Totals(outcomes []*models.Outcome) map[string]int {
	totals := make(map[string]int, len(kindOrder))
	for _, kind := range kindOrder {
		totals[kind] = 0
	}
	for _, o := range outcomes {
		totals[o.Kind]++
	}
	return totals
}

// Write renders a table of outcomes followed by a table of totals.
func Write(w io.Writer, outcomes []*models.Outcome, opts Options) error {
	if !opts.TotalsOnly && len(outcomes) > 0 {
		tw := newWriter(opts)
		tw.AppendHeader(table.Row{"File", "Outcome", "Destination / Reason"})
		for _, o := range outcomes {
			tw.AppendRow(table.Row{fileutils.DisplayPath(o.Path), kindText(o.Kind, opts), detail(o)})
		}
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, WidthMax: 60},
			{Number: 3, WidthMax: 80},
		})
		if _, err := fmt.Fprintln(w, tw.Render()); err != nil {
			return errors.WithStack(err)
		}
	}

	totals := Totals(outcomes)
	tw := newWriter(opts)
	tw.AppendHeader(table.Row{"Outcome", "Files"})
	for _, kind := range kindOrder {
		if totals[kind] == 0 {
			continue
		}
		tw.AppendRow(table.Row{kindText(kind, opts), totals[kind]})
	}
	tw.AppendFooter(table.Row{"Total", len(outcomes)})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight},
	})
	if _, err := fmt.Fprintln(w, tw.Render()); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func newWriter(opts Options) table.Writer {
	tw := table.NewWriter()
	if opts.Colorize {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	return tw
}

func detail(o *models.Outcome) string {
	switch {
	case o.Destination != nil && o.Reason != nil:
		return fileutils.DisplayPath(*o.Destination) + " (" + *o.Reason + ")"
	case o.Destination != nil:
		return fileutils.DisplayPath(*o.Destination)
	case o.Reason != nil:
		return *o.Reason
	}
	return ""
}

func kindText(kind string, opts Options) string {
	if !opts.Colorize {
		return kind
	}
	switch kind {
	case models.OutcomeCorruptMoved, models.OutcomeCorruptReportedOnly:
		return text.Colors{text.FgRed}.Sprint(kind)
	case models.OutcomeSkipped, models.OutcomePamphletSkipped:
		return text.Colors{text.FgYellow}.Sprint(kind)
	default:
		return text.Colors{text.FgGreen}.Sprint(kind)
	}
}
