package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/patch"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
)

const (
	colLabel = iota
	colKind
	colAddress
	colRequired
	colAvailable
	colVerdict
)

// renderReport draws the capacity report as a table followed by a
// summary line.
func renderReport(w io.Writer, r patch.CapacityReport) {
	rows := make([][]string, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, []string{
			row.Label,
			row.Kind.String(),
			fmt.Sprintf("%06X", row.Address),
			fmt.Sprint(row.Required),
			fmt.Sprint(row.Available),
			row.Verdict.Colour(),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("LABEL", "KIND", "ADDRESS", "REQUIRED", "AVAILABLE", "VERDICT").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			switch col {
			case colAddress, colRequired, colAvailable:
				return numberStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())

	required, available := r.Totals()
	verdict := color.GreenString("everything fits")
	if !r.Fits() {
		bad := 0
		for _, row := range r.Rows {
			if row.Verdict != patch.VerdictOK {
				bad++
			}
		}
		verdict = color.New(color.FgRed, color.Bold).Sprintf("%d of %d writes do not fit", bad, len(r.Rows))
	}
	fmt.Fprintf(w, "%d bytes required, %d available: %s\n", required, available, verdict)
}
