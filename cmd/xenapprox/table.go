package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/james-see/xenapprox/pkg/session"
	"github.com/james-see/xenapprox/pkg/tuning"
	"github.com/olekukonko/tablewriter"
)

func formatCents(c float64) string {
	return strconv.FormatFloat(c, 'f', 2, 64)
}

// renderTable prints the scale degrees and the approximation rows
func renderTable(w io.Writer, r session.Report, original tuning.Scale) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s (%s)\n\n", r.Name, r.Description)

	scaleTable := tablewriter.NewWriter(&buf)
	scaleTable.SetHeader([]string{"Index", "Cents", "Original"})
	scaleTable.SetBorder(false)
	scaleTable.SetCenterSeparator("")
	scaleTable.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})
	for i, cents := range r.Scale {
		orig := ""
		if i < len(original) {
			orig = formatCents(original[i])
		}
		scaleTable.Append([]string{strconv.Itoa(i), formatCents(cents), orig})
	}
	scaleTable.Render()

	buf.WriteString("\n")

	approxTable := tablewriter.NewWriter(&buf)
	approxTable.SetHeader([]string{"Step", "Target", "Source", "Cents", "Deviation"})
	approxTable.SetBorder(false)
	approxTable.SetCenterSeparator("")
	approxTable.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_CENTER,
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT,
	})
	for _, row := range r.Rows {
		approxTable.Append([]string{
			strconv.Itoa(row.Step),
			formatCents(row.Target),
			fmt.Sprintf("(%d)", row.Source),
			formatCents(row.Cents),
			fmt.Sprintf("%+.2f", row.Deviation),
		})
	}
	approxTable.SetFooter([]string{
		fmt.Sprintf("%d-TET", r.GridSize),
		"",
		"",
		"max",
		fmt.Sprintf("%.2f", r.MaxDeviation()),
	})
	approxTable.Render()

	_, err := w.Write(buf.Bytes())
	return err
}
