package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableView is a rounded go-pretty table. Rows shorter than the header are
// padded with empty cells; aligns defaults to left for missing columns.
type tableView struct {
	headers []string
	aligns  []columnAlignment
	rows    [][]string
	caption string
}

func (v tableView) render() string {
	if len(v.headers) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(cells(v.headers, len(v.headers)))
	for _, row := range v.rows {
		tw.AppendRow(cells(row, len(v.headers)))
	}

	configs := make([]table.ColumnConfig, len(v.headers))
	for i := range configs {
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if i < len(v.aligns) && v.aligns[i] == alignRight {
			configs[i].Align = text.AlignRight
		}
	}
	tw.SetColumnConfigs(configs)
	if v.caption != "" {
		tw.SetCaption(v.caption)
	}
	return tw.Render()
}

// print writes the table followed by a newline.
func (v tableView) print(w io.Writer) {
	fmt.Fprintln(w, v.render())
}

func cells(values []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range row {
		row[i] = ""
		if i < len(values) {
			row[i] = values[i]
		}
	}
	return row
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
