package ui

import (
	"fmt"
	"io"

	"github.com/gosuri/uitable"
)

const tableMaxColumnWidthConstant = 80

// WriteTable renders rows as aligned columns with wrapped long cells.
// The header, when present, is written first.
func WriteTable(writer io.Writer, header []string, rows [][]string) error {
	table := uitable.New()
	table.MaxColWidth = tableMaxColumnWidthConstant
	table.Wrap = true

	if len(header) > 0 {
		table.AddRow(toCells(header)...)
	}
	for _, row := range rows {
		table.AddRow(toCells(row)...)
	}

	_, writeError := fmt.Fprintln(writer, table)
	return writeError
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for index, value := range values {
		cells[index] = value
	}
	return cells
}
