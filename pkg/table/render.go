package table

import (
	"encoding/csv"
	"io"

	prettytable "github.com/jedib0t/go-pretty/v6/table"
)

// Records returns the header followed by every row in canonical text form.
func (t *Table) Records() [][]string {
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, t.Columns)
	for _, r := range t.Rows {
		record := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			record[i] = r[c].Text()
		}
		records = append(records, record)
	}
	return records
}

// Render writes the table as a human readable grid.
func Render(w io.Writer, t *Table) {
	writer := prettytable.NewWriter()
	writer.SetOutputMirror(w)
	writer.SetStyle(prettytable.StyleLight)

	header := make(prettytable.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	writer.AppendHeader(header)

	for _, r := range t.Rows {
		row := make(prettytable.Row, len(t.Columns))
		for i, c := range t.Columns {
			row[i] = r[c].Text()
		}
		writer.AppendRow(row)
	}
	writer.Render()
}

func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	err := writer.WriteAll(t.Records())
	if err != nil {
		return err
	}
	return writer.Error()
}
