package scrape

import (
	"errors"
	"fmt"

	"stockclients/pkg/table"

	"github.com/goccy/go-json"
)

// RowFunc turns one raw row into a typed row. Field-level problems that do not
// invalidate the row are passed to note, returning an error drops the row.
type RowFunc[R any] func(raw R, note func(error)) (table.Row, error)

// Result is the outcome of folding a batch of raw rows.
type Result struct {
	Table *table.Table
	// Diagnostics holds a *RowParseError for every dropped row and the notes
	// (ex. *DateCoercionError) of the rows that were kept, in input order.
	Diagnostics []error
}

// Dropped returns the diagnostics of the rows that were skipped.
func (r Result) Dropped() []*RowParseError {
	var out []*RowParseError
	for _, d := range r.Diagnostics {
		var rowErr *RowParseError
		if errors.As(d, &rowErr) {
			out = append(out, rowErr)
		}
	}
	return out
}

func describeRaw(raw any) string {
	serialized, err := json.Marshal(raw)
	if err != nil {
		return fmt.Sprintf("%v", raw)
	}
	return string(serialized)
}

func parseOne[R any](raw R, parse RowFunc[R]) (row table.Row, notes []error, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			row = nil
			err = fmt.Errorf("panic: %v", recovered)
		}
	}()
	row, err = parse(raw, func(note error) {
		notes = append(notes, note)
	})
	return row, notes, err
}

// FoldRows parses every raw row into a table with the given schema. A failing row
// never aborts the batch, it is skipped and recorded as a *RowParseError.
func FoldRows[R any](tab string, columns []string, raws []R, parse RowFunc[R]) Result {
	result := Result{Table: table.New(columns...)}

	for i, raw := range raws {
		row, notes, err := parseOne(raw, parse)
		if err == nil {
			err = result.Table.Append(row)
		}
		if err != nil {
			result.Diagnostics = append(result.Diagnostics, &RowParseError{
				Tab:   tab,
				Index: i,
				Raw:   describeRaw(raw),
				Err:   err,
			})
			continue
		}
		result.Diagnostics = append(result.Diagnostics, notes...)
	}

	return result
}
