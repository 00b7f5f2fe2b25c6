package table

import (
	"fmt"
	"slices"
	"strings"
)

// Row maps a column name to its value.
type Row map[string]Value

// Table is an ordered sequence of rows sharing one schema.
type Table struct {
	Columns []string
	Rows    []Row
}

func New(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

func (t *Table) Len() int {
	return len(t.Rows)
}

func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

// Append adds a row, missing schema columns are filled with null.
// A row carrying a column outside the schema is rejected.
func (t *Table) Append(row Row) error {
	for name := range row {
		if !t.HasColumn(name) {
			return fmt.Errorf("column %q is not part of the schema %v", name, t.Columns)
		}
	}
	t.Rows = append(t.Rows, t.conform(row))
	return nil
}

func (t *Table) conform(row Row) Row {
	out := make(Row, len(t.Columns))
	for _, c := range t.Columns {
		out[c] = row[c]
	}
	return out
}

// Rename returns a copy of the table with the columns renamed, names
// absent from mapping are kept.
func (t *Table) Rename(mapping map[string]string) *Table {
	renamed := func(name string) string {
		if to, ok := mapping[name]; ok {
			return to
		}
		return name
	}

	out := &Table{Columns: make([]string, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = renamed(c)
	}
	for _, r := range t.Rows {
		nr := make(Row, len(r))
		for k, v := range r {
			nr[renamed(k)] = v
		}
		out.Rows = append(out.Rows, nr)
	}
	return out
}

// SetColumn sets name to value on every row, adding the column at the end
// of the schema if it does not exist.
func (t *Table) SetColumn(name string, value Value) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
	for _, r := range t.Rows {
		r[name] = value
	}
}

// MoveColumn moves an existing column to the given position.
func (t *Table) MoveColumn(name string, index int) error {
	from := slices.Index(t.Columns, name)
	if from < 0 {
		return fmt.Errorf("unknown column %q", name)
	}
	columns := slices.Delete(slices.Clone(t.Columns), from, from+1)
	index = max(0, min(index, len(columns)))
	t.Columns = slices.Insert(columns, index, name)
	return nil
}

func (t *Table) rowKey(r Row, columns []string) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = r[c].key()
	}
	return strings.Join(parts, "\x1f")
}

// DropDuplicates removes rows that are exact duplicates of an earlier row.
func (t *Table) DropDuplicates() *Table {
	out := New(t.Columns...)
	seen := map[string]struct{}{}
	for _, r := range t.Rows {
		key := t.rowKey(r, t.Columns)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, r)
	}
	return out
}

// Concat stacks tables on top of each other, the resulting schema is the union of
// all columns in order of first appearance. Rows are not deduplicated.
func Concat(tables ...*Table) *Table {
	out := New()
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.Columns {
			if !out.HasColumn(c) {
				out.Columns = append(out.Columns, c)
			}
		}
	}
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, r := range t.Rows {
			out.Rows = append(out.Rows, out.conform(r))
		}
	}
	return out
}

// OuterJoin merges left and right on the given key columns. Every left row is
// combined with each matching right row, rows without a match on the other side
// are kept with nulls in the other side's columns. Null keys match null keys.
//
// Non-key columns present on both sides are suffixed with _x and _y.
func OuterJoin(left, right *Table, on ...string) (*Table, error) {
	for _, key := range on {
		if !left.HasColumn(key) || !right.HasColumn(key) {
			return nil, fmt.Errorf("join key %q missing from one side", key)
		}
	}

	leftNames := map[string]string{}
	rightNames := map[string]string{}
	out := New()
	for _, c := range left.Columns {
		name := c
		if !slices.Contains(on, c) && right.HasColumn(c) {
			name = c + "_x"
		}
		leftNames[c] = name
		out.Columns = append(out.Columns, name)
	}
	for _, c := range right.Columns {
		if slices.Contains(on, c) {
			rightNames[c] = c
			continue
		}
		name := c
		if left.HasColumn(c) {
			name = c + "_y"
		}
		rightNames[c] = name
		out.Columns = append(out.Columns, name)
	}

	rightIndex := map[string][]int{}
	for i, r := range right.Rows {
		key := right.rowKey(r, on)
		rightIndex[key] = append(rightIndex[key], i)
	}

	combine := func(l, r Row) Row {
		row := make(Row, len(out.Columns))
		for c, v := range r {
			row[rightNames[c]] = v
		}
		for c, v := range l {
			row[leftNames[c]] = v
		}
		return out.conform(row)
	}

	matched := make([]bool, len(right.Rows))
	for _, l := range left.Rows {
		hits := rightIndex[left.rowKey(l, on)]
		if len(hits) == 0 {
			out.Rows = append(out.Rows, combine(l, nil))
			continue
		}
		for _, i := range hits {
			matched[i] = true
			out.Rows = append(out.Rows, combine(l, right.Rows[i]))
		}
	}
	for i, r := range right.Rows {
		if matched[i] {
			continue
		}
		out.Rows = append(out.Rows, combine(nil, r))
	}

	return out, nil
}
