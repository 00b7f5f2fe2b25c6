package zacks

import (
	"fmt"
	"strings"
	"time"

	"stockclients/internal/scrapers/scrape"
	"stockclients/pkg/htmlutil"
	"stockclients/pkg/table"
)

// TextIndexes selects which text node of a markup cell holds the label. The provider
// does not document its markup, these positions were observed on the live pages.
type TextIndexes struct {
	// Symbol cells carry a hidden sort key before the ticker.
	Symbol int
	// Company cells carry the display name first.
	Company int
	// Change cells (revision deltas) carry the signed value first.
	Change int
}

var DefaultTextIndexes = TextIndexes{
	Symbol:  1,
	Company: 0,
	Change:  0,
}

// TabParser turns the payload of one tab into a table with a fixed schema.
type TabParser struct {
	Name     string
	Columns  []string
	ParseRow scrape.RowFunc[any]
}

// Parse folds every row of the payload, bad rows are dropped into the diagnostics.
func (p TabParser) Parse(rows []any) scrape.Result {
	return scrape.FoldRows(p.Name, p.Columns, rows, p.ParseRow)
}

func markupText(cell any, index int) (string, error) {
	fragment, ok := cell.(string)
	if !ok {
		return "", fmt.Errorf("expected markup, got %T", cell)
	}
	text, err := htmlutil.TextNode(fragment, index)
	if err != nil {
		return "", fmt.Errorf("%w: %v", scrape.ErrIndexOutOfRange, err)
	}
	return strings.TrimSpace(text), nil
}

// ---- earnings release tabs ----

var releaseColumns = []string{"ticker", "report_time", "estimate", "reported"}

func releaseTabParser(name string, indexes TextIndexes) TabParser {
	return TabParser{
		Name:    name,
		Columns: releaseColumns,
		ParseRow: func(raw any, note func(error)) (table.Row, error) {
			obj, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("expected an object row, got %T", raw)
			}

			tickerCell, err := scrape.Field(obj, "ticker")
			if err != nil {
				return nil, err
			}
			ticker, err := markupText(tickerCell, indexes.Symbol)
			if err != nil {
				return nil, fmt.Errorf("ticker: %w", err)
			}

			row := table.Row{"ticker": table.String(ticker)}

			row["report_time"] = table.Null()
			if rawTime, ok := obj["report_time"]; ok {
				reportTime, err := reportTimeValue(rawTime)
				if err != nil {
					note(err)
				}
				row["report_time"] = reportTime
			}

			for _, column := range []string{"estimate", "reported"} {
				value, err := scrape.DecimalValue(obj[column])
				if err != nil {
					return nil, fmt.Errorf("%s: %w", column, err)
				}
				row[column] = value
			}

			return row, nil
		},
	}
}

// reportTimeValue normalizes "H:MM" report times to "HH:MM", anything else
// (ex. "BMO", "--") is nulled.
func reportTimeValue(raw any) (table.Value, error) {
	text, err := scrape.Text(raw)
	if err != nil {
		return table.Null(), &scrape.DateCoercionError{Field: "report_time", Value: fmt.Sprint(raw), Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return table.Null(), nil
	}
	t, err := time.Parse("15:04", text)
	if err != nil {
		return table.Null(), &scrape.DateCoercionError{Field: "report_time", Value: text, Err: err}
	}
	return table.String(t.Format("15:04")), nil
}

// ---- earnings calendar tabs ----

// calendarCell describes one positional column of a calendar row.
type calendarCell struct {
	column string
	// markup cells are unwrapped with the text node at index
	markup bool
	index  func(TextIndexes) int
	// absent columns are part of the schema but the provider does not fill them reliably
	absent bool
}

func plain(column string) calendarCell {
	return calendarCell{column: column}
}

func absent(column string) calendarCell {
	return calendarCell{column: column, absent: true}
}

func symbolCell() calendarCell {
	return calendarCell{column: "symbol", markup: true, index: func(i TextIndexes) int { return i.Symbol }}
}

func companyCell() calendarCell {
	return calendarCell{column: "company", markup: true, index: func(i TextIndexes) int { return i.Company }}
}

func changeCell(column string) calendarCell {
	return calendarCell{column: column, markup: true, index: func(i TextIndexes) int { return i.Change }}
}

var calendarLayouts = map[CalendarTab][]calendarCell{
	CalendarEarnings: {
		symbolCell(), companyCell(), plain("mcap"), plain("time"), plain("estimate"), plain("reported"),
		absent("surprise"), absent("percent_surprise"), absent("percent_price_change"),
	},
	CalendarSales: {
		symbolCell(), companyCell(), plain("mcap"), plain("time"), plain("estimate"), plain("reported"),
		absent("surprise"), absent("percent_surprise"), absent("percent_price_change"),
	},
	CalendarGuidance: {
		symbolCell(), companyCell(), plain("mcap"), plain("period"), plain("period_end"),
		plain("guid_range"), plain("mid_guid"), plain("cons"), plain("percent_to_high_point"),
	},
	CalendarRevisions: {
		symbolCell(), companyCell(), plain("mcap"), plain("period"), plain("period_end"),
		plain("old"), plain("new"), changeCell("est_change"), plain("cons"), changeCell("new_est_vs_cons"),
	},
	CalendarDividends: {
		symbolCell(), companyCell(), plain("mcap"), plain("amount"), plain("yield"),
		plain("ex_div_date"), plain("current_price"), plain("payable_date"),
	},
	CalendarSplits: {
		symbolCell(), companyCell(), plain("mcap"), plain("price"), plain("split_factor"),
	},
}

func calendarTabParser(tab CalendarTab, indexes TextIndexes) (TabParser, error) {
	layout, ok := calendarLayouts[tab]
	if !ok {
		return TabParser{}, fmt.Errorf("%w: %s", ErrUnsupportedTab, tab)
	}

	columns := make([]string, len(layout))
	for i, cell := range layout {
		columns[i] = cell.column
	}

	return TabParser{
		Name:    tab.String(),
		Columns: columns,
		ParseRow: func(raw any, _ func(error)) (table.Row, error) {
			cells, ok := raw.([]any)
			if !ok {
				return nil, fmt.Errorf("expected an array row, got %T", raw)
			}

			row := table.Row{}
			for i, cell := range layout {
				if cell.absent {
					row[cell.column] = table.Null()
					continue
				}
				value, err := scrape.Cell(cells, i)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", cell.column, err)
				}
				if !cell.markup {
					row[cell.column], err = scrape.StringValue(value)
					if err != nil {
						return nil, fmt.Errorf("%s: %w", cell.column, err)
					}
					continue
				}
				text, err := markupText(value, cell.index(indexes))
				if err != nil {
					return nil, fmt.Errorf("%s: %w", cell.column, err)
				}
				row[cell.column] = table.String(text)
			}
			return row, nil
		},
	}, nil
}
