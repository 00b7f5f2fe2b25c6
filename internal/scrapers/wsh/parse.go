package wsh

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"stockclients/internal/scrapers/scrape"
	"stockclients/pkg/table"

	"github.com/antchfx/xmlquery"
)

// ProviderError is returned when the provider answers with an error document instead
// of events, ex. for bad credentials or an exhausted quota.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("wsh: provider error: %s", e.Message)
}

const (
	timestampLayout12 = "1/2/2006 3:04:05 PM"
	timestampLayout24 = "1/2/2006 15:04:05 PM"
	timestampLayoutNo = "1/2/2006 15:04:05"
	dateLayout        = "1/2/2006"
)

var timestampLayouts = []string{timestampLayout12, timestampLayout24, timestampLayoutNo}

type fieldKind int

const (
	fieldString fieldKind = iota
	fieldInt
	fieldFloat
	fieldDate
	fieldTimestamp
)

// schema maps field names to their kind, unlisted fields are kept as strings.
type schema map[string]fieldKind

var commonSchema = schema{
	"event_id":     fieldString,
	"company_id":   fieldInt,
	"stock_symbol": fieldString,
	"isin":         fieldString,
	"company_name": fieldString,
	"created":      fieldTimestamp,
	"updated":      fieldTimestamp,
	"return_time":  fieldTimestamp,
}

var classSchemas = map[string]schema{
	// earnings dates
	"db": {
		"fiscal_year":            fieldInt,
		"confirmed_date_zscore":  fieldFloat,
		"prior_earnings_date":    fieldDate,
		"earnings_date":          fieldDate,
		"quarter_end_date":       fieldDate,
		"prelim_earnings_date":   fieldDate,
		"option_expiration_date": fieldDate,
		"filing_due_date":        fieldDate,
	},
	// earnings dates, summary
	"ed": {
		"fiscal_year":          fieldInt,
		"earnings_date":        fieldDate,
		"prelim_earnings_date": fieldDate,
		"quarter_end_date":     fieldDate,
		"filing_due_date":      fieldDate,
	},
}

func kindOf(class, field string) fieldKind {
	if kind, ok := commonSchema[field]; ok {
		return kind
	}
	if kind, ok := classSchemas[class][field]; ok {
		return kind
	}
	return fieldString
}

// coerceField converts the text of one field. A date or time that does not parse
// becomes null and is returned as the note, any other failure drops the row.
func coerceField(class, field, text string, loc *time.Location) (value table.Value, note error, err error) {
	if strings.TrimSpace(text) == "" {
		return table.Null(), nil, nil
	}

	switch kindOf(class, field) {
	case fieldInt:
		value, err = scrape.IntValue(text)
	case fieldFloat:
		value, err = scrape.FloatValue(text)
	case fieldDate:
		value, note = scrape.TimeValue(field, text, loc, table.KindDate, dateLayout)
	case fieldTimestamp:
		value, note = scrape.TimeValue(field, text, loc, table.KindTimestamp, timestampLayouts...)
	default:
		value = table.String(text)
	}
	if err != nil {
		return table.Null(), nil, fmt.Errorf("%s: %w", field, err)
	}
	return value, note, nil
}

// eventField is one field of an event as it appeared in the document.
type eventField struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func elementChildren(node *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			out = append(out, child)
		}
	}
	return out
}

// parseResponse turns one provider document into a table per event class. Each
// top-level element is an event whose tag names its class, each of its children
// is one field. Columns follow the order fields first appear in.
func parseResponse(body string, loc *time.Location) (map[string]scrape.Result, []string, error) {
	doc, err := xmlquery.Parse(strings.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("wsh: parse response: %w", err)
	}
	roots := elementChildren(doc)
	if len(roots) == 0 {
		return nil, nil, fmt.Errorf("wsh: parse response: document has no root element")
	}
	root := roots[0]
	if root.Data == "error" {
		return nil, nil, &ProviderError{Message: strings.TrimSpace(root.InnerText())}
	}

	var classes []string
	events := map[string][][]eventField{}
	columns := map[string][]string{}
	for _, item := range elementChildren(root) {
		if item.Data == "error" {
			return nil, nil, &ProviderError{Message: strings.TrimSpace(item.InnerText())}
		}

		class := item.Data
		if _, ok := events[class]; !ok {
			classes = append(classes, class)
		}
		var fields []eventField
		for _, f := range elementChildren(item) {
			fields = append(fields, eventField{Name: f.Data, Text: f.InnerText()})
			if !slices.Contains(columns[class], f.Data) {
				columns[class] = append(columns[class], f.Data)
			}
		}
		events[class] = append(events[class], fields)
	}

	results := make(map[string]scrape.Result, len(classes))
	for _, class := range classes {
		results[class] = scrape.FoldRows(class, columns[class], events[class], func(fields []eventField, note func(error)) (table.Row, error) {
			row := make(table.Row, len(fields))
			for _, f := range fields {
				value, coercionNote, err := coerceField(class, f.Name, f.Text, loc)
				if err != nil {
					return nil, err
				}
				if coercionNote != nil {
					note(coercionNote)
				}
				row[f.Name] = value
			}
			return row, nil
		})
	}
	return results, classes, nil
}
