package scrape

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"stockclients/pkg/table"

	"github.com/shopspring/decimal"
)

// Cell returns the element at index of a positional row.
func Cell(row []any, index int) (any, error) {
	if index < 0 || index >= len(row) {
		return nil, fmt.Errorf("cell %d of %d: %w", index, len(row), ErrIndexOutOfRange)
	}
	return row[index], nil
}

// Field returns the value of a keyed row, a missing key is an error.
func Field(row map[string]any, key string) (any, error) {
	value, ok := row[key]
	if !ok {
		return nil, fmt.Errorf("missing field %q", key)
	}
	return value, nil
}

// Text renders a decoded json scalar as text.
func Text(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	}
	return "", fmt.Errorf("expected a scalar, got %T", value)
}

// StringValue is Text as a table value, null stays null.
func StringValue(value any) (table.Value, error) {
	if value == nil {
		return table.Null(), nil
	}
	text, err := Text(value)
	if err != nil {
		return table.Null(), err
	}
	return table.String(text), nil
}

var missingNumbers = map[string]struct{}{
	"":    {},
	"--":  {},
	"-":   {},
	"NA":  {},
	"N/A": {},
}

// DecimalValue coerces provider numbers like "$1,234.50", "-12.5%" or 0.45 into a float.
// Placeholders ("--", "NA", blank) become null.
func DecimalValue(value any) (table.Value, error) {
	switch v := value.(type) {
	case nil:
		return table.Null(), nil
	case float64:
		return table.Float(v), nil
	case string:
		cleaned := strings.TrimSpace(v)
		if _, ok := missingNumbers[cleaned]; ok {
			return table.Null(), nil
		}
		cleaned = strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(cleaned)
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return table.Null(), fmt.Errorf("not a number %q: %w", v, err)
		}
		return table.Float(d.InexactFloat64()), nil
	}
	return table.Null(), fmt.Errorf("expected a number, got %T", value)
}

// IntValue coerces an integer field, blank text becomes null.
func IntValue(text string) (table.Value, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return table.Null(), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return table.Null(), err
	}
	return table.Int(i), nil
}

// FloatValue coerces a float field, blank text becomes null.
func FloatValue(text string) (table.Value, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return table.Null(), nil
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return table.Null(), err
	}
	return table.Float(d.InexactFloat64()), nil
}

// TimeValue parses text in loc with the first layout that matches. Blank text is null,
// unparseable text is null plus a *DateCoercionError for the caller to report.
func TimeValue(field, text string, loc *time.Location, kind table.Kind, layouts ...string) (table.Value, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return table.Null(), nil
	}

	var lastErr error
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, text, loc)
		if err != nil {
			lastErr = err
			continue
		}
		if kind == table.KindDate {
			return table.Date(t), nil
		}
		return table.Timestamp(t), nil
	}
	return table.Null(), &DateCoercionError{Field: field, Value: text, Err: lastErr}
}
