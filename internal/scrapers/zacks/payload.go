package zacks

import (
	"strings"

	"stockclients/internal/scrapers/scrape"

	"github.com/titanous/json5"
)

const (
	// the earnings release tab endpoint pads the key with two spaces
	releaseMarker  = `"data"  : `
	calendarMarker = `"data" : `
)

// removeLastBrace deletes the rightmost '}' of s. The provider wraps its row array as
// `{"data" : [...] }` inside script glue, so after splitting on the marker exactly one
// closing brace of the wrapper is left behind.
func removeLastBrace(s string) string {
	index := strings.LastIndex(s, "}")
	if index == -1 {
		return s
	}
	return s[:index] + s[index+1:]
}

// ExtractPayload locates marker in raw and parses everything after it, minus the
// wrapper's trailing brace, as a json5 literal.
func ExtractPayload(raw, marker string) (any, error) {
	_, rest, found := strings.Cut(raw, marker)
	if !found {
		return nil, &scrape.PayloadExtractionError{Marker: marker, Reason: "marker not found"}
	}

	body := strings.TrimSpace(removeLastBrace(rest))

	var payload any
	err := json5.Unmarshal([]byte(body), &payload)
	if err != nil {
		return nil, &scrape.PayloadExtractionError{Marker: marker, Reason: "parse", Err: err}
	}
	return payload, nil
}

// extractRows extracts the payload and requires it to be a list of rows.
func extractRows(raw, marker string) ([]any, error) {
	payload, err := ExtractPayload(raw, marker)
	if err != nil {
		return nil, err
	}
	rows, ok := payload.([]any)
	if !ok {
		return nil, &scrape.PayloadExtractionError{Marker: marker, Reason: "payload is not a list of rows"}
	}
	return rows, nil
}
