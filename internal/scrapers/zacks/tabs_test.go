package zacks

import (
	_ "embed"
	"errors"
	"testing"

	"stockclients/internal/scrapers/scrape"

	"github.com/stretchr/testify/require"
)

//go:embed testdata/release_all.txt
var releaseAllFixture string

//go:embed testdata/release_plus_eps.txt
var releasePlusEpsFixture string

//go:embed testdata/release_plus_sales.txt
var releasePlusSalesFixture string

//go:embed testdata/release_empty.txt
var releaseEmptyFixture string

//go:embed testdata/calendar_dividends.txt
var calendarDividendsFixture string

//go:embed testdata/calendar_revisions.txt
var calendarRevisionsFixture string

func TestRemoveLastBrace(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{in: `[1] }`, expected: `[1] `},
		{in: `[{"a": 1}] }}`, expected: `[{"a": 1}] }`},
		{in: `[1]`, expected: `[1]`},
		{in: ``, expected: ``},
	}
	for _, test := range cases {
		require.Equal(t, test.expected, removeLastBrace(test.in), test.in)
	}
}

func TestExtractPayloadIdempotent(t *testing.T) {
	first, err := ExtractPayload(releaseAllFixture, releaseMarker)
	require.NoError(t, err)
	second, err := ExtractPayload(releaseAllFixture, releaseMarker)
	require.NoError(t, err)
	require.Equal(t, first, second)

	rows, ok := first.([]any)
	require.True(t, ok)
	require.Len(t, rows, 3)
}

func TestExtractPayloadErrors(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		marker string
		reason string
	}{
		{
			name:   "marker absent",
			raw:    releaseAllFixture,
			marker: calendarMarker,
			reason: "marker not found",
		},
		{
			name:   "truncated literal",
			raw:    `{"data" : [["a", "b"] }`,
			marker: calendarMarker,
			reason: "parse",
		},
		{
			name:   "two trailing braces",
			raw:    `{{"data" : [1, 2] }}`,
			marker: calendarMarker,
			reason: "parse",
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			_, err := ExtractPayload(test.raw, test.marker)
			var extractErr *scrape.PayloadExtractionError
			require.ErrorAs(t, err, &extractErr)
			require.Equal(t, test.reason, extractErr.Reason)
		})
	}

	_, err := extractRows(`{"data" : {"a": 1} }`, calendarMarker)
	var extractErr *scrape.PayloadExtractionError
	require.ErrorAs(t, err, &extractErr)
}

func TestReleaseTabParser(t *testing.T) {
	rows, err := extractRows(releaseAllFixture, releaseMarker)
	require.NoError(t, err)

	result := releaseTabParser("all", DefaultTextIndexes).Parse(rows)
	require.Equal(t, releaseColumns, result.Table.Columns)
	require.Equal(t, [][]string{
		{"ticker", "report_time", "estimate", "reported"},
		{"ABC", "16:05", "0.45", "0.5"},
		{"XYZ", "", "", "1.1"},
	}, result.Table.Records())
	for _, row := range result.Table.Rows {
		require.Len(t, row, len(releaseColumns))
	}

	dropped := result.Dropped()
	require.Len(t, dropped, 1)
	require.Equal(t, 2, dropped[0].Index)
	require.Equal(t, "all", dropped[0].Tab)
	require.Contains(t, dropped[0].Raw, "BAD")
	require.ErrorIs(t, dropped[0], scrape.ErrIndexOutOfRange)

	var coercion *scrape.DateCoercionError
	require.Len(t, result.Diagnostics, 2)
	require.True(t, errors.As(result.Diagnostics[0], &coercion))
	require.Equal(t, "report_time", coercion.Field)
	require.Equal(t, "BMO", coercion.Value)
}

func TestReleaseTabParserTextIndexes(t *testing.T) {
	rows, err := extractRows(releasePlusEpsFixture, releaseMarker)
	require.NoError(t, err)

	indexes := DefaultTextIndexes
	indexes.Symbol = 5
	result := releaseTabParser("plus_earnings_surprise", indexes).Parse(rows)
	require.Equal(t, 0, result.Table.Len())
	require.Len(t, result.Dropped(), 1)
}

func TestCalendarTabParsers(t *testing.T) {
	cases := []struct {
		name     string
		tab      CalendarTab
		fixture  string
		expected [][]string
		dropped  int
	}{
		{
			name:    "dividends",
			tab:     CalendarDividends,
			fixture: calendarDividendsFixture,
			expected: [][]string{
				{"symbol", "company", "mcap", "amount", "yield", "ex_div_date", "current_price", "payable_date"},
				{"ABC", "Alpha Beta Corp", "1,234.56", "$0.25", "1.5%", "1/16/2024", "$65.10", "2/1/2024"},
			},
			dropped: 1,
		},
		{
			name:    "revisions",
			tab:     CalendarRevisions,
			fixture: calendarRevisionsFixture,
			expected: [][]string{
				{"symbol", "company", "mcap", "period", "period_end", "old", "new", "est_change", "cons", "new_est_vs_cons"},
				{"ABC", "Alpha Beta Corp", "1,234.56", "Q1", "3/2024", "0.40", "0.45", "+12.50%", "0.42", "+7.14%"},
			},
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			rows, err := extractRows(test.fixture, calendarMarker)
			require.NoError(t, err)

			parser, err := calendarTabParser(test.tab, DefaultTextIndexes)
			require.NoError(t, err)

			result := parser.Parse(rows)
			require.Equal(t, test.expected, result.Table.Records())
			require.Len(t, result.Dropped(), test.dropped)
		})
	}
}

func TestCalendarEarningsSchema(t *testing.T) {
	parser, err := calendarTabParser(CalendarSales, DefaultTextIndexes)
	require.NoError(t, err)

	result := parser.Parse([]any{
		[]any{`<span class="hidden">ABC</span><a>ABC</a>`, `<span>Alpha Beta Corp</span>`, "1,234.56", "AMC", "1.20", "--", "ignored"},
	})
	require.Equal(t, [][]string{
		{"symbol", "company", "mcap", "time", "estimate", "reported", "surprise", "percent_surprise", "percent_price_change"},
		{"ABC", "Alpha Beta Corp", "1,234.56", "AMC", "1.20", "--", "", "", ""},
	}, result.Table.Records())
}

func TestCalendarTranscriptsUnsupported(t *testing.T) {
	_, err := calendarTabParser(CalendarTranscripts, DefaultTextIndexes)
	require.ErrorIs(t, err, ErrUnsupportedTab)

	tab, err := ParseCalendarTab(" Dividends ")
	require.NoError(t, err)
	require.Equal(t, CalendarDividends, tab)

	_, err = ParseCalendarTab("weather")
	require.Error(t, err)
}
