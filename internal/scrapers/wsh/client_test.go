package wsh

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"stockclients/internal/components/respcache"
	"stockclients/internal/components/telemetry"
	"stockclients/internal/scrapers/scrape"

	"github.com/stretchr/testify/require"
)

//go:embed testdata/db_events.xml
var dbEventsFixture string

//go:embed testdata/ed_events.xml
var edEventsFixture string

var est = time.FixedZone("EST", -5*60*60)

type fakeService struct {
	mutex    sync.Mutex
	requests []string
	status   int
	bodies   map[string]string
}

func (f *fakeService) server(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		require.Equal(t, "customer", query.Get("c"))
		require.Equal(t, "secret", query.Get("p"))
		require.Equal(t, "3", query.Get("v"))
		require.Equal(t, "EVENTS,EMPTY_TAGS", query.Get("o"))

		f.mutex.Lock()
		f.requests = append(f.requests, query.Get("classes")+" "+query.Get("from")+"-"+query.Get("to"))
		status := f.status
		f.mutex.Unlock()

		if status != 0 {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "text/xml")
		_, _ = w.Write([]byte(f.bodies[query.Get("classes")]))
	}))
}

func newTestClient(baseURL string, cache respcache.Store) (*Client, *telemetry.Recorder) {
	tel := telemetry.NewRecorder()
	return NewClient(Options{
		CustomerID: "customer",
		Password:   "secret",
		BaseURL:    baseURL,
		Cache:      cache,
		Telemetry:  tel,
		Location:   est,
	}), tel
}

func TestRunQuery(t *testing.T) {
	service := &fakeService{bodies: map[string]string{"db": dbEventsFixture, "ed": edEventsFixture}}
	server := service.server(t)
	defer server.Close()

	client, tel := newTestClient(server.URL, nil)

	tables, err := client.RunQuery(context.Background(), Query{
		Classes: []string{"db", "ed"},
		From:    "01/01/2023",
		To:      "01/10/2023",
	})
	require.NoError(t, err)

	require.Equal(t, []string{
		"db 01/01/2023-01/08/2023",
		"ed 01/01/2023-01/08/2023",
		"db 01/09/2023-01/10/2023",
		"ed 01/09/2023-01/10/2023",
	}, service.requests)

	require.Len(t, tables, 2)

	db := tables["db"]
	require.Equal(t, 2, db.Len(), "chunks are concatenated, not deduplicated")
	require.Equal(t, []string{
		"event_id", "company_id", "stock_symbol", "isin", "company_name",
		"created", "updated", "return_time", "fiscal_year", "confirmed_date_zscore",
		"earnings_date", "prior_earnings_date", "time_of_day", "same_store_sales",
	}, db.Columns)
	require.Equal(t, []string{
		"1001", "42", "ABC", "US0000000001", "Alpha Beta Corp",
		"20230103163000", "20230104160510", "20230105090000", "2023", "1.25",
		"20230124", "", "AMC", "",
	}, db.Records()[1])

	row := db.Rows[0]
	companyID, ok := row["company_id"].Int()
	require.True(t, ok)
	require.Equal(t, int64(42), companyID)
	created, ok := row["created"].Time()
	require.True(t, ok)
	require.Equal(t, est, created.Location())
	require.True(t, row["prior_earnings_date"].IsNull())
	require.True(t, row["same_store_sales"].IsNull())

	ed := tables["ed"]
	require.Equal(t, 2, ed.Len())
	require.Equal(t, []string{
		"2001", "42", "ABC", "US0000000001", "Alpha Beta Corp",
		"20230103080000", "", "20230105121500", "20230124", "2023", "4",
	}, ed.Records()[1])

	// per db response: the unparseable prior earnings date and the row with a bad company id
	warnings := tel.Reports(telemetry.SeverityWarning, report_client_run_query)
	require.Len(t, warnings, 4)
	var dropped, coerced int
	for _, w := range warnings {
		switch w.Params[0].(type) {
		case *scrape.RowParseError:
			dropped++
		case *scrape.DateCoercionError:
			coerced++
		}
	}
	require.Equal(t, 2, dropped)
	require.Equal(t, 2, coerced)
}

func TestFetchUsesCache(t *testing.T) {
	service := &fakeService{bodies: map[string]string{"db": dbEventsFixture}}
	server := service.server(t)
	defer server.Close()

	cache := respcache.NewMemory()
	client, _ := newTestClient(server.URL, cache)
	ctx := context.Background()

	interval := Interval{
		Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 1, 8, 0, 0, 0, 0, time.UTC),
	}
	requestURL := client.requestURL("db", "*", interval)

	first, err := client.fetch(ctx, requestURL)
	require.NoError(t, err)
	second, err := client.fetch(ctx, requestURL)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Len(t, service.requests, 1)
	require.Equal(t, 1, cache.Len())
}

func TestFetchDoesNotCacheFailures(t *testing.T) {
	service := &fakeService{status: http.StatusServiceUnavailable}
	server := service.server(t)
	defer server.Close()

	cache := respcache.NewMemory()
	client, tel := newTestClient(server.URL, cache)

	_, err := client.RunQuery(context.Background(), Query{
		Classes: []string{"db"},
		From:    "01/01/2023",
		To:      "01/02/2023",
	})
	var statusErr *scrape.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusServiceUnavailable, statusErr.Status)
	require.NotContains(t, statusErr.Error(), "secret")
	require.Equal(t, 0, cache.Len())
	require.Len(t, tel.Reports(telemetry.SeverityBroken, report_client_run_query), 1)
}

func TestRunQueryFileCacheAcrossClients(t *testing.T) {
	service := &fakeService{bodies: map[string]string{"ed": edEventsFixture}}
	server := service.server(t)
	defer server.Close()

	path := filepath.Join(t.TempDir(), respcache.DefaultFilename)
	query := Query{Classes: []string{"ed"}, From: "01/01/2023", To: "01/20/2023", Symbols: "ABC"}

	client, _ := newTestClient(server.URL, respcache.NewFileStore(path))
	first, err := client.RunQuery(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, service.requests, 3)

	client, _ = newTestClient(server.URL, respcache.NewFileStore(path))
	second, err := client.RunQuery(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, service.requests, 3)

	require.Equal(t, first["ed"].Records(), second["ed"].Records())
}

func TestRunQueryProviderError(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		message string
	}{
		{name: "root", body: `<error>Invalid customer id</error>`, message: "Invalid customer id"},
		{name: "child", body: `<wsh><error>Quota exceeded</error></wsh>`, message: "Quota exceeded"},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			service := &fakeService{bodies: map[string]string{"db": test.body}}
			server := service.server(t)
			defer server.Close()

			client, _ := newTestClient(server.URL, nil)
			_, err := client.RunQuery(context.Background(), Query{
				Classes: []string{"db"},
				From:    "01/01/2023",
				To:      "01/01/2023",
			})
			var providerErr *ProviderError
			require.ErrorAs(t, err, &providerErr)
			require.Equal(t, test.message, providerErr.Message)
		})
	}
}

func TestCoerceField(t *testing.T) {
	cases := []struct {
		class    string
		field    string
		text     string
		expected string
		note     bool
		err      bool
	}{
		{class: "db", field: "fiscal_year", text: "2024", expected: "2024"},
		{class: "db", field: "fiscal_year", text: "FY24", err: true},
		{class: "ed", field: "confirmed_date_zscore", text: "high", expected: "high"},
		{class: "db", field: "confirmed_date_zscore", text: "-0.5", expected: "-0.5"},
		{class: "db", field: "confirmed_date_zscore", text: "high", err: true},
		{class: "ed", field: "filing_due_date", text: "2/9/2024", expected: "20240209"},
		{class: "ed", field: "filing_due_date", text: "soon", expected: "", note: true},
		{class: "xx", field: "return_time", text: "02/09/2024 12:00:00 AM", expected: "20240209000000"},
		{class: "xx", field: "isin", text: "  ", expected: ""},
		{class: "xx", field: "company_id", text: "7", expected: "7"},
	}

	for _, test := range cases {
		value, note, err := coerceField(test.class, test.field, test.text, est)
		if test.err {
			require.Error(t, err, test)
			continue
		}
		require.NoError(t, err, test)
		require.Equal(t, test.expected, value.Text(), test)
		if test.note {
			var coercion *scrape.DateCoercionError
			require.ErrorAs(t, note, &coercion, test)
		} else {
			require.NoError(t, note, test)
		}
	}
}

func TestTransportErrorHidesPassword(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client, tel := newTestClient(server.URL, nil)
	_, err := client.RunQuery(context.Background(), Query{
		Classes: []string{"db"},
		From:    "01/01/2023",
		To:      "01/02/2023",
	})
	require.Error(t, err)
	require.NotContains(t, err.Error(), "secret")
	require.Contains(t, err.Error(), "p=REDACTED")

	severities := []telemetry.Severity{
		telemetry.SeverityDebug,
		telemetry.SeverityWarning,
		telemetry.SeverityBroken,
	}
	for _, severity := range severities {
		for _, report := range tel.Reports(severity, "") {
			require.NotContains(t, fmt.Sprint(report.Params...), "secret", report.Id)
		}
	}
	require.NotEmpty(t, tel.Reports(telemetry.SeverityBroken, report_client_run_query))
}

type memoryDump map[string]string

func (m memoryDump) Write(id string, contents string) {
	m[id] = contents
}

func TestDumpedQuery(t *testing.T) {
	service := &fakeService{bodies: map[string]string{"db": dbEventsFixture}}
	server := service.server(t)
	defer server.Close()

	dump := memoryDump{}
	client := NewClient(Options{
		CustomerID: "customer",
		Password:   "secret",
		BaseURL:    server.URL,
		Telemetry:  telemetry.NewRecorder(),
		Dump:       dump,
		Location:   est,
	})
	tables, err := client.RunQuery(context.Background(), Query{
		Classes: []string{"db"},
		From:    "01/01/2023",
		To:      "01/02/2023",
	})
	require.NoError(t, err)
	require.Contains(t, tables, "db")

	require.Len(t, dump, 1)
	require.Contains(t, dump["1"], "---- RESPONSE ----")
	require.NotContains(t, dump["1"], "secret")
}
