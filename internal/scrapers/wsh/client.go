// Package wsh queries the Wall Street Horizon event calendar web service. Date ranges
// wider than the provider allows are split into chunks, each chunk is fetched once per
// event class and the typed results are concatenated per class.
package wsh

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"stockclients/internal/components/assert"
	"stockclients/internal/components/chrono"
	"stockclients/internal/components/respcache"
	"stockclients/internal/components/telemetry"
	"stockclients/internal/scrapers/scrape"
	"stockclients/pkg/table"

	"github.com/go-resty/resty/v2"
)

const (
	report_client_fetch     = "client.fetch"
	report_client_run_query = "client.run-query"
)

const DefaultBaseURL = "https://enchilada.wallstreethorizon.com/webservice6.asp"

type Options struct {
	CustomerID string
	Password   string

	// BaseURL defaults to the production endpoint.
	BaseURL string
	// MaxDays is the widest chunk requested at once, it defaults to DefaultMaxDays.
	MaxDays int
	// Timeout defaults to 30 seconds.
	Timeout time.Duration

	// Cache serves repeated requests for the exact same url without touching the
	// network, nil disables caching.
	Cache respcache.Store

	Telemetry telemetry.API
	// Dump receives every request/response pair when set.
	Dump telemetry.DumpOutput
	// Location dates and times are localized to, it defaults to the provider zone.
	Location *time.Location
}

type Client struct {
	http       *resty.Client
	baseURL    string
	customerID string
	password   string
	maxDays    int
	cache      respcache.Store
	location   *time.Location
	tel        telemetry.API
}

func NewClient(opts Options) *Client {
	assert.NotNil(opts.Telemetry)
	assert.NotEmptyStr(opts.CustomerID)

	tel := telemetry.NewScopedAPI("wsh_client", opts.Telemetry)

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.MaxDays == 0 {
		opts.MaxDays = DefaultMaxDays
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Location == nil {
		opts.Location = chrono.ProviderLocation()
	}

	httpClient := resty.New()
	httpClient.SetTimeout(opts.Timeout)
	telemetry.InstrumentResty(httpClient, tel)
	telemetry.DumpResty(httpClient, opts.Dump)

	return &Client{
		http:       httpClient,
		baseURL:    opts.BaseURL,
		customerID: opts.CustomerID,
		password:   opts.Password,
		maxDays:    opts.MaxDays,
		cache:      opts.Cache,
		location:   opts.Location,
		tel:        tel,
	}
}

// Query selects the events to fetch, From and To are inclusive MM/DD/YYYY dates.
type Query struct {
	Classes []string
	From    string
	To      string
	// Symbols is a comma separated list of tickers, it defaults to "*" (every symbol).
	Symbols string
}

func (c *Client) requestURL(class, symbols string, interval Interval) string {
	params := url.Values{}
	params.Set("c", c.customerID)
	params.Set("p", c.password)
	params.Set("stock_symbols", symbols)
	params.Set("classes", class)
	params.Set("from", interval.From())
	params.Set("to", interval.To())
	params.Set("v", "3")
	params.Set("o", "EVENTS,EMPTY_TAGS")
	return c.baseURL + "?" + params.Encode()
}

// fetch returns the body for requestURL, from the cache when it holds the exact url.
// Only successful responses are cached.
func (c *Client) fetch(ctx context.Context, requestURL string) (string, error) {
	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, requestURL)
		if err != nil {
			return "", fmt.Errorf("wsh: read cache: %w", err)
		}
		if ok {
			c.tel.ReportDebug("cache hit")
			return cached, nil
		}
	}

	res, err := c.http.R().
		SetContext(ctx).
		Get(requestURL)
	if err != nil {
		return "", fmt.Errorf("wsh: request: %w", telemetry.RedactError(err))
	}
	if !res.IsSuccess() {
		return "", &scrape.HTTPStatusError{Stage: "wsh query", URL: c.baseURL, Status: res.StatusCode()}
	}

	body := res.String()
	if c.cache != nil {
		err = c.cache.Put(ctx, requestURL, body)
		if err != nil {
			c.tel.ReportWarning(report_client_fetch, fmt.Errorf("write cache: %w", err))
		}
	}
	return body, nil
}

// RunQuery fetches every chunk of the date range for every class, one request at a
// time, and returns one table per event class found in the responses. Rows are not
// deduplicated across chunks.
func (c *Client) RunQuery(ctx context.Context, query Query) (map[string]*table.Table, error) {
	tables, err := c.runQuery(ctx, query)
	if err != nil {
		c.tel.ReportBroken(report_client_run_query, err)
		return nil, err
	}
	return tables, nil
}

func (c *Client) runQuery(ctx context.Context, query Query) (map[string]*table.Table, error) {
	if len(query.Classes) == 0 {
		return nil, fmt.Errorf("wsh: no event classes requested")
	}
	symbols := query.Symbols
	if symbols == "" {
		symbols = "*"
	}

	intervals, err := SplitDateRange(query.From, query.To, c.maxDays)
	if err != nil {
		return nil, fmt.Errorf("wsh: %w", err)
	}

	var order []string
	chunks := map[string][]*table.Table{}
	for _, interval := range intervals {
		for _, class := range query.Classes {
			body, err := c.fetch(ctx, c.requestURL(class, symbols, interval))
			if err != nil {
				return nil, err
			}

			results, classes, err := parseResponse(body, c.location)
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", class, interval, err)
			}
			for _, parsed := range classes {
				result := results[parsed]
				for _, diagnostic := range result.Diagnostics {
					c.tel.ReportWarning(report_client_run_query, diagnostic)
				}
				if _, ok := chunks[parsed]; !ok {
					order = append(order, parsed)
				}
				chunks[parsed] = append(chunks[parsed], result.Table)
			}
		}
	}

	tables := make(map[string]*table.Table, len(order))
	for _, class := range order {
		tables[class] = table.Concat(chunks[class]...)
		c.tel.ReportCount(report_client_run_query, int64(tables[class].Len()))
	}
	return tables, nil
}
