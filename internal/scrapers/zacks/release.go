package zacks

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"stockclients/pkg/table"
)

const report_client_scrape_earnings_release = "client.scrape-earnings-release"

type EarningsReleaseTab int

const (
	ReleaseAll EarningsReleaseTab = iota + 1
	ReleasePlusEarningsSurprise
	ReleaseMinusEarningsSurprise
	ReleasePlusSalesSurprise
	ReleaseMinusSalesSurprise
)

func (t EarningsReleaseTab) String() string {
	switch t {
	case ReleaseAll:
		return "all"
	case ReleasePlusEarningsSurprise:
		return "plus_earnings_surprise"
	case ReleaseMinusEarningsSurprise:
		return "minus_earnings_surprise"
	case ReleasePlusSalesSurprise:
		return "plus_sales_surprise"
	case ReleaseMinusSalesSurprise:
		return "minus_sales_surprise"
	}
	return fmt.Sprintf("release_tab(%d)", int(t))
}

func (t EarningsReleaseTab) sales() bool {
	return t == ReleasePlusSalesSurprise || t == ReleaseMinusSalesSurprise
}

var releaseTabs = []EarningsReleaseTab{
	ReleaseAll,
	ReleasePlusEarningsSurprise,
	ReleaseMinusEarningsSurprise,
	ReleasePlusSalesSurprise,
	ReleaseMinusSalesSurprise,
}

var (
	earningsColumns = map[string]string{
		"ticker":      "hticker",
		"report_time": "eatime",
		"estimate":    "eps_est",
		"reported":    "eps_actual",
	}
	salesColumns = map[string]string{
		"ticker":      "hticker",
		"report_time": "eatime",
		"estimate":    "sales_est",
		"reported":    "sales_actual",
	}
)

// siteEndpoint resolves path against the site url with the given query.
func (c *Client) siteEndpoint(path string, query url.Values) string {
	return c.siteURL + path + "?" + query.Encode()
}

func (c *Client) fetchReleaseTab(ctx context.Context, tab EarningsReleaseTab, ts time.Time) (string, error) {
	query := url.Values{}
	query.Set("type", strconv.Itoa(int(tab)))
	query.Set("timestamp", strconv.FormatInt(ts.Unix(), 10))
	query.Set("_", strconv.FormatInt(c.time.Now().Unix(), 10))

	res, err := c.get(ctx, "earnings release "+tab.String(), c.siteEndpoint("/research/earnings/z2_earnings_tab_data.php", query))
	if err != nil {
		return "", err
	}
	return res.String(), nil
}

// ScrapeEarningsRelease fetches every earnings release tab for the day of ts and merges
// them into one table keyed by (hticker, eatime), with eadate stamped as the second
// column. A ticker present in only the earnings or only the sales views keeps nulls in
// the other view's columns.
func (c *Client) ScrapeEarningsRelease(ctx context.Context, ts time.Time) (*table.Table, error) {
	err := c.EnsureAuthorized(ctx)
	if err != nil {
		return nil, err
	}

	var earnings, sales []*table.Table
	for _, tab := range releaseTabs {
		raw, err := c.fetchReleaseTab(ctx, tab, ts)
		if err != nil {
			c.tel.ReportBroken(report_client_scrape_earnings_release, err)
			return nil, err
		}
		rows, err := extractRows(raw, releaseMarker)
		if err != nil {
			c.tel.ReportBroken(report_client_scrape_earnings_release, err, "tab", tab.String())
			return nil, fmt.Errorf("earnings release %s: %w", tab, err)
		}

		result := releaseTabParser(tab.String(), c.indexes).Parse(rows)
		for _, diagnostic := range result.Diagnostics {
			c.tel.ReportWarning(report_client_scrape_earnings_release, diagnostic)
		}

		if tab.sales() {
			sales = append(sales, result.Table.Rename(salesColumns))
			continue
		}
		earnings = append(earnings, result.Table.Rename(earningsColumns))
	}

	return mergeRelease(table.Concat(earnings...), table.Concat(sales...), ts)
}

func mergeRelease(earnings, sales *table.Table, ts time.Time) (*table.Table, error) {
	merged, err := table.OuterJoin(earnings, sales, "hticker", "eatime")
	if err != nil {
		return nil, err
	}
	merged.SetColumn("eadate", table.Date(ts))
	err = merged.MoveColumn("eadate", 1)
	if err != nil {
		return nil, err
	}
	return merged.DropDuplicates(), nil
}
