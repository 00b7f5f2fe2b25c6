package zacks

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"stockclients/pkg/table"
)

const report_client_scrape_earnings_calendar = "client.scrape-earnings-calendar"

// ErrUnsupportedTab is returned for calendar tabs that have no row parser.
var ErrUnsupportedTab = errors.New("unsupported calendar tab")

// CalendarTab is one view of the earnings calendar, the value is the provider's type code.
type CalendarTab int

const (
	CalendarEarnings    CalendarTab = 1
	CalendarRevisions   CalendarTab = 3
	CalendarSplits      CalendarTab = 4
	CalendarDividends   CalendarTab = 5
	CalendarGuidance    CalendarTab = 6
	CalendarTranscripts CalendarTab = 8
	CalendarSales       CalendarTab = 9
)

var calendarTabNames = map[CalendarTab]string{
	CalendarEarnings:    "earnings",
	CalendarSales:       "sales",
	CalendarGuidance:    "guidance",
	CalendarRevisions:   "revisions",
	CalendarDividends:   "dividends",
	CalendarSplits:      "splits",
	CalendarTranscripts: "transcripts",
}

func (t CalendarTab) String() string {
	name, ok := calendarTabNames[t]
	if !ok {
		return fmt.Sprintf("calendar_tab(%d)", int(t))
	}
	return name
}

// ParseCalendarTab resolves a tab by name, ex. "dividends".
func ParseCalendarTab(name string) (CalendarTab, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for tab, tabName := range calendarTabNames {
		if tabName == name {
			return tab, nil
		}
	}
	return 0, fmt.Errorf("unknown calendar tab %q", name)
}

// ScrapeEarningsCalendar fetches and parses one tab of the earnings calendar for the
// day of date.
func (c *Client) ScrapeEarningsCalendar(ctx context.Context, tab CalendarTab, date time.Time) (*table.Table, error) {
	parser, err := calendarTabParser(tab, c.indexes)
	if err != nil {
		return nil, err
	}

	err = c.EnsureAuthorized(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("calltype", "eventscal")
	query.Set("date", strconv.FormatInt(date.Unix(), 10))
	query.Set("type", strconv.Itoa(int(tab)))
	query.Set("search_trigger", "0")
	query.Set("_", strconv.FormatInt(c.time.Now().Unix(), 10))

	res, err := c.get(ctx, "earnings calendar "+tab.String(), c.siteEndpoint("/includes/classes/z2_class_calendarfunctions_data.php", query))
	if err != nil {
		c.tel.ReportBroken(report_client_scrape_earnings_calendar, err)
		return nil, err
	}

	rows, err := extractRows(res.String(), calendarMarker)
	if err != nil {
		c.tel.ReportBroken(report_client_scrape_earnings_calendar, err, "tab", tab.String())
		return nil, fmt.Errorf("earnings calendar %s: %w", tab, err)
	}

	result := parser.Parse(rows)
	for _, diagnostic := range result.Diagnostics {
		c.tel.ReportWarning(report_client_scrape_earnings_calendar, diagnostic)
	}
	return result.Table, nil
}
