package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"stockclients/internal/components/chrono"
	"stockclients/internal/components/telemetry"
	"stockclients/internal/scrapers/zacks"
	"stockclients/pkg/serviceutil"
	"stockclients/pkg/table"

	"github.com/spf13/cobra"
	"github.com/titanous/json5"
)

var (
	screenQuery  *string
	releaseDate  *string
	calendarTab  *string
	calendarDate *string
)

func init() {
	screenQuery = screenCmd.Flags().String("query", "screen.json5", "A json5 list of {id, value, operator} criteria.")
	releaseDate = earningsReleaseCmd.Flags().String("date", "", "The day to scrape as YYYY-MM-DD, defaults to today.")
	calendarTab = earningsCalendarCmd.Flags().String("tab", "earnings", "One of earnings, sales, guidance, revisions, dividends, splits.")
	calendarDate = earningsCalendarCmd.Flags().String("date", "", "The day to scrape as YYYY-MM-DD, defaults to today.")

	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(earningsReleaseCmd)
	rootCmd.AddCommand(earningsCalendarCmd)
}

func createZacksClient() *zacks.Client {
	cfg, err := loadConfig()
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if cfg.Zacks.Username == "" {
		serviceutil.Fatal("missing zacks credentials", errors.New("set zacks.username in the config or ZACKS_USERNAME"))
	}

	slog.Info("scraping zacks using user", "username", cfg.Zacks.Username)
	client, err := zacks.NewClient(zacks.Options{
		Username:          cfg.Zacks.Username,
		Password:          cfg.Zacks.Password,
		Proxy:             cfg.Zacks.Proxy,
		BypassCloudflare:  cfg.Zacks.BypassCloudflare,
		RequestsPerSecond: cfg.Zacks.RequestsPerSec,
		Telemetry:         telemetry.SlogAPI{},
		Dump:              dumpOutput(),
	})
	if err != nil {
		serviceutil.Fatal("failed to initialize zacks client", err)
	}
	return client
}

// parseDay reads YYYY-MM-DD in the provider zone, blank means today.
func parseDay(value string) (time.Time, error) {
	clock := chrono.Provider()
	if value == "" {
		now := clock.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, clock.Location()), nil
	}
	return time.ParseInLocation(time.DateOnly, value, clock.Location())
}

func recordsTable(records [][]string) *table.Table {
	if len(records) == 0 {
		return table.New()
	}
	out := table.New(records[0]...)
	for _, record := range records[1:] {
		row := table.Row{}
		for i, column := range out.Columns {
			if i < len(record) {
				row[column] = table.String(record[i])
			}
		}
		// the header fixes the schema, extra trailing cells are ignored
		_ = out.Append(row)
	}
	return out
}

var screenCmd = &cobra.Command{
	Use:   "screen [--query <path/to/criteria.json5>]",
	Short: "Runs a stock screen and prints the exported result set.",
	Run: func(cmd *cobra.Command, args []string) {
		contents, err := os.ReadFile(*screenQuery)
		if err != nil {
			serviceutil.Fatal("failed to read query", err)
		}
		var configs []zacks.FieldConfig
		err = json5.Unmarshal(contents, &configs)
		if err != nil {
			serviceutil.Fatal("failed to parse query", err)
		}

		client := createZacksClient()
		records, err := client.RunStockScreen(cmd.Context(), configs)
		if err != nil {
			serviceutil.Fatal("failed to run stock screen", err)
		}
		err = writeTable(cmd.OutOrStdout(), recordsTable(records))
		if err != nil {
			serviceutil.Fatal("failed to write results", err)
		}
	},
}

var earningsReleaseCmd = &cobra.Command{
	Use:   "earnings-release [--date YYYY-MM-DD]",
	Short: "Scrapes the earnings releases of a day, merging the earnings and sales surprise views.",
	Run: func(cmd *cobra.Command, args []string) {
		day, err := parseDay(*releaseDate)
		if err != nil {
			serviceutil.Fatal("invalid date", err)
		}

		client := createZacksClient()
		t1 := time.Now()
		releases, err := client.ScrapeEarningsRelease(cmd.Context(), day)
		if err != nil {
			serviceutil.Fatal("failed to scrape earnings releases", err)
		}
		slog.Info("scraping time", "seconds", time.Since(t1).Seconds(), "rows", releases.Len())

		err = writeTable(cmd.OutOrStdout(), releases)
		if err != nil {
			serviceutil.Fatal("failed to write results", err)
		}
	},
}

var earningsCalendarCmd = &cobra.Command{
	Use:   "earnings-calendar [--tab <name>] [--date YYYY-MM-DD]",
	Short: "Scrapes one tab of the earnings calendar for a day.",
	Run: func(cmd *cobra.Command, args []string) {
		tab, err := zacks.ParseCalendarTab(*calendarTab)
		if err != nil {
			serviceutil.Fatal("invalid tab", err)
		}
		day, err := parseDay(*calendarDate)
		if err != nil {
			serviceutil.Fatal("invalid date", err)
		}

		client := createZacksClient()
		events, err := client.ScrapeEarningsCalendar(cmd.Context(), tab, day)
		if err != nil {
			serviceutil.Fatal(fmt.Sprintf("failed to scrape %s calendar", tab), err)
		}
		err = writeTable(cmd.OutOrStdout(), events)
		if err != nil {
			serviceutil.Fatal("failed to write results", err)
		}
	},
}
