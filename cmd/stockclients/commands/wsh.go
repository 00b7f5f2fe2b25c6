package commands

import (
	"errors"
	"fmt"
	"strings"

	"stockclients/internal/components/telemetry"
	"stockclients/internal/scrapers/wsh"
	"stockclients/pkg/serviceutil"

	"github.com/spf13/cobra"
)

var (
	wshClasses *[]string
	wshFrom    *string
	wshTo      *string
	wshSymbols *string
)

func init() {
	wshClasses = wshCmd.Flags().StringSlice("classes", []string{"db"}, "The event classes to fetch, ex. db,ed.")
	wshFrom = wshCmd.Flags().String("from", "", "The first day as MM/DD/YYYY.")
	wshTo = wshCmd.Flags().String("to", "", "The last day as MM/DD/YYYY, defaults to --from.")
	wshSymbols = wshCmd.Flags().String("symbols", "*", "Comma separated tickers.")
	rootCmd.AddCommand(wshCmd)
}

var wshCmd = &cobra.Command{
	Use:   "wsh --from MM/DD/YYYY [--to MM/DD/YYYY] [--classes db,ed] [--symbols AAPL,MSFT]",
	Short: "Fetches corporate events from Wall Street Horizon, one table per event class.",
	Run: func(cmd *cobra.Command, args []string) {
		if *wshFrom == "" {
			serviceutil.Fatal("missing date range", errors.New("--from is required"))
		}
		to := *wshTo
		if to == "" {
			to = *wshFrom
		}

		cfg, err := loadConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if cfg.WSH.CustomerID == "" {
			serviceutil.Fatal("missing wsh credentials", errors.New("set wsh.customer_id in the config or WSH_CUSTOMER_ID"))
		}

		cache, closeCache, err := openCache(cfg.WSH)
		if err != nil {
			serviceutil.Fatal("failed to open response cache", err)
		}
		defer closeCache()

		client := wsh.NewClient(wsh.Options{
			CustomerID: cfg.WSH.CustomerID,
			Password:   cfg.WSH.Password,
			MaxDays:    cfg.WSH.MaxDays,
			Cache:      cache,
			Telemetry:  telemetry.SlogAPI{},
			Dump:       dumpOutput(),
		})

		tables, err := client.RunQuery(cmd.Context(), wsh.Query{
			Classes: *wshClasses,
			From:    *wshFrom,
			To:      to,
			Symbols: *wshSymbols,
		})
		if err != nil {
			serviceutil.Fatal("failed to query wsh", err)
		}

		out := cmd.OutOrStdout()
		for _, class := range *wshClasses {
			events, ok := tables[strings.TrimSpace(class)]
			if !ok {
				continue
			}
			if !*csvOutput {
				fmt.Fprintf(out, "%s (%d events)\n", class, events.Len())
			}
			err = writeTable(out, events)
			if err != nil {
				serviceutil.Fatal("failed to write results", err)
			}
		}
	},
}
