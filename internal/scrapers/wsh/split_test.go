package wsh

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSplitDateRangeScenario(t *testing.T) {
	intervals, err := SplitDateRange("01/01/2023", "01/10/2023", 7)
	require.NoError(t, err)

	var pairs [][2]string
	for _, i := range intervals {
		pairs = append(pairs, [2]string{i.From(), i.To()})
	}
	require.Equal(t, [][2]string{
		{"01/01/2023", "01/08/2023"},
		{"01/09/2023", "01/10/2023"},
	}, pairs)
}

func TestSplitDateRangeProperties(t *testing.T) {
	cases := []struct {
		start   string
		end     string
		maxDays int
	}{
		{start: "01/01/2023", end: "01/01/2023", maxDays: 7},
		{start: "01/01/2023", end: "01/02/2023", maxDays: 1},
		{start: "12/25/2023", end: "01/20/2024", maxDays: 7},
		{start: "02/20/2024", end: "03/05/2024", maxDays: 3},
		{start: "01/01/2023", end: "12/31/2023", maxDays: 30},
		{start: "03/01/2023", end: "03/31/2023", maxDays: 100},
	}

	for _, test := range cases {
		intervals, err := SplitDateRange(test.start, test.end, test.maxDays)
		require.NoError(t, err, test)
		require.NotEmpty(t, intervals, test)

		require.Equal(t, test.start, intervals[0].From(), test)
		require.Equal(t, test.end, intervals[len(intervals)-1].To(), test)

		for i, interval := range intervals {
			require.False(t, interval.End.Before(interval.Start), test)
			span := interval.End.Sub(interval.Start)
			require.LessOrEqual(t, span, time.Duration(test.maxDays)*24*time.Hour, test)

			if i > 0 {
				require.Equal(t, intervals[i-1].End.AddDate(0, 0, 1), interval.Start, test)
			}
		}
	}

	single, err := SplitDateRange("06/15/2023", "06/15/2023", 7)
	require.NoError(t, err)
	require.Len(t, single, 1)
}

func TestSplitDateRangeInvalid(t *testing.T) {
	cases := []struct {
		start   string
		end     string
		maxDays int
	}{
		{start: "01/10/2023", end: "01/01/2023", maxDays: 7},
		{start: "2023-01-01", end: "01/10/2023", maxDays: 7},
		{start: "01/01/2023", end: "13/40/2023", maxDays: 7},
		{start: "01/01/2023", end: "01/10/2023", maxDays: 0},
	}
	for _, test := range cases {
		_, err := SplitDateRange(test.start, test.end, test.maxDays)
		require.Error(t, err, test)
	}
}
