package telemetry

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	recorder := NewRecorder()
	scoped := NewScopedAPI("zacks_scraper", recorder)

	scoped.ReportBroken("client.ensure-authorized", errors.New("status 403"))
	scoped.ReportWarning("client.scrape-earnings-release", "row 3")
	scoped.ReportDebug("found key")
	scoped.ReportCount("client.run-stock-screen", 12)

	broken := recorder.Reports(SeverityBroken, "")
	require.Len(t, broken, 1)
	require.Equal(t, "zacks_scraper: client.ensure-authorized", broken[0].Id)
	require.EqualError(t, broken[0].Params[0].(error), "status 403")

	require.Len(t, recorder.Reports(SeverityWarning, "scrape-earnings-release"), 1)
	require.Empty(t, recorder.Reports(SeverityWarning, "ensure-authorized"))
	require.Equal(t, "zacks_scraper: found key", recorder.Reports(SeverityDebug, "")[0].Id)

	counts := recorder.Reports(SeverityCount, "run-stock-screen")
	require.Len(t, counts, 1)
	require.Equal(t, []any{int64(12)}, counts[0].Params)
}

func TestInstrumentResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer server.Close()

	recorder := NewRecorder()
	client := resty.New()
	InstrumentResty(client, recorder)

	_, err := client.R().Get(server.URL)
	require.NoError(t, err)
	_, err = client.R().Get(server.URL)
	require.NoError(t, err)

	requests := recorder.Reports(SeverityDebug, report_resty_request)
	require.Len(t, requests, 2)
	require.Equal(t, uint64(1), requests[0].Params[0])
	require.Equal(t, uint64(2), requests[1].Params[0])

	responses := recorder.Reports(SeverityDebug, report_resty_response)
	require.Len(t, responses, 2)
	require.Equal(t, "418 I'm a teapot", responses[0].Params[2])

	server.Close()
	_, err = client.R().Get(server.URL)
	require.Error(t, err)
	require.Len(t, recorder.Reports(SeverityBroken, report_resty_response), 1)
}

type memoryOutput map[string]string

func (m memoryOutput) Write(id string, contents string) {
	m[id] = contents
}

func TestDumpResty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Provider", "fake")
		_, _ = w.Write([]byte("<wsh></wsh>"))
	}))
	defer server.Close()

	output := memoryOutput{}
	client := resty.New()
	DumpResty(client, output)

	_, err := client.R().Get(server.URL + "/events?classes=db")
	require.NoError(t, err)
	_, err = client.R().SetBody("username=a").Post(server.URL + "/login")
	require.NoError(t, err)

	require.Len(t, output, 2)
	require.Contains(t, output["1"], "GET "+server.URL+"/events?classes=db")
	require.Contains(t, output["1"], "X-Provider: fake")
	require.Contains(t, output["1"], "<wsh></wsh>")
	require.Contains(t, output["2"], "username=a")

	DumpResty(resty.New(), nil)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	output.Write("1", "contents")
	written, err := os.ReadFile(filepath.Join(dir, "1.txt"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(written))
}

func TestRedactURL(t *testing.T) {
	testCases := []struct {
		raw      string
		expected string
	}{
		{raw: "https://host/ws?c=1&p=pw&v=3", expected: "https://host/ws?c=1&p=REDACTED&v=3"},
		{raw: "https://host/?force_login=true&password=pw", expected: "https://host/?force_login=true&password=REDACTED"},
		{raw: "https://host/?c_key=KEY&ref=screening", expected: "https://host/?c_key=REDACTED&ref=screening"},
		{raw: "https://host/export.php", expected: "https://host/export.php"},
		{raw: "https://host/?type=1", expected: "https://host/?type=1"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, RedactURL(tc.raw), tc.raw)
	}
}

func TestRedactError(t *testing.T) {
	err := fmt.Errorf("request: %w", &url.Error{
		Op:  "Get",
		URL: "http://127.0.0.1/?p=pw",
		Err: errors.New("connection refused"),
	})
	require.Equal(t, `request: Get "http://127.0.0.1/?p=REDACTED": connection refused`, RedactError(err).Error())

	plain := errors.New("plain")
	require.Equal(t, plain, RedactError(plain))
}
