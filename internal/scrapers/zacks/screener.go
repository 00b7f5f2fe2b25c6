package zacks

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"strings"

	"stockclients/internal/scrapers/scrape"

	"github.com/PuerkitoBio/goquery"
)

const report_client_run_stock_screen = "client.run-stock-screen"

const (
	stageScreenerPage  = "screener page"
	stageBindKey       = "bind session key"
	stageResetQuery    = "reset query"
	stageSubmitQuery   = "submit query"
	stageDownloadData  = "download results"
	screenerPagePath   = "/screening/stock-screener"
	screenerSessionKey = "c_key"
)

// findSessionKey pulls the c_key query parameter out of the first iframe of the
// screener landing page.
func findSessionKey(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", err
	}

	iframe := doc.Find("iframe").First()
	if iframe.Length() == 0 {
		return "", &scrape.MissingSessionKeyError{Reason: "no iframe on the screener page"}
	}
	src, ok := iframe.Attr("src")
	if !ok || src == "" {
		return "", &scrape.MissingSessionKeyError{Reason: "iframe has no src attribute"}
	}

	parsed, err := url.Parse(src)
	if err != nil {
		return "", &scrape.MissingSessionKeyError{Reason: fmt.Sprintf("iframe src %q: %v", src, err)}
	}
	key := parsed.Query().Get(screenerSessionKey)
	if key == "" {
		return "", &scrape.MissingSessionKeyError{Reason: fmt.Sprintf("no %s in iframe src", screenerSessionKey)}
	}
	return key, nil
}

// RunStockScreen runs a screen with the given criteria and returns the exported result
// set as raw csv records, header first. Each stage fails fast with the stage name in
// its error.
func (c *Client) RunStockScreen(ctx context.Context, configs []FieldConfig) ([][]string, error) {
	records, err := c.runStockScreen(ctx, configs)
	if err != nil {
		c.tel.ReportBroken(report_client_run_stock_screen, err)
		return nil, err
	}
	c.tel.ReportCount(report_client_run_stock_screen, int64(len(records)))
	return records, nil
}

func (c *Client) runStockScreen(ctx context.Context, configs []FieldConfig) ([][]string, error) {
	fields, err := c.registry.BuildQuery(c.tel, DefaultBaseParams(), configs)
	if err != nil {
		return nil, err
	}

	err = c.EnsureAuthorized(ctx)
	if err != nil {
		return nil, err
	}

	res, err := c.get(ctx, stageScreenerPage, c.siteURL+screenerPagePath)
	if err != nil {
		return nil, err
	}
	key, err := findSessionKey(res.String())
	if err != nil {
		return nil, err
	}
	c.tel.ReportDebug("found screener session key")

	bind := url.Values{}
	bind.Set("scr_type", "stock")
	bind.Set("c_id", "zacks")
	bind.Set(screenerSessionKey, key)
	bind.Set("ref", "screening")
	_, err = c.get(ctx, stageBindKey, c.screenerURL+"/?"+bind.Encode())
	if err != nil {
		return nil, err
	}

	_, err = c.get(ctx, stageResetQuery, c.screenerURL+"/reset_param.php")
	if err != nil {
		return nil, err
	}

	contentType, body, err := EncodeMultipart(fields)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stageSubmitQuery, err)
	}
	submitURL := c.screenerURL + "/getrunscreendata.php"
	submit, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(body).
		Post(submitURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stageSubmitQuery, err)
	}
	if !submit.IsSuccess() {
		return nil, &scrape.HTTPStatusError{Stage: stageSubmitQuery, URL: submitURL, Status: submit.StatusCode()}
	}

	res, err = c.get(ctx, stageDownloadData, c.screenerURL+"/export.php")
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(res.String()))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: parse csv: %w", stageDownloadData, err)
	}
	return records, nil
}
