// Package zacks scrapes the zacks.com stock screener, earnings release and earnings
// calendar pages behind a logged-in session.
package zacks

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http/cookiejar"
	"sync"
	"time"

	"stockclients/internal/components/assert"
	"stockclients/internal/components/chrono"
	"stockclients/internal/components/telemetry"
	"stockclients/internal/scrapers/scrape"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	report_client_ensure_authorized = "client.ensure-authorized"
)

const (
	DefaultSiteURL     = "https://www.zacks.com"
	DefaultScreenerURL = "https://screener-api.zacks.com"

	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/106.0.0.0 Safari/537.36"
	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.9"
)

type Options struct {
	Username string
	Password string

	// SiteURL and ScreenerURL default to the production hosts.
	SiteURL     string
	ScreenerURL string

	// Proxy routes every request through a debugging proxy (ex. http://localhost:8888),
	// certificate verification is disabled when it is set.
	Proxy string
	// BypassCloudflare wraps the transport with browser-like TLS settings and headers.
	// It is ignored when Proxy is set.
	BypassCloudflare bool

	// Timeout defaults to 30 seconds.
	Timeout time.Duration
	// RequestsPerSecond defaults to 2, a negative value disables pacing.
	RequestsPerSecond float64

	// TextIndexes defaults to DefaultTextIndexes.
	TextIndexes *TextIndexes

	Telemetry telemetry.API
	// Dump receives every request/response pair when set.
	Dump telemetry.DumpOutput
	// Time defaults to a clock in the provider zone.
	Time chrono.API
}

type authState int

const (
	unauthorized authState = iota
	authorized
)

// Client owns one logged-in session, the cookie jar and default headers are
// created once and reused for the lifetime of the client.
type Client struct {
	http        *resty.Client
	siteURL     string
	screenerURL string
	username    string
	password    string
	indexes     TextIndexes
	registry    *Registry
	time        chrono.API
	tel         telemetry.API

	authMutex sync.Mutex
	state     authState
}

func NewClient(opts Options) (*Client, error) {
	assert.NotNil(opts.Telemetry)
	assert.NotEmptyStr(opts.Username)

	tel := telemetry.NewScopedAPI("zacks_scraper", opts.Telemetry)

	if opts.SiteURL == "" {
		opts.SiteURL = DefaultSiteURL
	}
	if opts.ScreenerURL == "" {
		opts.ScreenerURL = DefaultScreenerURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Time == nil {
		opts.Time = chrono.Provider()
	}
	indexes := DefaultTextIndexes
	if opts.TextIndexes != nil {
		indexes = *opts.TextIndexes
	}

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.SetHeader("User-Agent", userAgent)
	httpClient.SetHeader("Accept", acceptHeader)
	httpClient.SetTimeout(opts.Timeout)

	if opts.Proxy != "" {
		httpClient.SetProxy(opts.Proxy)
		httpClient.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	} else if opts.BypassCloudflare {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	if opts.RequestsPerSecond > 0 {
		burst := max(int(opts.RequestsPerSecond), 1)
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)
	telemetry.DumpResty(httpClient, opts.Dump)

	return &Client{
		http:        httpClient,
		siteURL:     opts.SiteURL,
		screenerURL: opts.ScreenerURL,
		username:    opts.Username,
		password:    opts.Password,
		indexes:     indexes,
		registry:    DefaultRegistry,
		time:        opts.Time,
		tel:         tel,
	}, nil
}

// Authorized reports whether the login handshake has succeeded.
func (c *Client) Authorized() bool {
	c.authMutex.Lock()
	defer c.authMutex.Unlock()
	return c.state == authorized
}

// EnsureAuthorized logs in if the session has not been authorized yet, once
// authorized it is a no-op. A failed login leaves the session unauthorized so
// the next call retries the handshake.
func (c *Client) EnsureAuthorized(ctx context.Context) error {
	c.authMutex.Lock()
	defer c.authMutex.Unlock()

	if c.state == authorized {
		return nil
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetQueryParams(map[string]string{
			"force_login": "true",
			"username":    c.username,
			"password":    c.password,
			"remember_me": "off",
		}).
		Post(c.siteURL)
	if err != nil {
		err = telemetry.RedactError(err)
		c.tel.ReportBroken(
			report_client_ensure_authorized,
			fmt.Errorf("login request: %w", err),
		)
		return fmt.Errorf("zacks scraper: login failed: %w", err)
	}
	if !res.IsSuccess() {
		authErr := &scrape.AuthenticationError{Status: res.StatusCode()}
		c.tel.ReportBroken(report_client_ensure_authorized, authErr)
		return authErr
	}

	c.state = authorized
	c.tel.ReportDebug(report_client_ensure_authorized, "authorized")
	return nil
}

// get issues a GET and fails with *scrape.HTTPStatusError on a non-2xx status.
func (c *Client) get(ctx context.Context, stage, url string) (*resty.Response, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stage, telemetry.RedactError(err))
	}
	if !res.IsSuccess() {
		return nil, &scrape.HTTPStatusError{Stage: stage, URL: telemetry.RedactURL(url), Status: res.StatusCode()}
	}
	return res, nil
}
