package telemetry

import (
	"errors"
	"net/url"
)

const redacted = "REDACTED"

// query parameters carrying provider credentials or session keys
var sensitiveParams = []string{"p", "password", "c_key"}

// RedactURL masks the credential query parameters of raw. Urls that do not parse or
// carry no credentials are returned unchanged.
func RedactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.RawQuery == "" {
		return raw
	}
	query := parsed.Query()
	changed := false
	for _, name := range sensitiveParams {
		if query.Has(name) {
			query.Set(name, redacted)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

// RedactError masks the url of the *url.Error wrapped by err in place and returns err.
func RedactError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = RedactURL(urlErr.URL)
	}
	return err
}
