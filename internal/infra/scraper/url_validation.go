package scraper

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrInvalidURL is returned for catalog URLs that are not absolute http(s) URLs.
	ErrInvalidURL = errors.New("invalid catalog url")
	// ErrOffSite is returned for pagination links leaving the catalog host.
	ErrOffSite = errors.New("link leaves catalog host")
)

// validatePageURL checks that pageURL is an absolute http(s) URL and, when
// host is non-empty, that it points at host.
func validatePageURL(pageURL, host string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("%w: parse error: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme '%s' not allowed (only http/https)", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}
	if host != "" && !strings.EqualFold(u.Host, host) {
		return fmt.Errorf("%w: %s is not %s", ErrOffSite, u.Host, host)
	}
	return nil
}

// hostOf returns the host[:port] of pageURL, or "" when it cannot be parsed.
func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Host
}
