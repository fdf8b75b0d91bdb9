package clipper

import (
	"net/url"
	"strings"
)

// NormalizeURL validates an absolute http(s) URL and returns the form used
// as a cache key: scheme and host lowercased, fragment dropped.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", Errorf(EINVALID, "url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", Errorf(EINVALID, "invalid url %q", raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", Errorf(EINVALID, "url %q must use http or https", raw)
	}
	if u.Host == "" {
		return "", Errorf(EINVALID, "url %q has no host", raw)
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), nil
}

// Hostname returns the host of rawURL without port, or "" if it cannot be parsed.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
