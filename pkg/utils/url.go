package utils

import (
	"net/url"
	"strings"
)

// IsValidUrl absolute http(s) url with a host
func IsValidUrl(str string) bool {
	u, err := url.Parse(str)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	return u.Host != ""
}

// AbsoluteURL roots rel below base. The host of an absolute rel is dropped in
// favour of base.
func AbsoluteURL(base, rel string) string {
	if u, err := url.Parse(rel); err == nil && u.IsAbs() {
		rel = u.EscapedPath()
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(rel, "/")
}
