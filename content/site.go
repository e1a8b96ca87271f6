package content

import (
	"net/url"
	"strings"
)

type (
	// Site a web site with its canonical URL and host bindings
	Site struct {
		ID        string    `json:"id"`
		URL       string    `json:"siteUrl"`
		StartPage Reference `json:"startPage"`
		Hosts     []*Host   `json:"hosts"`
	}
	// Host binds a host name to an optional language
	Host struct {
		Name     string `json:"name"`
		Language string `json:"language,omitempty"`
	}
	// Language an enabled language branch
	Language struct {
		Culture    string   `json:"culture"`
		URLSegment string   `json:"urlSegment"`
		Disabled   bool     `json:"disabled,omitempty"`
		Fallbacks  []string `json:"fallbacks,omitempty"`
	}
)

// Matches reports whether the site is reachable under the given URL, either by
// its canonical URL or by one of its host names
func (s *Site) Matches(u *url.URL) bool {
	if strings.TrimSuffix(s.URL, "/") == strings.TrimSuffix(u.String(), "/") {
		return true
	}
	for _, h := range s.Hosts {
		if strings.EqualFold(h.Name, u.Host) {
			return true
		}
	}
	return false
}

// Host returns the host bound to the authority, falling back to the wildcard host
func (s *Site) Host(authority string) *Host {
	var wildcard *Host
	for _, h := range s.Hosts {
		if strings.EqualFold(h.Name, authority) {
			return h
		}
		if h.Name == WildcardHost {
			wildcard = h
		}
	}
	return wildcard
}

// HasHostForLanguage is any host of the site bound to the language
func (s *Site) HasHostForLanguage(language string) bool {
	for _, h := range s.Hosts {
		if h.Language != "" && strings.EqualFold(h.Language, language) {
			return true
		}
	}
	return false
}

// Segment url segment of the language, defaults to the culture
func (l *Language) Segment() string {
	if l.URLSegment != "" {
		return l.URLSegment
	}
	return strings.ToLower(l.Culture)
}
