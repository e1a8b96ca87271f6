package sitemap

import (
	"strings"

	"golang.org/x/text/language"
)

// Format output format of a sitemap
type Format string

const (
	FormatStandard            Format = "Standard"
	FormatMobile              Format = "Mobile"
	FormatCommerce            Format = "Commerce"
	FormatStandardAndCommerce Format = "StandardAndCommerce"
)

const (
	// DefaultRootPageID selects the start page of the site
	DefaultRootPageID = -1
	// DefaultCacheExpiration minutes a real time sitemap is cached for
	DefaultCacheExpiration = 60
	// DefaultHost path of a sitemap below its site
	DefaultHost = "sitemap.xml"
	// AllLanguages language selector for every enabled language
	AllLanguages = "*"
)

// Formats all known formats
var Formats = []Format{FormatStandard, FormatMobile, FormatCommerce, FormatStandardAndCommerce}

// Config a persisted sitemap configuration together with its generated data
type Config struct {
	ID                            string   `json:"id" yaml:"id"`
	SiteURL                       string   `json:"siteUrl" yaml:"siteUrl"`
	Host                          string   `json:"host" yaml:"host"`
	Language                      string   `json:"language,omitempty" yaml:"language"`
	EnableLanguageFallback        bool     `json:"enableLanguageFallback" yaml:"enableLanguageFallback"`
	IncludeAlternateLanguagePages bool     `json:"includeAlternateLanguagePages" yaml:"includeAlternateLanguagePages"`
	EnableSimpleAddressSupport    bool     `json:"enableSimpleAddressSupport" yaml:"enableSimpleAddressSupport"`
	PathsToInclude                []string `json:"pathsToInclude,omitempty" yaml:"pathsToInclude"`
	PathsToAvoid                  []string `json:"pathsToAvoid,omitempty" yaml:"pathsToAvoid"`
	IncludeDebugInfo              bool     `json:"includeDebugInfo" yaml:"includeDebugInfo"`
	RootPageID                    int      `json:"rootPageId" yaml:"rootPageId"`
	Format                        Format   `json:"format" yaml:"format"`
	CacheExpiration               int      `json:"cacheExpiration" yaml:"cacheExpiration"`
	ExceedsMaximumEntryCount      bool     `json:"exceedsMaximumEntryCount" yaml:"-"`
	Data                          []byte   `json:"-" yaml:"-"`
}

// NewConfig returns a config with defaults applied
func NewConfig() *Config {
	return &Config{
		Host:            DefaultHost,
		RootPageID:      DefaultRootPageID,
		Format:          FormatStandard,
		CacheExpiration: DefaultCacheExpiration,
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// PinnedLanguage the configured language, empty when all languages are selected
func (c *Config) PinnedLanguage() string {
	if c.Language == AllLanguages {
		return ""
	}
	return c.Language
}

// HostWithLanguage host path prefixed with the url segment of a pinned language
func (c *Config) HostWithLanguage(segment string) string {
	host := NormalizeHost(c.Host)
	if c.PinnedLanguage() == "" || segment == "" {
		return strings.ToLower(host)
	}
	return strings.ToLower(strings.Trim(segment, "/") + "/" + host)
}

// URL canonical URL the sitemap is served under
func (c *Config) URL(segment string) string {
	return strings.TrimRight(c.SiteURL, "/") + "/" + c.HostWithLanguage(segment)
}

// Normalize applies defaults and cleans up user input
func (c *Config) Normalize() {
	c.Host = NormalizeHost(c.Host)
	c.Format = ParseFormat(string(c.Format))
	c.PathsToInclude = cleanPaths(c.PathsToInclude)
	c.PathsToAvoid = cleanPaths(c.PathsToAvoid)
	c.Language = canonicalLanguage(c.Language)
	if c.CacheExpiration < 0 {
		c.CacheExpiration = 0
	}
}

// ParseFormat case insensitive, defaults to FormatStandard
func ParseFormat(s string) Format {
	for _, f := range Formats {
		if strings.EqualFold(string(f), strings.TrimSpace(s)) {
			return f
		}
	}
	return FormatStandard
}

// NormalizeHost makes sure the host path ends with sitemap.xml
func NormalizeHost(host string) string {
	host = strings.Trim(strings.TrimSpace(host), "/")
	switch {
	case host == "":
		return DefaultHost
	case strings.HasSuffix(strings.ToLower(host), DefaultHost):
		return host
	default:
		return host + "/" + DefaultHost
	}
}

// ParsePaths splits a ; separated path list
func ParsePaths(s string) []string {
	return cleanPaths(strings.Split(s, ";"))
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// canonicalLanguage normalizes the casing of a BCP 47 tag, unparsable values are kept
func canonicalLanguage(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == AllLanguages {
		return v
	}
	tag, err := language.Raw.Parse(v)
	if err != nil {
		return v
	}
	return tag.String()
}

func cleanPaths(paths []string) []string {
	var ret []string
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			ret = append(ret, p)
		}
	}
	return ret
}
