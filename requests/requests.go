package requests

import (
	"github.com/foomo/sitemaps/pkg/sitemap"
)

// Generate - run the generation job, limited to the given configs if any
type Generate struct {
	IDs []string `json:"ids,omitempty"`
}

// Update - reload the content export
type Update struct{}

// Config - create or replace a sitemap configuration
type Config struct {
	sitemap.Config `yaml:",inline"`
	// ; separated alternative to the path lists
	IncludePaths string `json:"includePaths,omitempty" yaml:"includePaths"`
	AvoidPaths   string `json:"avoidPaths,omitempty" yaml:"avoidPaths"`
}

// NewConfig request with the config defaults, decode into it to keep them
// for missing fields
func NewConfig() *Config {
	return &Config{Config: *sitemap.NewConfig()}
}

// ToConfig normalized sitemap config of the request
func (c *Config) ToConfig() *sitemap.Config {
	cfg := c.Config
	if c.IncludePaths != "" {
		cfg.PathsToInclude = append(cfg.PathsToInclude, sitemap.ParsePaths(c.IncludePaths)...)
	}
	if c.AvoidPaths != "" {
		cfg.PathsToAvoid = append(cfg.PathsToAvoid, sitemap.ParsePaths(c.AvoidPaths)...)
	}
	cfg.Data = nil
	cfg.Normalize()
	return &cfg
}
