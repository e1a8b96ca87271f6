package requests_test

import (
	"testing"

	"github.com/foomo/sitemaps/pkg/sitemap"
	"github.com/foomo/sitemaps/requests"
	"github.com/stretchr/testify/assert"
)

func TestConfigToConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := requests.NewConfig().ToConfig()
		assert.Equal(t, sitemap.DefaultHost, cfg.Host)
		assert.Equal(t, sitemap.FormatStandard, cfg.Format)
		assert.Equal(t, sitemap.DefaultRootPageID, cfg.RootPageID)
		assert.Equal(t, sitemap.DefaultCacheExpiration, cfg.CacheExpiration)
	})

	t.Run("paths", func(t *testing.T) {
		cfg := (&requests.Config{
			Config: sitemap.Config{
				SiteURL:         "https://example.com/",
				Host:            "products",
				Format:          "commerce",
				RootPageID:      42,
				PathsToInclude:  []string{" /en/ "},
				CacheExpiration: -5,
				Data:            []byte("<urlset/>"),
			},
			IncludePaths: "/sv/;;  /no/ ",
			AvoidPaths:   "/en/private/",
		}).ToConfig()
		assert.Equal(t, "products/sitemap.xml", cfg.Host)
		assert.Equal(t, sitemap.FormatCommerce, cfg.Format)
		assert.Equal(t, 42, cfg.RootPageID)
		assert.Equal(t, []string{"/en/", "/sv/", "/no/"}, cfg.PathsToInclude)
		assert.Equal(t, []string{"/en/private/"}, cfg.PathsToAvoid)
		assert.Equal(t, 0, cfg.CacheExpiration)
		assert.Nil(t, cfg.Data)
	})
}
