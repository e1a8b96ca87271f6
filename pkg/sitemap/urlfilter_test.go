package sitemap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFiltered(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		include []string
		avoid   []string
		want    bool
	}{
		{name: "no lists", path: "/en/about/", want: false},
		{name: "excluded prefix", path: "/products/shoes", avoid: []string{"products/shoes"}, want: true},
		{name: "excluded case insensitive", path: "/Products/Shoes/red/", avoid: []string{"/products/shoes/"}, want: true},
		{name: "segment boundary", path: "/newsletter/", avoid: []string{"news"}, want: false},
		{name: "not included", path: "/en/about/", include: []string{"en/products"}, want: true},
		{name: "included", path: "/en/products/a/", include: []string{"en/products"}, want: false},
		{name: "exclude wins", path: "/en/products/old/", include: []string{"en/products"}, avoid: []string{"en/products/old"}, want: true},
		{name: "blank entries ignored", path: "/en/", include: []string{" "}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.PathsToInclude = tt.include
			cfg.PathsToAvoid = tt.avoid
			assert.Equal(t, tt.want, IsFiltered(tt.path, cfg))
		})
	}
}

func TestParsePaths(t *testing.T) {
	assert.Equal(t, []string{"/a/", "b"}, ParsePaths(" /a/ ;; b;"))
	assert.Nil(t, ParsePaths(""))
}

func TestConfigURL(t *testing.T) {
	cfg := NewConfig()
	cfg.SiteURL = "https://example.com/"
	assert.Equal(t, "https://example.com/sitemap.xml", cfg.URL("en"))

	cfg.Language = "en"
	cfg.Host = "Products/sitemap.xml"
	assert.Equal(t, "https://example.com/en/products/sitemap.xml", cfg.URL("EN"))

	cfg.Host = "products"
	cfg.Format = "mobile"
	cfg.CacheExpiration = -5
	cfg.Normalize()
	assert.Equal(t, "products/sitemap.xml", cfg.Host)
	assert.Equal(t, FormatMobile, cfg.Format)
	assert.Equal(t, 0, cfg.CacheExpiration)
}
