package responses

import (
	"github.com/foomo/sitemaps/pkg/sitemap"
)

// Config - a sitemap configuration as listed by the admin api
type Config struct {
	*sitemap.Config
	URL string `json:"url"`
	// size of the generated sitemap in bytes, 0 if it was never generated
	Size int `json:"size"`
}

// Configs - all sitemap configurations
type Configs struct {
	Configs []*Config `json:"configs"`
}
