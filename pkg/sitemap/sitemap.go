// Package sitemap walks a content tree and renders it as sitemap XML.
package sitemap

import (
	"context"
	"time"

	"github.com/foomo/sitemaps/content"
	"github.com/pkg/errors"
)

const (
	// MaxEntryCount hard limit of entries in one sitemap
	MaxEntryCount = 50000
	// DateTimeFormat layout of lastmod values
	DateTimeFormat = "2006-01-02T15:04:05-07:00"
	// GenerationKey cache tag removed whenever a generation job starts
	GenerationKey = "SitemapGenerationKey"
	// XDefault hreflang tag of the language neutral URL
	XDefault = "x-default"

	Namespace       = "http://www.sitemaps.org/schemas/sitemap/0.9"
	XhtmlNamespace  = "http://www.w3.org/1999/xhtml"
	MobileNamespace = "http://www.google.com/schemas/sitemap-mobile/1.0"
)

var (
	ErrNotFound               = errors.New("sitemap not found")
	ErrGeneratorNotRegistered = errors.New("no generator registered for format")
)

type (
	// LanguageSelector selects the language branch to load. An empty language
	// selects the master branch.
	LanguageSelector struct {
		Language string
		Fallback bool
	}
	// ContentLoader read access to the content store
	ContentLoader interface {
		// Get returns nil without an error if there is no matching branch
		Get(ctx context.Context, ref content.Reference, sel LanguageSelector) (*content.Content, error)
		// Descendants all references below ref, depth first
		Descendants(ctx context.Context, ref content.Reference) ([]content.Reference, error)
		LanguageBranches(ctx context.Context, ref content.Reference) ([]*content.Content, error)
		ListOfType(ctx context.Context, typeName, language string) ([]*content.Content, error)
		CatalogRoot(ctx context.Context) (content.Reference, error)
	}
	// URLResolver maps content to a path or an absolute URL, empty if there is none
	URLResolver interface {
		URL(ctx context.Context, ref content.Reference, language string) string
	}
	SiteRegistry interface {
		Sites(ctx context.Context) []*content.Site
	}
	LanguageRegistry interface {
		EnabledLanguages(ctx context.Context) []*content.Language
	}
	// ContentRepository everything a generator reads from
	ContentRepository interface {
		ContentLoader
		URLResolver
		SiteRegistry
		LanguageRegistry
	}
	// Repository persistence of sitemap configurations
	Repository interface {
		Save(ctx context.Context, cfg *Config) error
		Delete(ctx context.Context, id string) error
		GetByID(ctx context.Context, id string) (*Config, error)
		GetAll(ctx context.Context) ([]*Config, error)
		GetByURL(ctx context.Context, url string) (*Config, error)
	}
	// Policy eviction policy of a cache entry. A zero TTL never expires.
	Policy struct {
		TTL     time.Duration
		Sliding bool
		Tags    []string
	}
	// Cache process wide keyed store. Removing a key also evicts every entry
	// tagged with it.
	Cache interface {
		Get(key string) (any, bool)
		Insert(key string, value any, policy Policy)
		Remove(key string)
	}
)
