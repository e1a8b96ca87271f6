package sitemap

import (
	"context"
	"net/url"

	"github.com/foomo/sitemaps/content"
	"go.uber.org/zap"
)

type (
	// Augmenter expands the canonical URL of an item into the URLs listed in the
	// sitemap
	Augmenter interface {
		Augment(ctx context.Context, c *content.Content, v *content.Variant, u *url.URL) []*url.URL
	}
	AugmenterFunc func(ctx context.Context, c *content.Content, v *content.Variant, u *url.URL) []*url.URL
	// ParameterAugmenter lists filtered views of a listing page: one URL per
	// distinct combination of item attributes
	ParameterAugmenter struct {
		l           *zap.Logger
		loader      ContentLoader
		listingType string
		itemType    string
		attributes  []string
	}
)

// IdentityAugmenter returns the canonical URL
var IdentityAugmenter = AugmenterFunc(func(_ context.Context, _ *content.Content, _ *content.Variant, u *url.URL) []*url.URL {
	return []*url.URL{u}
})

func (f AugmenterFunc) Augment(ctx context.Context, c *content.Content, v *content.Variant, u *url.URL) []*url.URL {
	return f(ctx, c, v, u)
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewParameterAugmenter(l *zap.Logger, loader ContentLoader, listingType, itemType string, attributes ...string) *ParameterAugmenter {
	return &ParameterAugmenter{
		l:           l.Named("augmenter"),
		loader:      loader,
		listingType: listingType,
		itemType:    itemType,
		attributes:  attributes,
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (a *ParameterAugmenter) Augment(ctx context.Context, c *content.Content, v *content.Variant, u *url.URL) []*url.URL {
	if c.Type != a.listingType {
		return []*url.URL{u}
	}

	items, err := a.loader.ListOfType(ctx, a.itemType, v.Language)
	if err != nil {
		a.l.Warn("failed to list items, keeping canonical url",
			zap.String("type", a.itemType),
			zap.String("url", u.String()),
			zap.Error(err),
		)
		return []*url.URL{u}
	}

	var (
		ret  []*url.URL
		seen = map[string]struct{}{}
	)
	for _, item := range items {
		query := url.Values{}
		for _, attr := range a.attributes {
			query.Set(attr, item.Data[attr])
		}
		// Encode sorts by key
		key := query.Encode()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		augmented := *u
		augmented.RawQuery = key
		ret = append(ret, &augmented)
	}
	return ret
}
