package sitemap

import (
	"context"

	"github.com/foomo/sitemaps/content"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// NewCommerceGenerator lists the commerce catalog
func NewCommerceGenerator(l *zap.Logger, repository Repository, source ContentRepository, cache Cache, opts ...GeneratorOption) *XMLGenerator {
	inst := NewXMLGenerator(l, repository, source, cache, opts...)
	inst.l = inst.l.Named("commerce")
	inst.format = FormatCommerce
	inst.collect = commerceElements
	return inst
}

// NewStandardAndCommerceGenerator lists the site's pages followed by the catalog
func NewStandardAndCommerceGenerator(l *zap.Logger, repository Repository, source ContentRepository, cache Cache, opts ...GeneratorOption) *XMLGenerator {
	inst := NewXMLGenerator(l, repository, source, cache, opts...)
	inst.l = inst.l.Named("standardAndCommerce")
	inst.format = FormatStandardAndCommerce
	inst.collect = standardAndCommerceElements
	return inst
}

func commerceElements(ctx context.Context, g *XMLGenerator, r *run) error {
	root, err := g.source.CatalogRoot(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to resolve catalog root")
	}
	if r.config.RootPageID > 0 {
		root = content.Reference{ID: r.config.RootPageID, Provider: content.ProviderCatalog}
	}
	refs, err := g.source.Descendants(ctx, root)
	if err != nil {
		return errors.Wrapf(err, "failed to list descendants of %s", root)
	}
	g.addElements(ctx, r, refs)
	return nil
}

func standardAndCommerceElements(ctx context.Context, g *XMLGenerator, r *run) error {
	refs, err := g.source.Descendants(ctx, r.site.StartPage)
	if err != nil {
		return errors.Wrapf(err, "failed to list descendants of %s", r.site.StartPage)
	}
	g.addElements(ctx, r, append([]content.Reference{r.site.StartPage}, refs...))
	if r.stopped || r.exceeded {
		return nil
	}
	return commerceElements(ctx, g, r)
}
