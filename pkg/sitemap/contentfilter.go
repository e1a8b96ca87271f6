package sitemap

import (
	"context"
	"time"

	"github.com/foomo/sitemaps/content"
	"go.uber.org/zap"
)

// Architecture how the site renders its content
type Architecture string

const (
	// ArchitectureTemplates content is rendered through templates
	ArchitectureTemplates Architecture = "templates"
	// ArchitectureHeadless content is delivered through an API only
	ArchitectureHeadless Architecture = "headless"
)

type (
	// AccessChecker decides whether a principal may read an item
	AccessChecker interface {
		CanRead(ctx context.Context, c *content.Content, principal string) (bool, error)
	}
	AccessCheckerFunc func(ctx context.Context, c *content.Content, principal string) (bool, error)
	// ContentFilter decides whether an item belongs into a sitemap
	ContentFilter struct {
		l                     *zap.Logger
		access                AccessChecker
		strictPublishChecking bool
		architecture          Architecture
		now                   func() time.Time
	}
	ContentFilterOption func(*ContentFilter)
)

func (f AccessCheckerFunc) CanRead(ctx context.Context, c *content.Content, principal string) (bool, error) {
	return f(ctx, c, principal)
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewContentFilter(l *zap.Logger, opts ...ContentFilterOption) *ContentFilter {
	inst := &ContentFilter{
		l:                     l.Named("filter"),
		access:                AccessCheckerFunc(groupAccess),
		strictPublishChecking: true,
		architecture:          ArchitectureTemplates,
		now:                   time.Now,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithAccessChecker(v AccessChecker) ContentFilterOption {
	return func(o *ContentFilter) {
		o.access = v
	}
}

// WithStrictPublishChecking excludes items without version information
func WithStrictPublishChecking(v bool) ContentFilterOption {
	return func(o *ContentFilter) {
		o.strictPublishChecking = v
	}
}

func WithArchitecture(v Architecture) ContentFilterOption {
	return func(o *ContentFilter) {
		o.architecture = v
	}
}

func WithFilterClock(v func() time.Time) ContentFilterOption {
	return func(o *ContentFilter) {
		o.now = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// ShouldExclude checks the item, the first failing check excludes it
func (f *ContentFilter) ShouldExclude(ctx context.Context, c *content.Content) bool {
	switch {
	case c == nil:
		return true
	case !f.isAccessibleToEveryone(ctx, c):
		return true
	case c.Deleted:
		return true
	case !f.isPublished(c):
		return true
	case !isSitemapEnabled(c):
		return true
	case f.architecture == ArchitectureTemplates && !c.HasTemplate:
		return true
	case c.Ref.CompareIgnoreWork(content.WasteBasketReference):
		return true
	case c.Kind == content.KindBlock, c.Kind == content.KindMedia:
		return true
	case c.IsPage() && isLinkExcluded(c.LinkType):
		return true
	}
	return false
}

// ShouldExcludeVariant checks the content of a language variant
func (f *ContentFilter) ShouldExcludeVariant(ctx context.Context, v *content.Variant, site *content.Site, cfg *Config) bool {
	if v == nil {
		return true
	}
	return f.ShouldExclude(ctx, v.Content)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (f *ContentFilter) isAccessibleToEveryone(ctx context.Context, c *content.Content) bool {
	ok, err := f.access.CanRead(ctx, c, content.GroupEveryone)
	if err != nil {
		f.l.Warn("failed to check access, excluding content", zap.String("ref", c.Ref.String()), zap.Error(err))
		return false
	}
	return ok
}

func (f *ContentFilter) isPublished(c *content.Content) bool {
	if c.Version == nil {
		return !f.strictPublishChecking
	}
	return c.Version.IsPublished(f.now())
}

func isSitemapEnabled(c *content.Content) bool {
	if c.Sitemap != nil {
		return c.Sitemap.Enabled
	}
	if c.TypeSitemap != nil {
		return c.TypeSitemap.Enabled
	}
	return true
}

func isLinkExcluded(v content.LinkType) bool {
	return v == content.LinkTypeExternal || v == content.LinkTypeShortcut || v == content.LinkTypeInactive
}

func groupAccess(_ context.Context, c *content.Content, principal string) (bool, error) {
	return c.CanBeAccessedByGroups([]string{principal}), nil
}
