package sitemap

import (
	"context"
	"testing"
	"time"

	"github.com/foomo/sitemaps/content"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestContentFilterShouldExclude(t *testing.T) {
	future := testNow.Add(time.Hour)
	past := testNow.Add(-time.Hour)

	tests := []struct {
		name   string
		modify func(c *content.Content)
		want   bool
	}{
		{name: "published page", modify: func(c *content.Content) {}, want: false},
		{name: "restricted", modify: func(c *content.Content) { c.Groups = []string{"Editors"} }, want: true},
		{name: "everyone", modify: func(c *content.Content) { c.Groups = []string{"Editors", content.GroupEveryone} }, want: false},
		{name: "deleted", modify: func(c *content.Content) { c.Deleted = true }, want: true},
		{name: "draft", modify: func(c *content.Content) { c.Version.Status = content.StatusCheckedOut }, want: true},
		{name: "not yet published", modify: func(c *content.Content) { c.Version.StartPublish = &future }, want: true},
		{name: "expired", modify: func(c *content.Content) { c.Version.StopPublish = &past }, want: true},
		{name: "no version", modify: func(c *content.Content) { c.Version = nil }, want: true},
		{name: "disabled in sitemap", modify: func(c *content.Content) { c.Sitemap = &content.SitemapSettings{} }, want: true},
		{name: "disabled for type", modify: func(c *content.Content) { c.TypeSitemap = &content.SitemapSettings{} }, want: true},
		{name: "item overrides type", modify: func(c *content.Content) {
			c.Sitemap = &content.SitemapSettings{Enabled: true}
			c.TypeSitemap = &content.SitemapSettings{}
		}, want: false},
		{name: "no template", modify: func(c *content.Content) { c.HasTemplate = false }, want: true},
		{name: "waste basket", modify: func(c *content.Content) { c.Ref = content.WasteBasketReference }, want: true},
		{name: "block", modify: func(c *content.Content) { c.Kind = content.KindBlock }, want: true},
		{name: "media", modify: func(c *content.Content) { c.Kind = content.KindMedia }, want: true},
		{name: "shortcut", modify: func(c *content.Content) { c.LinkType = content.LinkTypeShortcut }, want: true},
		{name: "external", modify: func(c *content.Content) { c.LinkType = content.LinkTypeExternal }, want: true},
		{name: "inactive", modify: func(c *content.Content) { c.LinkType = content.LinkTypeInactive }, want: true},
		{name: "fetch data", modify: func(c *content.Content) { c.LinkType = content.LinkTypeFetchData }, want: false},
	}

	f := NewContentFilter(zaptest.NewLogger(t), WithFilterClock(func() time.Time { return testNow }))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := page("page", "en")
			c.Ref = content.Reference{ID: 42}
			tt.modify(c)
			assert.Equal(t, tt.want, f.ShouldExclude(t.Context(), c))
		})
	}
	assert.True(t, f.ShouldExclude(t.Context(), nil))
}

func TestContentFilterOptions(t *testing.T) {
	l := zaptest.NewLogger(t)
	c := page("page", "en")
	c.Version = nil
	c.HasTemplate = false

	assert.True(t, NewContentFilter(l, WithStrictPublishChecking(false)).ShouldExclude(t.Context(), c))
	assert.False(t, NewContentFilter(l,
		WithStrictPublishChecking(false),
		WithArchitecture(ArchitectureHeadless),
	).ShouldExclude(t.Context(), c))

	failing := AccessCheckerFunc(func(context.Context, *content.Content, string) (bool, error) {
		return false, errors.New("directory unavailable")
	})
	assert.True(t, NewContentFilter(l, WithAccessChecker(failing)).ShouldExclude(t.Context(), page("page", "en")))
	assert.True(t, NewContentFilter(l).ShouldExcludeVariant(t.Context(), nil, testSite(), NewConfig()))
}
