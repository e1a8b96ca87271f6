package store_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/foomo/sitemaps/pkg/sitemap"
	"github.com/foomo/sitemaps/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestStore(t *testing.T, opts ...store.Option) *store.Store {
	t.Helper()
	s, err := store.Open(zaptest.NewLogger(t), filepath.Join(t.TempDir(), "sitemaps.db"), opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, s.Close())
	})
	return s
}

func TestStoreSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	cfg := sitemap.NewConfig()
	cfg.SiteURL = "https://example.com/"
	cfg.PathsToAvoid = []string{"/en/news/"}
	cfg.Data = []byte("<urlset></urlset>")
	require.NoError(t, s.Save(ctx, cfg))
	require.NotEmpty(t, cfg.ID)

	loaded, err := s.GetByID(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	all, err := s.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Nil(t, all[0].Data)
	assert.Equal(t, cfg.SiteURL, all[0].SiteURL)

	_, err = s.GetByID(ctx, "missing")
	require.ErrorIs(t, err, sitemap.ErrNotFound)
}

func TestStoreCompressesLargeData(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	cfg := sitemap.NewConfig()
	cfg.SiteURL = "https://example.com/"
	cfg.Data = []byte(strings.Repeat("<url><loc>https://example.com/</loc></url>", 1000))
	require.NoError(t, s.Save(ctx, cfg))

	loaded, err := s.GetByID(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, cfg.Data, loaded.Data)
}

func TestStoreKeepsDataWithoutNewData(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	cfg := sitemap.NewConfig()
	cfg.SiteURL = "https://example.com/"
	cfg.Data = []byte("generated")
	require.NoError(t, s.Save(ctx, cfg))

	edited := *cfg
	edited.Data = nil
	edited.IncludeDebugInfo = true
	require.NoError(t, s.Save(ctx, &edited))

	loaded, err := s.GetByID(ctx, cfg.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IncludeDebugInfo)
	assert.Equal(t, []byte("generated"), loaded.Data)
}

func TestStoreGetByURL(t *testing.T) {
	s := newTestStore(t, store.WithLanguageSegments(func(language string) string {
		return map[string]string{"nb-NO": "no"}[language]
	}))
	ctx := t.Context()

	all := sitemap.NewConfig()
	all.SiteURL = "https://example.com/"
	all.Language = sitemap.AllLanguages
	require.NoError(t, s.Save(ctx, all))

	norwegian := sitemap.NewConfig()
	norwegian.SiteURL = "https://example.com"
	norwegian.Language = "nb-NO"
	norwegian.Host = "products/sitemap.xml"
	require.NoError(t, s.Save(ctx, norwegian))

	cfg, err := s.GetByURL(ctx, "http://EXAMPLE.com/sitemap.xml")
	require.NoError(t, err)
	assert.Equal(t, all.ID, cfg.ID)

	cfg, err = s.GetByURL(ctx, "https://example.com/no/products/sitemap.xml")
	require.NoError(t, err)
	assert.Equal(t, norwegian.ID, cfg.ID)

	_, err = s.GetByURL(ctx, "https://example.com/de/sitemap.xml")
	require.ErrorIs(t, err, sitemap.ErrNotFound)

	duplicate := sitemap.NewConfig()
	duplicate.SiteURL = "https://example.com/"
	require.ErrorIs(t, s.Save(ctx, duplicate), store.ErrDuplicateURL)

	// moving a config releases its old url
	norwegian.Host = "sitemap.xml"
	norwegian.Language = "*"
	norwegian.SiteURL = "https://example.no/"
	require.NoError(t, s.Save(ctx, norwegian))
	_, err = s.GetByURL(ctx, "https://example.com/no/products/sitemap.xml")
	require.ErrorIs(t, err, sitemap.ErrNotFound)
	cfg, err = s.GetByURL(ctx, "https://example.no/sitemap.xml")
	require.NoError(t, err)
	assert.Equal(t, norwegian.ID, cfg.ID)
}

func TestStoreDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	cfg := sitemap.NewConfig()
	cfg.SiteURL = "https://example.com/"
	cfg.Data = []byte("generated")
	require.NoError(t, s.Save(ctx, cfg))
	require.NoError(t, s.Delete(ctx, cfg.ID))

	_, err := s.GetByID(ctx, cfg.ID)
	require.ErrorIs(t, err, sitemap.ErrNotFound)
	_, err = s.GetByURL(ctx, "https://example.com/sitemap.xml")
	require.ErrorIs(t, err, sitemap.ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, cfg.ID), sitemap.ErrNotFound)

	// the url is free again
	again := sitemap.NewConfig()
	again.SiteURL = "https://example.com/"
	require.NoError(t, s.Save(ctx, again))
}
