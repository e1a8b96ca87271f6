package repo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/foomo/sitemaps/content"
	"github.com/foomo/sitemaps/pkg/repo/mock"
	"github.com/foomo/sitemaps/pkg/sitemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func NewTestRepo(ctx context.Context, l *zap.Logger, url, varDir string, opts ...Option) *Repo {
	h, err := NewHistory(l, HistoryWithHistoryLimit(2), HistoryWithHistoryDir(varDir))
	if err != nil {
		panic(err)
	}
	r := New(l, url, h, opts...)
	go r.Start(ctx) //nolint:errcheck
	time.Sleep(300 * time.Millisecond)
	return r
}

// loadedTestRepo repo with the ok fixture, loaded without any routine
func loadedTestRepo(t *testing.T) *Repo {
	t.Helper()
	l := zaptest.NewLogger(t)
	h, err := NewHistory(l, HistoryWithHistoryDir(t.TempDir()))
	require.NoError(t, err)
	data, err := os.ReadFile(mock.Path("repo-ok.json"))
	require.NoError(t, err)
	r := New(l, mock.Path("repo-ok.json"), h)
	require.NoError(t, r.loadJSONBytes(data))
	return r
}

func TestLoad404(t *testing.T) {
	var (
		l                  = zaptest.NewLogger(t)
		mockServer, varDir = mock.GetMockData(t)
		url                = mockServer.URL + "/repo-no-have"
		r                  = NewTestRepo(t.Context(), l, url, varDir)
	)

	response := r.Update(t.Context())
	require.False(t, response.Success, "can not get a repo, if the server responds with a 404")
	assert.False(t, r.Loaded())
	assert.Nil(t, r.Snapshot())
}

func TestLoadBrokenRepo(t *testing.T) {
	var (
		l                  = zaptest.NewLogger(t)
		mockServer, varDir = mock.GetMockData(t)
		server             = mockServer.URL + "/repo-broken-json.json"
		r                  = NewTestRepo(t.Context(), l, server, varDir)
	)

	response := r.Update(t.Context())
	require.False(t, response.Success, "how could we load a broken json")
	assert.Contains(t, response.ErrorMessage, "deserialize")
}

func TestLoadRepo(t *testing.T) {
	var (
		l                  = zaptest.NewLogger(t)
		mockServer, varDir = mock.GetMockData(t)
		server             = mockServer.URL + "/repo-ok.json"
		r                  = NewTestRepo(t.Context(), l, server, varDir)
	)
	require.True(t, r.Loaded())

	response := r.Update(t.Context())
	require.True(t, response.Success, "could not load valid repo")
	assert.Equal(t, 9, response.Stats.NumberOfNodes)
	assert.Equal(t, 9, response.Stats.NumberOfURIs)
	assert.Equal(t, 1, response.Stats.NumberOfSites)
	assert.Equal(t, 4, response.Stats.NumberOfLanguages)
	assert.GreaterOrEqual(t, response.Stats.RepoRuntime, 0.05, "the server was too fast")

	var buf bytes.Buffer
	require.NoError(t, r.history.GetCurrent(t.Context(), &buf))
	assert.Equal(t, r.JSONBufferBytes(), buf.Bytes())
}

func TestRestoreFromHistory(t *testing.T) {
	var (
		l                  = zaptest.NewLogger(t)
		mockServer, varDir = mock.GetMockData(t)
		ctx, cancel        = context.WithCancel(t.Context())
		r                  = NewTestRepo(ctx, l, mockServer.URL+"/repo-ok.json", varDir)
	)
	require.True(t, r.Loaded())
	cancel()

	restored := NewTestRepo(t.Context(), l, mockServer.URL+"/repo-no-have", varDir)
	require.True(t, restored.Loaded())
	require.NotNil(t, restored.Snapshot())
	assert.Len(t, restored.Sites(t.Context()), 1)
}

func TestPollRepo(t *testing.T) {
	var (
		l                  = zaptest.NewLogger(t)
		mockServer, varDir = mock.GetMockData(t)
		r                  = NewTestRepo(t.Context(), l, mockServer.URL+"/poll", varDir, WithPoll(true), WithPollInterval(time.Hour))
	)
	require.True(t, r.Loaded())

	// same version again
	response := r.Update(t.Context())
	require.True(t, response.Success)
	assert.Equal(t, mockServer.URL+"/repo-ok.json", r.pollVersion)
}

func TestFileRepo(t *testing.T) {
	var (
		l      = zaptest.NewLogger(t)
		varDir = t.TempDir()
		r      = NewTestRepo(t.Context(), l, "file://"+mock.Path("repo-ok.json"), varDir)
	)
	require.True(t, r.Loaded())
	assert.Len(t, r.EnabledLanguages(t.Context()), 3)
}

func TestWatchRepo(t *testing.T) {
	var (
		l       = zaptest.NewLogger(t)
		dir     = t.TempDir()
		path    = filepath.Join(dir, "export.json")
		updates atomic.Int32
	)
	data, err := os.ReadFile(mock.Path("repo-ok.json"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	h, err := NewHistory(l, HistoryWithHistoryDir(t.TempDir()))
	require.NoError(t, err)
	r := New(l, path, h, WithWatch(true), WithWatchDebounce(50*time.Millisecond))
	r.OnUpdated(func() {
		updates.Add(1)
	})
	go r.Start(t.Context()) //nolint:errcheck

	require.Eventually(t, r.Loaded, 5*time.Second, 20*time.Millisecond)
	initial := updates.Load()

	require.NoError(t, os.WriteFile(path, data, 0o600))
	require.Eventually(t, func() bool {
		return updates.Load() > initial
	}, 5*time.Second, 20*time.Millisecond)
}

func TestLoadOnce(t *testing.T) {
	l := zaptest.NewLogger(t)
	varDir := t.TempDir()
	h, err := NewHistory(l, HistoryWithHistoryDir(varDir))
	require.NoError(t, err)

	r := New(l, mock.Path("repo-ok.json"), h)
	require.NoError(t, r.Load(t.Context()))
	assert.True(t, r.Loaded())

	// missing source falls back to the history
	restored := New(l, mock.Path("repo-no-have.json"), h)
	require.NoError(t, restored.Load(t.Context()))
	assert.Len(t, restored.Sites(t.Context()), 1)

	empty, err := NewHistory(l, HistoryWithHistoryDir(t.TempDir()))
	require.NoError(t, err)
	require.Error(t, New(l, mock.Path("repo-no-have.json"), empty).Load(t.Context()))
}

func TestQueries(t *testing.T) {
	var (
		r   = loadedTestRepo(t)
		ctx = t.Context()
	)

	t.Run("get", func(t *testing.T) {
		c, err := r.Get(ctx, content.Reference{ID: 6}, sitemap.LanguageSelector{})
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "en", c.Language)
		assert.Equal(t, "About", c.Name)

		c, err = r.Get(ctx, content.Reference{ID: 6, WorkID: 12}, sitemap.LanguageSelector{Language: "sv"})
		require.NoError(t, err)
		assert.Equal(t, "Om", c.Name)

		c, err = r.Get(ctx, content.Reference{ID: 6}, sitemap.LanguageSelector{Language: "nb-NO"})
		require.NoError(t, err)
		assert.Nil(t, c)

		c, err = r.Get(ctx, content.Reference{ID: 6}, sitemap.LanguageSelector{Language: "nb-NO", Fallback: true})
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.Equal(t, "en", c.Language)

		c, err = r.Get(ctx, content.Reference{ID: 9}, sitemap.LanguageSelector{Language: "sv"})
		require.NoError(t, err)
		require.NotNil(t, c)
		assert.False(t, c.IsLocalizable())

		c, err = r.Get(ctx, content.Reference{ID: 999}, sitemap.LanguageSelector{})
		require.NoError(t, err)
		assert.Nil(t, c)
	})

	t.Run("descendants", func(t *testing.T) {
		refs, err := r.Descendants(ctx, content.Reference{ID: 5})
		require.NoError(t, err)
		assert.Equal(t, []content.Reference{{ID: 6}, {ID: 7}, {ID: 8}, {ID: 9}}, refs)

		_, err = r.Descendants(ctx, content.Reference{ID: 999})
		require.Error(t, err)
	})

	t.Run("language branches", func(t *testing.T) {
		branches, err := r.LanguageBranches(ctx, content.Reference{ID: 6})
		require.NoError(t, err)
		require.Len(t, branches, 2)
		assert.Equal(t, "en", branches[0].Language)
		assert.Equal(t, "sv", branches[1].Language)
	})

	t.Run("list of type", func(t *testing.T) {
		products, err := r.ListOfType(ctx, "Product", "en")
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "red", products[0].Data["color"])

		products, err = r.ListOfType(ctx, "Product", "sv")
		require.NoError(t, err)
		assert.Empty(t, products)
	})

	t.Run("catalog root", func(t *testing.T) {
		ref, err := r.CatalogRoot(ctx)
		require.NoError(t, err)
		assert.Equal(t, content.Reference{ID: 100, Provider: content.ProviderCatalog}, ref)
	})

	t.Run("url", func(t *testing.T) {
		assert.Equal(t, "/sv/om/", r.URL(ctx, content.Reference{ID: 6}, "sv"))
		assert.Equal(t, "", r.URL(ctx, content.Reference{ID: 7}, "sv"))
		assert.Equal(t, "/globalassets/logo.png", r.URL(ctx, content.Reference{ID: 9}, ""))
	})

	t.Run("languages", func(t *testing.T) {
		assert.Len(t, r.EnabledLanguages(ctx), 3)
		assert.Equal(t, "no", r.LanguageSegment("nb-no"))
		assert.Equal(t, "fr", r.LanguageSegment("FR"))
	})
}

func TestInvalidExports(t *testing.T) {
	r := loadedTestRepo(t)
	for name, data := range map[string]string{
		"no root":           `{"languages":[]}`,
		"invalid culture":   `{"languages":[{"culture":"not a culture"}],"root":{"id":"1"}}`,
		"duplicate id":      `{"root":{"id":"1","nodes":{"a":{"id":"3"},"b":{"id":"3"}}}}`,
		"unknown start":     `{"sites":[{"id":"x","startPage":"5"}],"root":{"id":"1"}}`,
		"invalid reference": `{"root":{"id":"abc"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			require.Error(t, r.loadJSONBytes([]byte(data)))
		})
	}
	// the previous snapshot survives
	assert.Len(t, r.Sites(t.Context()), 1)
}

func TestGenerateFromExport(t *testing.T) {
	r := loadedTestRepo(t)
	l := zaptest.NewLogger(t)

	g := sitemap.NewXMLGenerator(l, nopRepository{}, r, nopCache{})
	cfg := sitemap.NewConfig()
	cfg.SiteURL = "https://example.com/"
	cfg.IncludeAlternateLanguagePages = true

	res, err := g.Generate(t.Context(), cfg, false)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Entries)
	for _, loc := range []string{
		"<loc>https://example.com/en/about/</loc>",
		"<loc>https://example.com/sv/om/</loc>",
		"<loc>https://example.com/en/about/team/</loc>",
		"<loc>https://example.com/en/</loc>",
		"<loc>https://example.com/sv/</loc>",
		`hreflang="x-default"`,
		"<changefreq>monthly</changefreq>",
	} {
		assert.Contains(t, string(cfg.Data), loc)
	}
	assert.NotContains(t, string(cfg.Data), "/en/news/")
	assert.NotContains(t, string(cfg.Data), "logo.png")
}

func TestGenerateWithoutIndexIsStable(t *testing.T) {
	var children strings.Builder
	for i := 10; i < 18; i++ {
		if i > 10 {
			children.WriteString(",")
		}
		fmt.Fprintf(&children, `"%d":{"id":"%d","kind":"page","type":"StandardPage","template":"Standard","masterLanguage":"en",`+
			`"languages":{"en":{"name":"p%d","uri":"/en/p%d/","version":{"status":"published","startPublish":"2020-01-01T00:00:00Z"}}}}`, i, i, i, i)
	}
	export := `{"languages":[{"culture":"en","urlSegment":"en"}],` +
		`"sites":[{"id":"main","siteUrl":"https://example.com/","startPage":"5","hosts":[{"name":"*"}]}],` +
		`"root":{"id":"1","kind":"folder","type":"SysRoot","languages":{"":{"name":"Root"}},"nodes":{` +
		`"5":{"id":"5","kind":"page","type":"StartPage","template":"Start","masterLanguage":"en",` +
		`"languages":{"en":{"name":"Home","uri":"/en/","version":{"status":"published","startPublish":"2020-01-01T00:00:00Z"}}},` +
		`"nodes":{` + children.String() + `}}}}}`

	l := zaptest.NewLogger(t)
	h, err := NewHistory(l, HistoryWithHistoryDir(t.TempDir()))
	require.NoError(t, err)
	r := New(l, "file://export.json", h)
	require.NoError(t, r.loadJSONBytes([]byte(export)))

	g := sitemap.NewXMLGenerator(l, nopRepository{}, r, nopCache{})
	cfg := sitemap.NewConfig()
	cfg.SiteURL = "https://example.com/"

	res, err := g.Generate(t.Context(), cfg, false)
	require.NoError(t, err)
	assert.Equal(t, 9, res.Entries)
	first := cfg.Data
	assert.Less(t, bytes.Index(first, []byte("/en/p10/")), bytes.Index(first, []byte("/en/p17/")))

	for i := 0; i < 20; i++ {
		_, err := g.Generate(t.Context(), cfg, false)
		require.NoError(t, err)
		require.Equal(t, string(first), string(cfg.Data))
	}
}

func TestWriteExportBytesRace(t *testing.T) {
	r := loadedTestRepo(t)
	r.SetJSONBuffer(bytes.NewBufferString(`{"root":{"id":"1"}}`))

	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				default:
					var buf bytes.Buffer
					_ = r.WriteExportBytes(ctx, &buf)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				default:
					r.SetJSONBuffer(bytes.NewBufferString(`{"root":{"id":"1"}}`))
				}
			}
		}()
	}
	wg.Wait()

	var buf bytes.Buffer
	require.NoError(t, r.WriteExportBytes(t.Context(), &buf))
	assert.Equal(t, `{"reply":{"root":{"id":"1"}}}`, buf.String())
}

type (
	nopRepository struct{}
	nopCache      struct{}
)

func (nopRepository) Save(context.Context, *sitemap.Config) error { return nil }
func (nopRepository) Delete(context.Context, string) error        { return nil }
func (nopRepository) GetByID(context.Context, string) (*sitemap.Config, error) {
	return nil, sitemap.ErrNotFound
}
func (nopRepository) GetAll(context.Context) ([]*sitemap.Config, error) { return nil, nil }
func (nopRepository) GetByURL(context.Context, string) (*sitemap.Config, error) {
	return nil, sitemap.ErrNotFound
}

func (nopCache) Get(string) (any, bool)             { return nil, false }
func (nopCache) Insert(string, any, sitemap.Policy) {}
func (nopCache) Remove(string)                      {}
