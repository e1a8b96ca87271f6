package client_test

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/foomo/sitemaps/client"
	"github.com/foomo/sitemaps/pkg/cache"
	"github.com/foomo/sitemaps/pkg/handler"
	"github.com/foomo/sitemaps/pkg/job"
	"github.com/foomo/sitemaps/pkg/sitemap"
	"github.com/foomo/sitemaps/pkg/store"
	"github.com/foomo/sitemaps/requests"
	"github.com/foomo/sitemaps/responses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const pathSitemaps = "/sitemaps"

type (
	blockingGenerator struct {
		repository sitemap.Repository
		// set to block every run until it is stopped
		started chan struct{}
	}
	fakeContent struct{}
)

func (g *blockingGenerator) Generate(ctx context.Context, cfg *sitemap.Config, persist bool) (sitemap.Result, error) {
	if g.started != nil {
		close(g.started)
		<-ctx.Done()
		return sitemap.Result{Stopped: true}, nil
	}
	cfg.Data = []byte("<urlset/>")
	if persist {
		if err := g.repository.Save(ctx, cfg); err != nil {
			return sitemap.Result{}, err
		}
	}
	return sitemap.Result{Entries: 3}, nil
}

func (g *blockingGenerator) WithDebug(bool) sitemap.Generator {
	return g
}

func (c *fakeContent) Update(ctx context.Context) *responses.Update {
	return &responses.Update{Success: true, Stats: responses.Stats{NumberOfNodes: 4}}
}

func (c *fakeContent) WriteExportBytes(ctx context.Context, w io.Writer) error {
	_, err := w.Write([]byte(`{}`))
	return err
}

func TestInvalidHTTPClientInit(t *testing.T) {
	for _, server := range []string{"", "bogus", "htt:/notaurl", "htts://notaurl", "/path/segment/only"} {
		c, err := client.NewHTTPClient(server)
		assert.Nil(t, c, server)
		assert.Error(t, err, server)
	}
}

func TestConfigs(t *testing.T) {
	c, _ := newTestClient(t, &blockingGenerator{})

	req := requests.NewConfig()
	req.SiteURL = "https://example.com/"
	req.Language = "sv"
	req.AvoidPaths = "/sv/private/"
	saved, err := c.SaveConfig(t.Context(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "https://example.com/sv/sitemap.xml", saved.URL)
	assert.Equal(t, []string{"/sv/private/"}, saved.PathsToAvoid)

	configs, err := c.GetConfigs(t.Context())
	require.NoError(t, err)
	require.Len(t, configs.Configs, 1)
	assert.Equal(t, saved.ID, configs.Configs[0].ID)

	require.NoError(t, c.DeleteConfig(t.Context(), saved.ID))

	err = c.DeleteConfig(t.Context(), saved.ID)
	var apiErr *responses.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
	assert.Equal(t, 3, apiErr.Code)
}

func TestUpdate(t *testing.T) {
	c, _ := newTestClient(t, &blockingGenerator{})

	response, err := c.Update(t.Context())
	require.NoError(t, err)
	assert.True(t, response.Success)
	assert.Equal(t, 4, response.Stats.NumberOfNodes)
}

func TestGenerate(t *testing.T) {
	c, s := newTestClient(t, &blockingGenerator{})

	cfg := sitemap.NewConfig()
	cfg.SiteURL = "https://example.com/"
	cfg.Normalize()
	require.NoError(t, s.Save(t.Context(), cfg))

	response, err := c.Generate(t.Context())
	require.NoError(t, err)
	assert.True(t, response.Success)
	assert.Contains(t, response.Message, "https://example.com/sitemap.xml: Success - 3 entries included")

	_, err = c.Generate(t.Context(), "unknown")
	require.Error(t, err)
}

func TestGenerateRunning(t *testing.T) {
	g := &blockingGenerator{started: make(chan struct{})}
	c, s := newTestClient(t, g)

	cfg := sitemap.NewConfig()
	cfg.SiteURL = "https://example.com/"
	cfg.Normalize()
	require.NoError(t, s.Save(t.Context(), cfg))

	done := make(chan *responses.Job)
	go func() {
		response, _ := c.Generate(context.Background())
		done <- response
	}()

	select {
	case <-g.started:
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not start")
	}

	_, err := c.Generate(t.Context())
	require.ErrorIs(t, err, job.ErrJobRunning)

	require.NoError(t, c.Stop(t.Context()))

	select {
	case response := <-done:
		require.NotNil(t, response)
		assert.True(t, response.Stopped)
	case <-time.After(5 * time.Second):
		t.Fatal("generation did not stop")
	}
}

func newTestClient(t *testing.T, g *blockingGenerator) (*client.Client, *store.Store) {
	t.Helper()
	l := zaptest.NewLogger(t)

	s, err := store.Open(l, filepath.Join(t.TempDir(), "sitemaps.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})
	g.repository = s

	factory := sitemap.NewFactory()
	factory.MustRegister(sitemap.FormatStandard, g)
	c := cache.New(l)

	server := httptest.NewServer(handler.NewRouter(
		handler.NewSitemap(l, s, factory, c),
		handler.NewHTTP(l, s, job.New(l, s, factory, c, nil), &fakeContent{}),
	))
	t.Cleanup(server.Close)

	inst, err := client.NewHTTPClient(server.URL+pathSitemaps, client.HTTPTransportWithClient(server.Client()))
	require.NoError(t, err)
	return inst, s
}
