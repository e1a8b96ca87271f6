package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/foomo/sitemaps/content"
	"github.com/foomo/sitemaps/pkg/metrics"
	"github.com/foomo/sitemaps/pkg/sitemap"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	// CrawlerCacheKeyPrefix prefix of cache keys for crawler requests
	CrawlerCacheKeyPrefix = "Google-"
	contentTypeXML        = "text/xml; charset=utf-8"
)

var errNoData = errors.New("sitemap has no data")

type (
	// Sitemap serves generated sitemaps by their canonical url
	Sitemap struct {
		l               *zap.Logger
		repository      sitemap.Repository
		factory         *sitemap.Factory
		cache           sitemap.Cache
		realTime        bool
		realTimeCaching bool
		versionKey      string
		segments        func(language string) string
		router          chi.Router
	}
	SitemapOption func(*Sitemap)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewSitemap(l *zap.Logger, repository sitemap.Repository, factory *sitemap.Factory, cache sitemap.Cache, opts ...SitemapOption) *Sitemap {
	inst := &Sitemap{
		l:               l.Named("sitemap"),
		repository:      repository,
		factory:         factory,
		cache:           cache,
		realTimeCaching: true,
		versionKey:      content.VersionKey,
		segments:        strings.ToLower,
	}

	for _, opt := range opts {
		opt(inst)
	}

	inst.router = chi.NewRouter()
	inst.Routes(inst.router)

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// SitemapWithRealTime generates sitemaps on request instead of serving the stored ones
func SitemapWithRealTime(v bool) SitemapOption {
	return func(o *Sitemap) {
		o.realTime = v
	}
}

// SitemapWithRealTimeCaching caches sitemaps generated on request
func SitemapWithRealTimeCaching(v bool) SitemapOption {
	return func(o *Sitemap) {
		o.realTimeCaching = v
	}
}

// SitemapWithVersionKey cache key that is removed with every content update
func SitemapWithVersionKey(v string) SitemapOption {
	return func(o *Sitemap) {
		o.versionKey = v
	}
}

// SitemapWithLanguageSegments maps a pinned language to the url segment of its sitemap
func SitemapWithLanguageSegments(v func(language string) string) SitemapOption {
	return func(o *Sitemap) {
		o.segments = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Routes registers the sitemap routes, the catch all route answers every
// path ending with sitemap.xml
func (h *Sitemap) Routes(r chi.Router) {
	r.Get("/sitemap.xml", h.handle(RouteSitemap))
	r.Get("/{language}/sitemap.xml", h.handle(RouteSitemapLanguage))
	r.Get("/*", h.handle(RouteSitemapPath))
}

func (h *Sitemap) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (h *Sitemap) handle(route Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		status := http.StatusOK

		defer func() {
			metrics.ServiceRequestCounter.WithLabelValues(string(route), strconv.Itoa(status)).Inc()
			metrics.ServiceRequestDuration.WithLabelValues(string(route), strconv.Itoa(status)).Observe(time.Since(start).Seconds())
		}()

		if !strings.HasSuffix(strings.ToLower(r.URL.Path), sitemap.DefaultHost) {
			status = http.StatusNotFound
			http.NotFound(w, r)
			return
		}

		data, err := h.data(r.Context(), requestURL(r), isCrawler(r.UserAgent()))
		if err != nil {
			l := h.l.With(zap.String("url", requestURL(r)))
			if errors.Is(err, sitemap.ErrNotFound) {
				l.Debug("sitemap not found", zap.Error(err))
			} else {
				l.Error("failed to serve sitemap", zap.Error(err))
			}
			status = http.StatusNotFound
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", contentTypeXML)
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		_, _ = w.Write(data)
	}
}

// data stored or generated sitemap of the canonical url u
func (h *Sitemap) data(ctx context.Context, u string, crawler bool) ([]byte, error) {
	cfg, err := h.repository.GetByURL(ctx, u)
	if err != nil {
		return nil, err
	}

	if !h.realTime {
		if cfg.Data != nil {
			return cfg.Data, nil
		}
		if err := h.generate(ctx, cfg, true); err != nil {
			return nil, err
		}
		return cfg.Data, nil
	}

	// keyed by the stored url, requests differing in scheme or casing share an entry
	key := cfg.URL(h.segments(cfg.PinnedLanguage()))
	if crawler {
		key = CrawlerCacheKeyPrefix + key
	}
	if v, ok := h.cache.Get(key); ok {
		if data, ok := v.([]byte); ok {
			return data, nil
		}
	}

	if err := h.generate(ctx, cfg, false); err != nil {
		return nil, err
	}

	if h.realTimeCaching {
		switch {
		case crawler:
			h.cache.Insert(key, cfg.Data, sitemap.Policy{Sliding: true, Tags: []string{h.versionKey}})
		case cfg.CacheExpiration > 0:
			h.cache.Insert(key, cfg.Data, sitemap.Policy{TTL: time.Duration(cfg.CacheExpiration) * time.Minute})
		}
	}
	return cfg.Data, nil
}

func (h *Sitemap) generate(ctx context.Context, cfg *sitemap.Config, persist bool) error {
	g, err := h.factory.GetGenerator(cfg)
	if err != nil {
		return err
	}
	res, err := g.Generate(ctx, cfg, persist)
	if err != nil {
		return err
	}
	if res.Stopped || cfg.Data == nil {
		return errNoData
	}
	return nil
}

// requestURL absolute url of the request as seen by the client
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host + r.URL.Path
}

func isCrawler(userAgent string) bool {
	return strings.Contains(strings.ToLower(userAgent), "googlebot")
}
