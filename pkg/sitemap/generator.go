package sitemap

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/foomo/sitemaps/content"
	"github.com/foomo/sitemaps/pkg/metrics"
	"github.com/foomo/sitemaps/pkg/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultChangeFreq    = "weekly"
	languageCacheTimeout = 10 * time.Minute
)

type (
	// Generator renders the sitemap of a config
	Generator interface {
		// Generate renders cfg into cfg.Data and persists it if requested. A
		// cancelled context stops the run at the next item without persisting.
		Generate(ctx context.Context, cfg *Config, persist bool) (Result, error)
		// WithDebug returns a copy that adds debug comments to every entry
		WithDebug(debug bool) Generator
	}
	// Result outcome of a run
	Result struct {
		Entries  int
		Stopped  bool
		Exceeded bool
	}
	// XMLGenerator walks the content tree of a site and renders it
	XMLGenerator struct {
		l          *zap.Logger
		format     Format
		repository Repository
		source     ContentRepository
		cache      Cache
		filter     *ContentFilter
		augmenter  Augmenter
		collect    collectFunc
		mobile     bool
		debug      bool
		now        func() time.Time
	}
	GeneratorOption func(*XMLGenerator)
	// collectFunc adds the elements of a run
	collectFunc func(ctx context.Context, g *XMLGenerator, r *run) error
	// run state owned by a single Generate call
	run struct {
		config       *Config
		site         *content.Site
		siteURL      *url.URL
		hostLanguage string
		languages    []*content.Language
		urls         map[string]struct{}
		elements     []*URL
		exceeded     bool
		stopped      bool
	}
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// NewXMLGenerator standard sitemap generator
func NewXMLGenerator(l *zap.Logger, repository Repository, source ContentRepository, cache Cache, opts ...GeneratorOption) *XMLGenerator {
	inst := &XMLGenerator{
		l:          l.Named("generator"),
		format:     FormatStandard,
		repository: repository,
		source:     source,
		cache:      cache,
		augmenter:  IdentityAugmenter,
		collect:    standardElements,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(inst)
	}

	if inst.filter == nil {
		inst.filter = NewContentFilter(inst.l, WithFilterClock(inst.now))
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithContentFilter(v *ContentFilter) GeneratorOption {
	return func(o *XMLGenerator) {
		o.filter = v
	}
}

func WithAugmenter(v Augmenter) GeneratorOption {
	return func(o *XMLGenerator) {
		o.augmenter = v
	}
}

func WithDebug(v bool) GeneratorOption {
	return func(o *XMLGenerator) {
		o.debug = v
	}
}

func WithClock(v func() time.Time) GeneratorOption {
	return func(o *XMLGenerator) {
		o.now = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (g *XMLGenerator) WithDebug(debug bool) Generator {
	c := *g
	c.debug = debug
	return &c
}

func (g *XMLGenerator) Generate(ctx context.Context, cfg *Config, persist bool) (res Result, err error) {
	start := time.Now()
	l := g.l.With(
		zap.String("sitemap", cfg.ID),
		zap.String("site_url", cfg.SiteURL),
		zap.String("format", string(g.format)),
	)

	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Errorf("panic during generation: %v", rec)
		}
		status := "success"
		if err != nil {
			status = "error"
			res = Result{}
			l.Error("failed to generate sitemap", zap.Error(err))
		}
		metrics.GenerationCounter.WithLabelValues(string(g.format), status).Inc()
		metrics.GenerationDuration.WithLabelValues(string(g.format), status).Observe(time.Since(start).Seconds())
	}()

	r, err := g.newRun(ctx, cfg)
	if err != nil {
		return Result{}, err
	}

	if r.site == nil {
		l.Warn("no site matches the sitemap site url")
	} else if err := g.collect(ctx, g, r); err != nil {
		return Result{}, err
	}

	set := &urlSet{
		Xmlns: Namespace,
		URLs:  r.elements,
	}
	if cfg.IncludeAlternateLanguagePages {
		set.XmlnsXhtml = XhtmlNamespace
	}
	if g.mobile {
		set.XmlnsMobile = MobileNamespace
	}

	data, err := marshal(set)
	if err != nil {
		return Result{}, err
	}
	cfg.Data = data
	cfg.ExceedsMaximumEntryCount = r.exceeded

	if r.stopped {
		l.Info("sitemap generation stopped", zap.Int("entries", len(r.elements)))
	} else if persist {
		if err := g.repository.Save(ctx, cfg); err != nil {
			return Result{}, errors.Wrap(err, "failed to persist sitemap")
		}
	}

	l.Debug("sitemap generated",
		zap.Int("entries", len(r.elements)),
		zap.Bool("exceeded", r.exceeded),
		zap.Bool("persisted", persist && !r.stopped),
	)
	metrics.EntriesGauge.WithLabelValues(cfg.ID).Set(float64(len(r.elements)))

	return Result{
		Entries:  len(r.elements),
		Stopped:  r.stopped,
		Exceeded: r.exceeded,
	}, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (g *XMLGenerator) newRun(ctx context.Context, cfg *Config) (*run, error) {
	siteURL, err := url.Parse(cfg.SiteURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid site url %q", cfg.SiteURL)
	}
	r := &run{
		config:    cfg,
		siteURL:   siteURL,
		languages: g.source.EnabledLanguages(ctx),
		urls:      map[string]struct{}{},
	}
	if siteURL.Host == "" {
		return r, nil
	}
	for _, site := range g.source.Sites(ctx) {
		if site.Matches(siteURL) {
			r.site = site
			break
		}
	}
	if r.site != nil {
		if host := r.site.Host(siteURL.Host); host != nil {
			r.hostLanguage = host.Language
		}
	}
	return r, nil
}

func standardElements(ctx context.Context, g *XMLGenerator, r *run) error {
	root := r.site.StartPage
	// 0 is the empty reference, like the default it selects the start page
	if r.config.RootPageID > 0 {
		root = content.Reference{ID: r.config.RootPageID}
	}
	refs, err := g.source.Descendants(ctx, root)
	if err != nil {
		return errors.Wrapf(err, "failed to list descendants of %s", root)
	}
	if !root.CompareIgnoreWork(content.RootReference) {
		refs = append(refs, root)
	}
	g.addElements(ctx, r, refs)
	return nil
}

func (g *XMLGenerator) addElements(ctx context.Context, r *run, refs []content.Reference) {
	for _, ref := range refs {
		if ctx.Err() != nil {
			r.stopped = true
			return
		}
		if ref.IsEmpty() || g.isMarkedExcluded(ctx, ref) {
			continue
		}
		for _, v := range g.variants(ctx, r, ref) {
			if v.Content.IsLocalizable() && g.excludeLanguage(r, v.Content.Language) {
				continue
			}
			if len(r.urls) >= MaxEntryCount {
				r.exceeded = true
				return
			}
			g.addVariant(ctx, r, v)
		}
	}
}

func (g *XMLGenerator) isMarkedExcluded(ctx context.Context, ref content.Reference) bool {
	c, err := g.source.Get(ctx, ref, LanguageSelector{})
	if err != nil {
		g.l.Debug("failed to load content", zap.String("ref", ref.String()), zap.Error(err))
		return false
	}
	return c != nil && c.ExcludeFromSitemap
}

func (g *XMLGenerator) variants(ctx context.Context, r *run, ref content.Reference) []*content.Variant {
	if lang := r.config.PinnedLanguage(); lang != "" {
		c, err := g.source.Get(ctx, ref, LanguageSelector{Language: lang, Fallback: r.config.EnableLanguageFallback})
		if err != nil || c == nil {
			g.logMiss(ref, lang, err)
			return nil
		}
		return []*content.Variant{{Content: c, Language: lang, MasterLanguage: c.MasterLanguage}}
	}

	if r.config.EnableLanguageFallback {
		var ret []*content.Variant
		for _, lang := range r.languages {
			c, err := g.source.Get(ctx, ref, LanguageSelector{Language: lang.Culture, Fallback: true})
			if err != nil || c == nil {
				g.logMiss(ref, lang.Culture, err)
				continue
			}
			ret = append(ret, &content.Variant{Content: c, Language: lang.Culture, MasterLanguage: c.MasterLanguage})
		}
		return ret
	}

	branches, err := g.source.LanguageBranches(ctx, ref)
	if err != nil {
		g.logMiss(ref, "", err)
		return nil
	}
	ret := make([]*content.Variant, 0, len(branches))
	for _, c := range branches {
		ret = append(ret, content.NewVariant(c))
	}
	return ret
}

// excludeLanguage drops content in a language another host of the site is
// bound to
func (g *XMLGenerator) excludeLanguage(r *run, language string) bool {
	if r.hostLanguage == "" || strings.EqualFold(r.hostLanguage, language) {
		return false
	}
	key := fmt.Sprintf("HostDefinitionExistsForLanguage-%s-%s", strings.ToLower(language), r.site.ID)
	if v, ok := g.cache.Get(key); ok {
		if exists, ok := v.(bool); ok {
			return exists
		}
	}
	exists := r.site.HasHostForLanguage(language)
	g.cache.Insert(key, exists, Policy{TTL: languageCacheTimeout})
	return exists
}

func (g *XMLGenerator) addVariant(ctx context.Context, r *run, v *content.Variant) {
	if g.filter.ShouldExcludeVariant(ctx, v, r.site, r.config) {
		return
	}

	contentURL := g.contentURL(ctx, r, v)
	if contentURL == "" {
		return
	}

	u, err := url.Parse(utils.AbsoluteURL(r.config.SiteURL, contentURL))
	if err != nil {
		g.l.Debug("skipping invalid url", zap.String("url", contentURL), zap.Error(err))
		return
	}

	for _, augmented := range g.augmenter.Augment(ctx, v.Content, v, u) {
		if len(r.urls) >= MaxEntryCount {
			r.exceeded = true
			return
		}
		loc := augmented.String()
		if _, ok := r.urls[loc]; ok || IsFiltered(augmented.EscapedPath(), r.config) {
			continue
		}
		r.elements = append(r.elements, g.entry(ctx, r, v, augmented))
		r.urls[loc] = struct{}{}
	}
}

func (g *XMLGenerator) contentURL(ctx context.Context, r *run, v *content.Variant) string {
	c := v.Content
	if r.config.EnableSimpleAddressSupport && c.IsPage() && c.ExternalURL != "" {
		return c.ExternalURL
	}
	if !c.IsLocalizable() {
		return g.source.URL(ctx, c.Ref, "")
	}

	language := r.config.PinnedLanguage()
	if language == "" {
		language = v.Language
	}
	ret := g.source.URL(ctx, c.Ref, language)

	// the host already implies its language
	if r.hostLanguage != "" && strings.EqualFold(c.Language, r.hostLanguage) {
		ret = strings.ReplaceAll(ret, "/"+r.hostLanguage+"/", "/")
	}
	return ret
}

func (g *XMLGenerator) entry(ctx context.Context, r *run, v *content.Variant, u *url.URL) *URL {
	c := v.Content
	e := &URL{
		Loc:        u.String(),
		LastMod:    lastModified(c, g.now()).Format(DateTimeFormat),
		ChangeFreq: defaultChangeFreq,
		Priority:   priority(u),
	}
	if s := c.Sitemap; s != nil {
		if s.ChangeFreq != "" {
			e.ChangeFreq = s.ChangeFreq
		}
		if s.Priority != "" {
			e.Priority = s.Priority
		}
	}
	if r.config.IncludeAlternateLanguagePages && c.IsLocalizable() {
		if links := g.hrefLangs(ctx, r, c.Ref); hasAlternates(links) {
			e.Alternates = links
		}
	}
	if g.mobile {
		e.Mobile = &mobile{}
	}
	if g.debug {
		language := v.Language
		if language == "" {
			language = c.Language
		}
		e.Comment = fmt.Sprintf("page ID: '%d', name: '%s', language: '%s'", c.Ref.ID, strings.ReplaceAll(c.Name, "-", ""), language)
	}
	return e
}

func (g *XMLGenerator) logMiss(ref content.Reference, language string, err error) {
	if err != nil {
		g.l.Debug("failed to load content", zap.String("ref", ref.String()), zap.String("language", language), zap.Error(err))
	}
}

// lastModified saved timestamp, publish start or a month ago
func lastModified(c *content.Content, now time.Time) time.Time {
	if c.Saved != nil {
		return *c.Saved
	}
	if c.Version != nil && c.Version.StartPublish != nil {
		return *c.Version.StartPublish
	}
	return now.AddDate(0, -1, 0)
}

// priority decreases with the path depth, 1 for the root down to 0.5
func priority(u *url.URL) string {
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	segments := strings.Count(path, "/")
	if !strings.HasSuffix(path, "/") {
		segments++
	}
	depth := segments - 1
	v := math.Max(1.0-float64(depth)/10.0, 0.5)
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}
