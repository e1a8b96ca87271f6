package sitemap

import (
	"context"
	"encoding/xml"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/foomo/sitemaps/content"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type (
	fakeItem struct {
		branches map[string]*content.Content
		urls     map[string]string
	}
	fakeContent struct {
		sites       []*content.Site
		languages   []*content.Language
		items       map[string]*fakeItem
		order       []content.Reference
		children    map[string][]content.Reference
		catalogRoot content.Reference
		lock        sync.Mutex
		calls       int
	}
	fakeStore struct {
		saved []*Config
	}
	fakeCache struct {
		items map[string]any
		tags  map[string][]string
	}
	testURLSet struct {
		URLs []testURL `xml:"url"`
	}
	testURL struct {
		Loc        string         `xml:"loc"`
		LastMod    string         `xml:"lastmod"`
		ChangeFreq string         `xml:"changefreq"`
		Priority   string         `xml:"priority"`
		Links      []testHrefLang `xml:"link"`
	}
	testHrefLang struct {
		Lang string `xml:"hreflang,attr"`
		Href string `xml:"href,attr"`
	}
)

func newFakeContent(sites ...*content.Site) *fakeContent {
	return &fakeContent{
		sites:     sites,
		languages: []*content.Language{{Culture: "en"}},
		items:     map[string]*fakeItem{},
		children:  map[string][]content.Reference{},
	}
}

// add registers a page below parent in every given language, url is "/<lang>/<name>/"
func (f *fakeContent) add(parent content.Reference, ref content.Reference, branches ...*content.Content) {
	item := &fakeItem{branches: map[string]*content.Content{}, urls: map[string]string{}}
	for _, c := range branches {
		c.Ref = ref
		item.branches[c.Language] = c
		if c.Language == "" {
			item.urls[""] = "/" + c.Name + "/"
		} else {
			item.urls[c.Language] = "/" + c.Language + "/" + c.Name + "/"
		}
	}
	f.items[ref.String()] = item
	f.order = append(f.order, ref)
	if !parent.IsEmpty() {
		f.children[parent.String()] = append(f.children[parent.String()], ref)
	}
}

func (f *fakeContent) hit() {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls++
}

func (f *fakeContent) Calls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.calls
}

func (f *fakeContent) Get(_ context.Context, ref content.Reference, sel LanguageSelector) (*content.Content, error) {
	f.hit()
	item, ok := f.items[ref.WithoutVersion().String()]
	if !ok {
		return nil, nil
	}
	if c, ok := item.branches[""]; ok {
		return c, nil
	}
	if sel.Language == "" {
		for _, c := range item.branches {
			if c.Language == c.MasterLanguage {
				return c, nil
			}
		}
		return nil, nil
	}
	if c, ok := item.branches[sel.Language]; ok {
		return c, nil
	}
	if sel.Fallback {
		for _, lang := range f.languages {
			if lang.Culture != sel.Language {
				continue
			}
			for _, fallback := range lang.Fallbacks {
				if c, ok := item.branches[fallback]; ok {
					return c, nil
				}
			}
		}
	}
	return nil, nil
}

func (f *fakeContent) Descendants(_ context.Context, ref content.Reference) ([]content.Reference, error) {
	f.hit()
	var ret []content.Reference
	for _, child := range f.children[ref.String()] {
		ret = append(ret, child)
		grandChildren, _ := f.Descendants(context.Background(), child)
		ret = append(ret, grandChildren...)
	}
	return ret, nil
}

func (f *fakeContent) LanguageBranches(_ context.Context, ref content.Reference) ([]*content.Content, error) {
	f.hit()
	item, ok := f.items[ref.String()]
	if !ok {
		return nil, nil
	}
	ret := make([]*content.Content, 0, len(item.branches))
	for _, c := range item.branches {
		ret = append(ret, c)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].Language < ret[j].Language })
	return ret, nil
}

func (f *fakeContent) ListOfType(_ context.Context, typeName, language string) ([]*content.Content, error) {
	f.hit()
	var ret []*content.Content
	for _, ref := range f.order {
		for _, c := range f.items[ref.String()].branches {
			if c.Type == typeName && (c.Language == language || c.Language == "") {
				ret = append(ret, c)
			}
		}
	}
	return ret, nil
}

func (f *fakeContent) CatalogRoot(context.Context) (content.Reference, error) {
	return f.catalogRoot, nil
}

func (f *fakeContent) URL(_ context.Context, ref content.Reference, language string) string {
	f.hit()
	if item, ok := f.items[ref.String()]; ok {
		return item.urls[language]
	}
	return ""
}

func (f *fakeContent) Sites(context.Context) []*content.Site {
	return f.sites
}

func (f *fakeContent) EnabledLanguages(context.Context) []*content.Language {
	return f.languages
}

func (s *fakeStore) Save(_ context.Context, cfg *Config) error {
	c := *cfg
	s.saved = append(s.saved, &c)
	return nil
}

func (s *fakeStore) Delete(context.Context, string) error { return nil }

func (s *fakeStore) GetByID(context.Context, string) (*Config, error) { return nil, ErrNotFound }

func (s *fakeStore) GetAll(context.Context) ([]*Config, error) { return s.saved, nil }

func (s *fakeStore) GetByURL(context.Context, string) (*Config, error) { return nil, ErrNotFound }

func newFakeCache() *fakeCache {
	return &fakeCache{items: map[string]any{}, tags: map[string][]string{}}
}

func (c *fakeCache) Get(key string) (any, bool) {
	v, ok := c.items[key]
	return v, ok
}

func (c *fakeCache) Insert(key string, value any, policy Policy) {
	c.items[key] = value
	for _, tag := range policy.Tags {
		c.tags[tag] = append(c.tags[tag], key)
	}
}

func (c *fakeCache) Remove(key string) {
	delete(c.items, key)
	for _, dependent := range c.tags[key] {
		delete(c.items, dependent)
	}
	delete(c.tags, key)
}

// page published, accessible, rendered page
func page(name, language string) *content.Content {
	start := testNow.AddDate(-1, 0, 0)
	master := ""
	if language != "" {
		master = "en"
	}
	return &content.Content{
		Kind:           content.KindPage,
		Type:           "StandardPage",
		Name:           name,
		LinkType:       content.LinkTypeNormal,
		Language:       language,
		MasterLanguage: master,
		HasTemplate:    true,
		Version:        &content.Version{Status: content.StatusPublished, StartPublish: &start},
	}
}

func testSite() *content.Site {
	return &content.Site{
		ID:        "site",
		URL:       "https://example.com/",
		StartPage: content.Reference{ID: 5},
		Hosts:     []*content.Host{{Name: "example.com"}, {Name: content.WildcardHost}},
	}
}

func parseSitemap(t *testing.T, data []byte) testURLSet {
	t.Helper()
	require.True(t, strings.HasPrefix(string(data), Declaration))
	var set testURLSet
	require.NoError(t, xml.Unmarshal(data, &set))
	return set
}

func locs(set testURLSet) []string {
	ret := make([]string, 0, len(set.URLs))
	for _, u := range set.URLs {
		ret = append(ret, u.Loc)
	}
	return ret
}
