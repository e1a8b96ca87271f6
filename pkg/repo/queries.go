package repo

import (
	"context"
	"strings"

	"github.com/foomo/sitemaps/content"
	"github.com/foomo/sitemaps/pkg/metrics"
	"github.com/foomo/sitemaps/pkg/sitemap"
	"github.com/pkg/errors"
)

var ErrNotLoaded = errors.New("content repository not loaded")

// ensure interface
var _ sitemap.ContentRepository = (*Repo)(nil)

// Get resolves ref in the selected language. Without a language the master
// branch is returned, with fallback the language's fallback chain is tried.
func (r *Repo) Get(ctx context.Context, ref content.Reference, sel sitemap.LanguageSelector) (*content.Content, error) {
	s := r.Snapshot()
	if s == nil {
		return nil, ErrNotLoaded
	}
	n := s.Node(ref)
	if n == nil {
		metrics.InvalidReferenceRequests.WithLabelValues().Inc()
		return nil, nil
	}
	if sel.Language == "" {
		c, _ := n.ToContent(n.MasterLanguage)
		return c, nil
	}
	if c, ok := n.ToContent(sel.Language); ok {
		return c, nil
	}
	if !sel.Fallback {
		return nil, nil
	}
	if lang := s.Language(sel.Language); lang != nil {
		for _, fallback := range lang.Fallbacks {
			if c, ok := n.ToContent(fallback); ok {
				return c, nil
			}
		}
	}
	return nil, nil
}

func (r *Repo) Descendants(ctx context.Context, ref content.Reference) ([]content.Reference, error) {
	s := r.Snapshot()
	if s == nil {
		return nil, ErrNotLoaded
	}
	n := s.Node(ref)
	if n == nil {
		metrics.InvalidReferenceRequests.WithLabelValues().Inc()
		return nil, errors.Errorf("unknown content %s", ref)
	}
	nodes := s.Descendants(n)
	ret := make([]content.Reference, 0, len(nodes))
	for _, node := range nodes {
		ret = append(ret, node.ID)
	}
	return ret, nil
}

func (r *Repo) LanguageBranches(ctx context.Context, ref content.Reference) ([]*content.Content, error) {
	s := r.Snapshot()
	if s == nil {
		return nil, ErrNotLoaded
	}
	n := s.Node(ref)
	if n == nil {
		return nil, nil
	}
	if !n.IsLocalizable() {
		c, ok := n.ToContent("")
		if !ok {
			return nil, nil
		}
		return []*content.Content{c}, nil
	}
	var ret []*content.Content
	for _, lang := range s.Branches(n) {
		if c, ok := n.ToContent(lang); ok {
			ret = append(ret, c)
		}
	}
	return ret, nil
}

func (r *Repo) ListOfType(ctx context.Context, typeName, language string) ([]*content.Content, error) {
	s := r.Snapshot()
	if s == nil {
		return nil, ErrNotLoaded
	}
	var ret []*content.Content
	for _, n := range s.Types[typeName] {
		if c, ok := n.ToContent(language); ok {
			ret = append(ret, c)
		}
	}
	return ret, nil
}

func (r *Repo) CatalogRoot(ctx context.Context) (content.Reference, error) {
	s := r.Snapshot()
	if s == nil {
		return content.EmptyReference, ErrNotLoaded
	}
	if s.CatalogRoot.IsEmpty() {
		return content.EmptyReference, errors.New("export has no catalog root")
	}
	return s.CatalogRoot, nil
}

// URL path of the language branch, empty if the item has no branch in that language
func (r *Repo) URL(ctx context.Context, ref content.Reference, language string) string {
	s := r.Snapshot()
	if s == nil {
		return ""
	}
	n := s.Node(ref)
	if n == nil {
		return ""
	}
	branch, _, ok := n.LanguageBranch(language)
	if !ok {
		return ""
	}
	return branch.URI
}

func (r *Repo) Sites(ctx context.Context) []*content.Site {
	if s := r.Snapshot(); s != nil {
		return s.Sites
	}
	return nil
}

// EnabledLanguages languages that are not disabled
func (r *Repo) EnabledLanguages(ctx context.Context) []*content.Language {
	s := r.Snapshot()
	if s == nil {
		return nil
	}
	ret := make([]*content.Language, 0, len(s.Languages))
	for _, lang := range s.Languages {
		if !lang.Disabled {
			ret = append(ret, lang)
		}
	}
	return ret
}

// LanguageSegment url segment of a language, the lower cased culture if unknown
func (r *Repo) LanguageSegment(language string) string {
	if s := r.Snapshot(); s != nil {
		if lang := s.Language(language); lang != nil {
			return lang.Segment()
		}
	}
	return strings.ToLower(language)
}
