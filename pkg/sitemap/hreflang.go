package sitemap

import (
	"context"
	"strings"
	"time"

	"github.com/foomo/sitemaps/content"
	"github.com/foomo/sitemaps/pkg/utils"
)

const hrefLangCacheTimeout = 10 * time.Minute

// hrefLangs alternates of an item in every enabled language, cached per
// reference and site url until the next generation job starts
func (g *XMLGenerator) hrefLangs(ctx context.Context, r *run, ref content.Reference) []*HrefLang {
	key := "HrefLangData-" + ref.WithoutVersion().String() + "-" + r.config.SiteURL
	if v, ok := g.cache.Get(key); ok {
		if links, ok := v.([]*HrefLang); ok {
			return links
		}
	}
	links := g.hrefLangData(ctx, r, ref)
	g.cache.Insert(key, links, Policy{TTL: hrefLangCacheTimeout, Tags: []string{GenerationKey}})
	return links
}

func (g *XMLGenerator) hrefLangData(ctx context.Context, r *run, ref content.Reference) []*HrefLang {
	var links []*HrefLang
	for _, lang := range r.languages {
		c, err := g.source.Get(ctx, ref, LanguageSelector{Language: lang.Culture, Fallback: true})
		if err != nil || c == nil {
			g.logMiss(ref, lang.Culture, err)
			continue
		}
		if g.filter.ShouldExclude(ctx, c) {
			continue
		}
		link := g.hrefLang(ctx, r, c, lang.Culture)
		if link == nil {
			continue
		}
		links = append(links, link)
		if link.Lang == XDefault {
			links = append(links, &HrefLang{Rel: "alternate", Lang: strings.ToLower(lang.Culture), Href: link.Href})
		}
	}
	return links
}

func (g *XMLGenerator) hrefLang(ctx context.Context, r *run, c *content.Content, culture string) *HrefLang {
	var languageURL, masterURL string
	if r.config.EnableSimpleAddressSupport && c.IsPage() && c.ExternalURL != "" {
		languageURL = c.ExternalURL
		master, err := g.source.Get(ctx, c.Ref, LanguageSelector{Language: c.MasterLanguage})
		if err == nil && master != nil {
			masterURL = master.ExternalURL
		}
	} else {
		languageURL = g.source.URL(ctx, c.Ref, culture)
		masterURL = g.source.URL(ctx, c.Ref, c.MasterLanguage)
	}
	if languageURL == "" {
		return nil
	}

	link := &HrefLang{
		Rel:  "alternate",
		Lang: strings.ToLower(culture),
		Href: utils.AbsoluteURL(r.config.SiteURL, languageURL),
	}
	if languageURL == masterURL && c.Ref.CompareIgnoreWork(r.site.StartPage) {
		link.Lang = XDefault
	}
	return link
}

// hasAlternates at least two links that are not just one language and its
// own x-default
func hasAlternates(links []*HrefLang) bool {
	if len(links) < 2 {
		return false
	}
	if len(links) == 2 {
		defaults := 0
		for _, link := range links {
			if link.Lang == XDefault {
				defaults++
			}
		}
		return defaults != 1
	}
	return true
}
