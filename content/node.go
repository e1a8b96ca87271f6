package content

import (
	"time"
)

type (
	// Content a content item resolved in one language
	Content struct {
		Ref                Reference
		Kind               Kind
		Type               string
		Name               string
		LinkType           LinkType
		Language           string // empty if the item is not localizable
		MasterLanguage     string
		Groups             []string // which groups may read the item, if empty everybody can
		Deleted            bool
		HasTemplate        bool
		ExcludeFromSitemap bool
		ExternalURL        string
		Version            *Version   // nil if the item is not versionable
		Saved              *time.Time // nil if the item does not track changes
		Sitemap            *SitemapSettings
		TypeSitemap        *SitemapSettings
		Data               map[string]string
	}
	// Version publishing state of a versionable item
	Version struct {
		Status         Status     `json:"status"`
		PendingPublish bool       `json:"pendingPublish,omitempty"`
		StartPublish   *time.Time `json:"startPublish,omitempty"`
		StopPublish    *time.Time `json:"stopPublish,omitempty"`
	}
	// SitemapSettings per item sitemap annotation
	SitemapSettings struct {
		Enabled    bool   `json:"enabled" yaml:"enabled"`
		ChangeFreq string `json:"changeFreq,omitempty" yaml:"changeFreq"`
		Priority   string `json:"priority,omitempty" yaml:"priority"`
	}
	// Variant a content item in the culture it was requested in
	Variant struct {
		Content        *Content
		Language       string
		MasterLanguage string
	}
)

func (c *Content) IsLocalizable() bool {
	return c.Language != ""
}

// IsPage page like content, catalog entries included
func (c *Content) IsPage() bool {
	return c.Kind == KindPage || c.Kind == KindCatalog
}

// CanBeAccessedByGroups can this item be read by at least one of the given groups
func (c *Content) CanBeAccessedByGroups(groups []string) bool {
	// no groups set => anybody can access it
	if len(c.Groups) == 0 {
		return true
	}
	for _, group := range groups {
		for _, myGroup := range c.Groups {
			if group == myGroup {
				return true
			}
		}
	}
	return false
}

// IsPublished checks the status and the publish window at the given time
func (v *Version) IsPublished(now time.Time) bool {
	if v.Status != StatusPublished || v.PendingPublish {
		return false
	}
	if v.StartPublish != nil && now.Before(*v.StartPublish) {
		return false
	}
	if v.StopPublish != nil && !now.Before(*v.StopPublish) {
		return false
	}
	return true
}

// NewVariant wraps a resolved item
func NewVariant(c *Content) *Variant {
	return &Variant{
		Content:        c,
		Language:       c.Language,
		MasterLanguage: c.MasterLanguage,
	}
}
