// contains data structures that describe content in a repository
package content

const (
	// PathSeparator separator for paths in URIs
	PathSeparator = "/"
	// ProviderCatalog provider name of commerce catalog references
	ProviderCatalog = "CatalogContent"
	// WildcardHost host name matching every authority of a site
	WildcardHost = "*"
	// GroupEveryone principal every anonymous visitor belongs to
	GroupEveryone = "Everyone"
	// VersionKey cache key that is removed whenever the repository changes
	VersionKey = "ContentVersion"
)

// Kind closed set of content kinds
type Kind string

const (
	KindPage    Kind = "page"
	KindBlock   Kind = "block"
	KindMedia   Kind = "media"
	KindFolder  Kind = "folder"
	KindCatalog Kind = "catalog"
)

// LinkType describes how a page links to its target
type LinkType string

const (
	LinkTypeNormal    LinkType = "normal"
	LinkTypeShortcut  LinkType = "shortcut"
	LinkTypeExternal  LinkType = "external"
	LinkTypeInactive  LinkType = "inactive"
	LinkTypeFetchData LinkType = "fetchData"
)
