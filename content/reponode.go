package content

import (
	"sort"
	"strings"
	"time"
)

type (
	// RepoNode node in an exported content tree
	RepoNode struct {
		ID                 Reference                `json:"id"`   // unique identifier - it is your responsibility, that they are unique
		Kind               Kind                     `json:"kind"` // page, block, media, folder or catalog
		Type               string                   `json:"type"` // content type name
		LinkType           LinkType                 `json:"linkType,omitempty"`
		Groups             []string                 `json:"groups,omitempty"` // which groups have access to the node, if empty everybody has access to it
		Deleted            bool                     `json:"deleted,omitempty"`
		Template           string                   `json:"template,omitempty"` // render template, empty for headless only types
		ExcludeFromSitemap bool                     `json:"excludeFromSitemap,omitempty"`
		MasterLanguage     string                   `json:"masterLanguage,omitempty"` // empty if the node is not localizable
		TypeSitemap        *SitemapSettings         `json:"typeSitemap,omitempty"`
		Languages          map[string]*RepoLanguage `json:"languages"` // language branches, keyed by culture
		Nodes              map[string]*RepoNode     `json:"nodes"`     // child nodes
		Index              []string                 `json:"index"`     // defines the order of the child nodes
		parent             *RepoNode                // parent node - helps to resolve a path / bread crumb
	}
	// RepoLanguage language branch of a node
	RepoLanguage struct {
		Name        string            `json:"name"`
		URI         string            `json:"uri"`
		ExternalURL string            `json:"externalUrl,omitempty"`
		Version     *Version          `json:"version,omitempty"`
		Saved       *time.Time        `json:"saved,omitempty"`
		Sitemap     *SitemapSettings  `json:"sitemap,omitempty"`
		Data        map[string]string `json:"data,omitempty"`
	}
)

// WireParents helper method to reference from child to parent in a tree
// recursively
func (n *RepoNode) WireParents() {
	for _, childNode := range n.Nodes {
		childNode.parent = n
		childNode.WireParents()
	}
}

// GetParent get the parent node of a node
func (n *RepoNode) GetParent() *RepoNode {
	return n.parent
}

// Children child nodes in index order; nodes missing in the index are appended
// sorted by key
func (n *RepoNode) Children() []*RepoNode {
	children := make([]*RepoNode, 0, len(n.Nodes))
	seen := make(map[string]struct{}, len(n.Index))
	for _, id := range n.Index {
		if child, ok := n.Nodes[id]; ok {
			if _, dup := seen[id]; dup {
				continue
			}
			children = append(children, child)
			seen[id] = struct{}{}
		}
	}
	var unindexed []string
	for id := range n.Nodes {
		if _, ok := seen[id]; !ok {
			unindexed = append(unindexed, id)
		}
	}
	sort.Strings(unindexed)
	for _, id := range unindexed {
		children = append(children, n.Nodes[id])
	}
	return children
}

func (n *RepoNode) IsLocalizable() bool {
	return n.MasterLanguage != ""
}

// LanguageBranch returns the exact branch for a culture; non localizable nodes
// answer every culture with their single branch
func (n *RepoNode) LanguageBranch(culture string) (*RepoLanguage, string, bool) {
	cultures := make([]string, 0, len(n.Languages))
	for lang := range n.Languages {
		cultures = append(cultures, lang)
	}
	sort.Strings(cultures)
	if !n.IsLocalizable() {
		if len(cultures) == 0 {
			return nil, "", false
		}
		return n.Languages[cultures[0]], cultures[0], true
	}
	if branch, ok := n.Languages[culture]; ok {
		return branch, culture, true
	}
	for _, lang := range cultures {
		if strings.EqualFold(lang, culture) {
			return n.Languages[lang], lang, true
		}
	}
	return nil, "", false
}

// ToContent resolve the node in one of its language branches
func (n *RepoNode) ToContent(culture string) (*Content, bool) {
	branch, lang, ok := n.LanguageBranch(culture)
	if !ok {
		return nil, false
	}
	c := &Content{
		Ref:                n.ID,
		Kind:               n.Kind,
		Type:               n.Type,
		Name:               branch.Name,
		LinkType:           n.LinkType,
		MasterLanguage:     n.MasterLanguage,
		Groups:             n.Groups,
		Deleted:            n.Deleted,
		HasTemplate:        n.Template != "",
		ExcludeFromSitemap: n.ExcludeFromSitemap,
		ExternalURL:        branch.ExternalURL,
		Version:            branch.Version,
		Saved:              branch.Saved,
		Sitemap:            branch.Sitemap,
		TypeSitemap:        n.TypeSitemap,
		Data:               branch.Data,
	}
	if c.LinkType == "" {
		c.LinkType = LinkTypeNormal
	}
	if n.IsLocalizable() {
		c.Language = lang
	}
	return c, true
}
