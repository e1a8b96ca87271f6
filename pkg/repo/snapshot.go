package repo

import (
	"sort"

	"github.com/foomo/sitemaps/content"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

type (
	// Export content export as delivered by the content source
	Export struct {
		Languages   []*content.Language `json:"languages"`
		Sites       []*content.Site     `json:"sites"`
		CatalogRoot content.Reference   `json:"catalogRoot"`
		Root        *content.RepoNode   `json:"root"`
	}
	// Snapshot immutable, indexed view of one export
	Snapshot struct {
		Export
		// Directory nodes by reference without version
		Directory map[string]*content.RepoNode
		// Types nodes by content type, depth first
		Types map[string][]*content.RepoNode
		// NumberOfURIs language branches with an uri
		NumberOfURIs int
	}
)

func newSnapshot(export *Export) (*Snapshot, error) {
	if export.Root == nil {
		return nil, errors.New("export has no root node")
	}
	for _, lang := range export.Languages {
		if _, err := language.Parse(lang.Culture); err != nil {
			return nil, errors.Wrapf(err, "invalid culture %q", lang.Culture)
		}
	}
	export.Root.WireParents()

	s := &Snapshot{
		Export:    *export,
		Directory: map[string]*content.RepoNode{},
		Types:     map[string][]*content.RepoNode{},
	}
	if err := s.buildDirectory(export.Root); err != nil {
		return nil, errors.Wrap(err, "failed to build directory")
	}
	for _, site := range export.Sites {
		if _, ok := s.Directory[site.StartPage.WithoutVersion().String()]; !ok {
			return nil, errors.Errorf("start page %s of site %q does not exist", site.StartPage, site.ID)
		}
	}
	return s, nil
}

// Node returns the node of a reference, ignoring its version
func (s *Snapshot) Node(ref content.Reference) *content.RepoNode {
	return s.Directory[ref.WithoutVersion().String()]
}

// Language enabled language by culture, case insensitive
func (s *Snapshot) Language(culture string) *content.Language {
	for _, lang := range s.Languages {
		if !lang.Disabled && equalCulture(lang.Culture, culture) {
			return lang
		}
	}
	return nil
}

// Descendants all nodes below n, depth first in index order
func (s *Snapshot) Descendants(n *content.RepoNode) []*content.RepoNode {
	var ret []*content.RepoNode
	for _, child := range n.Children() {
		ret = append(ret, child)
		ret = append(ret, s.Descendants(child)...)
	}
	return ret
}

// Branches languages of a node, sorted
func (s *Snapshot) Branches(n *content.RepoNode) []string {
	ret := make([]string, 0, len(n.Languages))
	for lang := range n.Languages {
		ret = append(ret, lang)
	}
	sort.Strings(ret)
	return ret
}

func (s *Snapshot) buildDirectory(n *content.RepoNode) error {
	key := n.ID.WithoutVersion().String()
	if n.ID.IsEmpty() {
		return errors.Errorf("node without id below %s", parentID(n))
	}
	if _, ok := s.Directory[key]; ok {
		return errors.Errorf("duplicate node with id %s", key)
	}
	s.Directory[key] = n
	if n.Type != "" {
		s.Types[n.Type] = append(s.Types[n.Type], n)
	}
	for _, branch := range n.Languages {
		if branch.URI != "" {
			s.NumberOfURIs++
		}
	}
	for _, child := range n.Children() {
		if err := s.buildDirectory(child); err != nil {
			return err
		}
	}
	return nil
}

func parentID(n *content.RepoNode) string {
	if p := n.GetParent(); p != nil {
		return p.ID.String()
	}
	return "root"
}

// equalCulture compares two cultures by their canonical BCP 47 form
func equalCulture(a, b string) bool {
	if a == b {
		return true
	}
	ta, errA := language.Parse(a)
	tb, errB := language.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return ta.String() == tb.String()
}
