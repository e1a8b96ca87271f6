package sitemap

import (
	"go.uber.org/zap"
)

// NewMobileGenerator standard traversal, every entry is marked as mobile content
func NewMobileGenerator(l *zap.Logger, repository Repository, source ContentRepository, cache Cache, opts ...GeneratorOption) *XMLGenerator {
	inst := NewXMLGenerator(l, repository, source, cache, opts...)
	inst.l = inst.l.Named("mobile")
	inst.format = FormatMobile
	inst.mobile = true
	return inst
}
