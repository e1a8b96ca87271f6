package sitemap

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Factory selects the generator of a config by its format
type Factory struct {
	generators map[Format]Generator
	lock       sync.RWMutex
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewFactory() *Factory {
	return &Factory{
		generators: map[Format]Generator{},
	}
}

// NewDefaultFactory registers a generator for every known format
func NewDefaultFactory(l *zap.Logger, repository Repository, source ContentRepository, cache Cache, opts ...GeneratorOption) *Factory {
	f := NewFactory()
	f.MustRegister(FormatStandard, NewXMLGenerator(l, repository, source, cache, opts...))
	f.MustRegister(FormatMobile, NewMobileGenerator(l, repository, source, cache, opts...))
	f.MustRegister(FormatCommerce, NewCommerceGenerator(l, repository, source, cache, opts...))
	f.MustRegister(FormatStandardAndCommerce, NewStandardAndCommerceGenerator(l, repository, source, cache, opts...))
	return f
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (f *Factory) Register(format Format, g Generator) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if _, ok := f.generators[format]; ok {
		return errors.Errorf("generator for format %q already registered", format)
	}
	f.generators[format] = g
	return nil
}

func (f *Factory) MustRegister(format Format, g Generator) {
	if err := f.Register(format, g); err != nil {
		panic(err)
	}
}

// GetGenerator returns the generator of the config's format carrying its debug flag
func (f *Factory) GetGenerator(cfg *Config) (Generator, error) {
	format := cfg.Format
	if format == "" {
		format = FormatStandard
	}
	f.lock.RLock()
	g, ok := f.generators[format]
	f.lock.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrGeneratorNotRegistered, "format %q", format)
	}
	return g.WithDebug(cfg.IncludeDebugInfo), nil
}
