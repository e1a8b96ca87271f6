// Package store persists sitemap configurations and their generated data in bbolt.
package store

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/foomo/sitemaps/pkg/sitemap"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const (
	bucketConfigs = "configs"
	bucketData    = "data"
	bucketURLs    = "urls"

	// compressThreshold data above this size is stored zstd compressed
	compressThreshold = 8 * 1024

	dataRaw  byte = 0
	dataZstd byte = 1
)

var ErrDuplicateURL = errors.New("sitemap url already in use")

type (
	// Store bbolt backed sitemap.Repository. Configs, their generated data and
	// the url index live in separate buckets and are written in one transaction.
	Store struct {
		l        *zap.Logger
		db       *bolt.DB
		encoder  *zstd.Encoder
		decoder  *zstd.Decoder
		segments func(language string) string
		timeout  time.Duration
	}
	Option func(*Store)
	// record persisted form of a config
	record struct {
		ID                            string   `msgpack:"id"`
		SiteURL                       string   `msgpack:"siteUrl"`
		Host                          string   `msgpack:"host"`
		Language                      string   `msgpack:"language"`
		EnableLanguageFallback        bool     `msgpack:"enableLanguageFallback"`
		IncludeAlternateLanguagePages bool     `msgpack:"includeAlternateLanguagePages"`
		EnableSimpleAddressSupport    bool     `msgpack:"enableSimpleAddressSupport"`
		PathsToInclude                []string `msgpack:"pathsToInclude"`
		PathsToAvoid                  []string `msgpack:"pathsToAvoid"`
		IncludeDebugInfo              bool     `msgpack:"includeDebugInfo"`
		RootPageID                    int      `msgpack:"rootPageId"`
		Format                        string   `msgpack:"format"`
		CacheExpiration               int      `msgpack:"cacheExpiration"`
		ExceedsMaximumEntryCount      bool     `msgpack:"exceedsMaximumEntryCount"`
		URL                           string   `msgpack:"url"`
	}
)

// ensure interface
var _ sitemap.Repository = (*Store)(nil)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

// Open opens or creates the database at path
func Open(l *zap.Logger, path string, opts ...Option) (*Store, error) {
	inst := &Store{
		l:        l.Named("store"),
		segments: strings.ToLower,
		timeout:  10 * time.Second,
	}

	for _, opt := range opts {
		opt(inst)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create store directory")
	}

	db, err := bolt.Open(path, 0o644, &bolt.Options{
		Timeout:      inst.timeout,
		FreelistType: bolt.FreelistArrayType,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open store %q", path)
	}
	inst.db = db

	if inst.encoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	if inst.decoder, err = zstd.NewReader(nil); err != nil {
		_ = inst.encoder.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketConfigs, bucketData, bucketURLs} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return errors.Wrapf(err, "failed to create bucket %s", name)
			}
		}
		return nil
	}); err != nil {
		_ = inst.Close()
		return nil, err
	}

	return inst, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithLanguageSegments maps a pinned language to the url segment of its sitemap
func WithLanguageSegments(v func(language string) string) Option {
	return func(o *Store) {
		o.segments = v
	}
}

func WithTimeout(v time.Duration) Option {
	return func(o *Store) {
		o.timeout = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (s *Store) Close() error {
	if s.encoder != nil {
		_ = s.encoder.Close()
	}
	if s.decoder != nil {
		s.decoder.Close()
	}
	return s.db.Close()
}

// Save inserts or updates cfg, assigning an id to new configs. Configs without
// data keep their previously generated data.
func (s *Store) Save(ctx context.Context, cfg *sitemap.Config) error {
	if cfg.ID == "" {
		cfg.ID = uuid.New().String()
	}
	rec := s.toRecord(cfg)
	key := urlKey(rec.URL)

	value, err := msgpack.Marshal(rec)
	if err != nil {
		return errors.Wrapf(err, "failed to encode sitemap %s", cfg.ID)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		configs := tx.Bucket([]byte(bucketConfigs))
		urls := tx.Bucket([]byte(bucketURLs))

		if id := urls.Get([]byte(key)); id != nil && string(id) != cfg.ID {
			return errors.Wrapf(ErrDuplicateURL, "%s is used by %s", rec.URL, id)
		}
		if prev := configs.Get([]byte(cfg.ID)); prev != nil {
			var old record
			if err := msgpack.Unmarshal(prev, &old); err != nil {
				return errors.Wrapf(err, "failed to decode sitemap %s", cfg.ID)
			}
			if err := urls.Delete([]byte(urlKey(old.URL))); err != nil {
				return err
			}
		}
		if err := configs.Put([]byte(cfg.ID), value); err != nil {
			return err
		}
		if err := urls.Put([]byte(key), []byte(cfg.ID)); err != nil {
			return err
		}
		if cfg.Data != nil {
			return tx.Bucket([]byte(bucketData)).Put([]byte(cfg.ID), s.encode(cfg.Data))
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.l.Debug("saved sitemap",
		zap.String("sitemap", cfg.ID),
		zap.String("url", rec.URL),
		zap.Int("size", len(cfg.Data)),
	)
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		configs := tx.Bucket([]byte(bucketConfigs))
		prev := configs.Get([]byte(id))
		if prev == nil {
			return errors.Wrapf(sitemap.ErrNotFound, "id %s", id)
		}
		var old record
		if err := msgpack.Unmarshal(prev, &old); err != nil {
			return errors.Wrapf(err, "failed to decode sitemap %s", id)
		}
		if err := tx.Bucket([]byte(bucketURLs)).Delete([]byte(urlKey(old.URL))); err != nil {
			return err
		}
		if err := tx.Bucket([]byte(bucketData)).Delete([]byte(id)); err != nil {
			return err
		}
		return configs.Delete([]byte(id))
	})
}

func (s *Store) GetByID(ctx context.Context, id string) (*sitemap.Config, error) {
	var cfg *sitemap.Config
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		cfg, err = s.load(tx, []byte(id))
		return err
	})
	return cfg, err
}

// GetAll returns every config ordered by id, without generated data
func (s *Store) GetAll(ctx context.Context) ([]*sitemap.Config, error) {
	var ret []*sitemap.Config
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketConfigs)).ForEach(func(k, v []byte) error {
			var rec record
			if err := msgpack.Unmarshal(v, &rec); err != nil {
				return errors.Wrapf(err, "failed to decode sitemap %s", k)
			}
			ret = append(ret, rec.toConfig())
			return nil
		})
	})
	return ret, err
}

// GetByURL looks up a config by the url its sitemap is served under. The
// scheme is ignored, host and path are case insensitive.
func (s *Store) GetByURL(ctx context.Context, u string) (*sitemap.Config, error) {
	var cfg *sitemap.Config
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket([]byte(bucketURLs)).Get([]byte(urlKey(u)))
		if id == nil {
			return errors.Wrapf(sitemap.ErrNotFound, "url %s", u)
		}
		var err error
		cfg, err = s.load(tx, id)
		return err
	})
	return cfg, err
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (s *Store) load(tx *bolt.Tx, id []byte) (*sitemap.Config, error) {
	value := tx.Bucket([]byte(bucketConfigs)).Get(id)
	if value == nil {
		return nil, errors.Wrapf(sitemap.ErrNotFound, "id %s", id)
	}
	var rec record
	if err := msgpack.Unmarshal(value, &rec); err != nil {
		return nil, errors.Wrapf(err, "failed to decode sitemap %s", id)
	}
	cfg := rec.toConfig()
	if data := tx.Bucket([]byte(bucketData)).Get(id); data != nil {
		decoded, err := s.decode(data)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode data of sitemap %s", id)
		}
		cfg.Data = decoded
	}
	return cfg, nil
}

// encode copies data, values returned by bbolt are only valid inside the transaction
func (s *Store) encode(data []byte) []byte {
	if len(data) > compressThreshold {
		return s.encoder.EncodeAll(data, []byte{dataZstd})
	}
	return append([]byte{dataRaw}, data...)
}

func (s *Store) decode(value []byte) ([]byte, error) {
	if len(value) == 0 {
		return nil, nil
	}
	switch value[0] {
	case dataRaw:
		return append([]byte(nil), value[1:]...), nil
	case dataZstd:
		return s.decoder.DecodeAll(value[1:], nil)
	default:
		return nil, errors.Errorf("unknown data encoding %d", value[0])
	}
}

func (s *Store) toRecord(cfg *sitemap.Config) record {
	return record{
		ID:                            cfg.ID,
		SiteURL:                       cfg.SiteURL,
		Host:                          cfg.Host,
		Language:                      cfg.Language,
		EnableLanguageFallback:        cfg.EnableLanguageFallback,
		IncludeAlternateLanguagePages: cfg.IncludeAlternateLanguagePages,
		EnableSimpleAddressSupport:    cfg.EnableSimpleAddressSupport,
		PathsToInclude:                cfg.PathsToInclude,
		PathsToAvoid:                  cfg.PathsToAvoid,
		IncludeDebugInfo:              cfg.IncludeDebugInfo,
		RootPageID:                    cfg.RootPageID,
		Format:                        string(cfg.Format),
		CacheExpiration:               cfg.CacheExpiration,
		ExceedsMaximumEntryCount:      cfg.ExceedsMaximumEntryCount,
		URL:                           cfg.URL(s.segments(cfg.PinnedLanguage())),
	}
}

func (r record) toConfig() *sitemap.Config {
	return &sitemap.Config{
		ID:                            r.ID,
		SiteURL:                       r.SiteURL,
		Host:                          r.Host,
		Language:                      r.Language,
		EnableLanguageFallback:        r.EnableLanguageFallback,
		IncludeAlternateLanguagePages: r.IncludeAlternateLanguagePages,
		EnableSimpleAddressSupport:    r.EnableSimpleAddressSupport,
		PathsToInclude:                r.PathsToInclude,
		PathsToAvoid:                  r.PathsToAvoid,
		IncludeDebugInfo:              r.IncludeDebugInfo,
		RootPageID:                    r.RootPageID,
		Format:                        sitemap.Format(r.Format),
		CacheExpiration:               r.CacheExpiration,
		ExceedsMaximumEntryCount:      r.ExceedsMaximumEntryCount,
	}
}

// urlKey index key of a sitemap url: lower cased host and path without scheme
func urlKey(v string) string {
	u, err := url.Parse(strings.TrimSpace(v))
	if err != nil || u.Host == "" {
		return strings.ToLower(strings.TrimSpace(v))
	}
	return strings.ToLower(u.Host + "/" + strings.Trim(u.Path, "/"))
}
