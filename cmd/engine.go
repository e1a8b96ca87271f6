package cmd

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	keelhttp "github.com/foomo/keel/net/http"
	"github.com/foomo/sitemaps/pkg/cache"
	"github.com/foomo/sitemaps/pkg/job"
	"github.com/foomo/sitemaps/pkg/repo"
	"github.com/foomo/sitemaps/pkg/sitemap"
	"github.com/foomo/sitemaps/pkg/store"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// engine everything needed to generate sitemaps of one content export
type engine struct {
	history *repo.History
	repo    *repo.Repo
	store   *store.Store
	cache   *cache.Cache
	factory *sitemap.Factory
	job     *job.Job
}

func addEngineFlags(flags *pflag.FlagSet, v *viper.Viper) {
	addDBFlag(flags, v)
	addDBTimeoutFlag(flags, v)
	addPollFlag(flags, v)
	addPollIntervalFlag(flags, v)
	addWatchFlag(flags, v)
	addHistoryDirFlag(flags, v)
	addHistoryLimitFlag(flags, v)
	addHistoryCompressionFlag(flags, v)
	addStorageTypeFlag(flags, v)
	addStorageBlobBucketFlag(flags, v)
	addStorageBlobPrefixFlag(flags, v)
	addRepositoryTimeoutFlag(flags, v)
	addCacheCapacityFlag(flags, v)
	addStrictPublishCheckingFlag(flags, v)
	addHeadlessFlag(flags, v)
	addAugmentListingTypeFlag(flags, v)
	addAugmentItemTypeFlag(flags, v)
	addAugmentAttributesFlag(flags, v)
}

func newEngine(ctx context.Context, l *zap.Logger, v *viper.Viper, url string) (*engine, error) {
	storage, err := createStorage(ctx, v, l)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	history, err := repo.NewHistory(l,
		repo.HistoryWithStorage(storage),
		repo.HistoryWithHistoryLimit(historyLimitFlag(v)),
		repo.HistoryWithCompression(historyCompressionFlag(v)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create history: %w", err)
	}

	r := repo.New(l.Named("inst.repo"),
		url,
		history,
		repo.WithHTTPClient(
			keelhttp.NewHTTPClient(
				keelhttp.HTTPClientWithTimeout(repositoryTimeoutFlag(v)),
				keelhttp.HTTPClientWithTelemetry(),
			),
		),
		repo.WithPollInterval(pollIntervalFlag(v)),
		repo.WithPoll(pollFlag(v)),
		repo.WithWatch(watchFlag(v)),
	)

	s, err := store.Open(l.Named("inst.store"), dbFlag(v),
		store.WithLanguageSegments(r.LanguageSegment),
		store.WithTimeout(dbTimeoutFlag(v)),
	)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed to open store: %w", err), history.Close())
	}

	c := cache.New(l.Named("inst.cache"), cache.WithCapacity(cacheCapacityFlag(v)))

	architecture := sitemap.ArchitectureTemplates
	if headlessFlag(v) {
		architecture = sitemap.ArchitectureHeadless
	}
	generatorOpts := []sitemap.GeneratorOption{
		sitemap.WithContentFilter(sitemap.NewContentFilter(l.Named("inst"),
			sitemap.WithStrictPublishChecking(strictPublishCheckingFlag(v)),
			sitemap.WithArchitecture(architecture),
		)),
	}
	if listingType := augmentListingTypeFlag(v); listingType != "" {
		generatorOpts = append(generatorOpts, sitemap.WithAugmenter(
			sitemap.NewParameterAugmenter(l.Named("inst"), r, listingType, augmentItemTypeFlag(v), augmentAttributesFlag(v)...),
		))
	}
	factory := sitemap.NewDefaultFactory(l.Named("inst.generator"), s, r, c, generatorOpts...)

	return &engine{
		history: history,
		repo:    r,
		store:   s,
		cache:   c,
		factory: factory,
		job:     job.New(l.Named("inst"), s, factory, c, r, job.WithLanguageSegments(r.LanguageSegment)),
	}, nil
}

func (e *engine) Close(ctx context.Context) error {
	return multierr.Combine(e.store.Close(), e.history.Close())
}

// blobProviders bucket url schemes supported by the history storage
var blobProviders = map[string]string{
	"gs://":     "Google Cloud Storage",
	"s3://":     "AWS S3",
	"azblob://": "Azure Blob Storage",
}

// createStorage history storage selected by the storage flags
func createStorage(ctx context.Context, v *viper.Viper, l *zap.Logger) (repo.Storage, error) {
	bucket, prefix := storageBlobBucketFlag(v), storageBlobPrefixFlag(v)

	switch kind := storageTypeFlag(v); kind {
	case "blob":
		provider, err := blobProvider(bucket)
		if err != nil {
			return nil, err
		}
		l.Info("using blob history storage",
			zap.String("bucket", bucket),
			zap.String("prefix", prefix),
			zap.String("provider", provider),
		)
		return repo.NewBlobStorage(ctx, bucket,
			repo.BlobStorageWithPrefix(prefix),
			repo.BlobStorageWithContentType("application/json"),
		)
	case "filesystem", "":
		if bucket != "" || prefix != "" {
			l.Warn("ignoring blob storage flags for filesystem history storage", zap.String("bucket", bucket))
		}
		dir := historyDirFlag(v)
		l.Info("using filesystem history storage", zap.String("dir", dir))
		return repo.NewFilesystemStorage(dir)
	default:
		return nil, fmt.Errorf("unknown storage type %q (supported: filesystem, blob)", kind)
	}
}

// blobProvider name of the provider behind bucket
func blobProvider(bucket string) (string, error) {
	if bucket == "" {
		return "", errors.New("a bucket url is required for blob history storage")
	}
	for scheme, provider := range blobProviders {
		if strings.HasPrefix(bucket, scheme) {
			return provider, nil
		}
	}
	schemes := slices.Sorted(maps.Keys(blobProviders))
	return "", fmt.Errorf("unsupported bucket url %q, supported schemes: %s", bucket, strings.Join(schemes, ", "))
}
