package cmd

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func logLevelFlag(v *viper.Viper) string {
	return v.GetString("log.level")
}

func addLogLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-level", "info", "log level")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func logFormatFlag(v *viper.Viper) string {
	return v.GetString("log.format")
}

func addLogFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-format", "json", "log format")
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindEnv("log.format", "LOG_FORMAT")
}

func addressFlag(v *viper.Viper) string {
	return v.GetString("address")
}

func addAddressFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("address", ":8080", "Address to bind to (host:port)")
	_ = v.BindPFlag("address", flags.Lookup("address"))
	_ = v.BindEnv("address", "SITEMAPS_ADDRESS")
}

func basePathFlag(v *viper.Viper) string {
	return v.GetString("base_path")
}

func addBasePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("base-path", "/sitemaps", "Base path of the admin api")
	_ = v.BindPFlag("base_path", flags.Lookup("base-path"))
	_ = v.BindEnv("base_path", "SITEMAPS_BASE_PATH")
}

func dbFlag(v *viper.Viper) string {
	return v.GetString("db")
}

func addDBFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("db", "/var/lib/sitemaps/sitemaps.db", "Sitemap configuration database file")
	_ = v.BindPFlag("db", flags.Lookup("db"))
	_ = v.BindEnv("db", "SITEMAPS_DB")
}

func dbTimeoutFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("db_timeout")
}

func addDBTimeoutFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("db-timeout", 5*time.Second, "Time to wait for the database file lock")
	_ = v.BindPFlag("db_timeout", flags.Lookup("db-timeout"))
	_ = v.BindEnv("db_timeout", "SITEMAPS_DB_TIMEOUT")
}

func pollFlag(v *viper.Viper) bool {
	return v.GetBool("poll.enabled")
}

func addPollFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("poll", false, "If true, the address arg will be used to periodically poll the content url")
	_ = v.BindPFlag("poll.enabled", flags.Lookup("poll"))
	_ = v.BindEnv("poll.enabled", "SITEMAPS_POLL")
}

func pollIntervalFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("poll.interval")
}

func addPollIntervalFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("poll-interval", time.Minute, "Specifies the poll interval")
	_ = v.BindPFlag("poll.interval", flags.Lookup("poll-interval"))
	_ = v.BindEnv("poll.interval", "SITEMAPS_POLL_INTERVAL")
}

func watchFlag(v *viper.Viper) bool {
	return v.GetBool("watch")
}

func addWatchFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("watch", false, "If true, a content export file is reloaded whenever it changes")
	_ = v.BindPFlag("watch", flags.Lookup("watch"))
	_ = v.BindEnv("watch", "SITEMAPS_WATCH")
}

func historyDirFlag(v *viper.Viper) string {
	return v.GetString("history.dir")
}

func addHistoryDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("history-dir", "/var/lib/sitemaps", "Where to keep the content export history")
	_ = v.BindPFlag("history.dir", flags.Lookup("history-dir"))
	_ = v.BindEnv("history.dir", "SITEMAPS_HISTORY_DIR")
}

func historyLimitFlag(v *viper.Viper) int {
	return v.GetInt("history.limit")
}

func addHistoryLimitFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("history-limit", 2, "Number of history records to keep")
	_ = v.BindPFlag("history.limit", flags.Lookup("history-limit"))
	_ = v.BindEnv("history.limit", "SITEMAPS_HISTORY_LIMIT")
}

func historyCompressionFlag(v *viper.Viper) bool {
	return v.GetBool("history.compression")
}

func addHistoryCompressionFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("history-compression", true, "Store history records zstd compressed")
	_ = v.BindPFlag("history.compression", flags.Lookup("history-compression"))
	_ = v.BindEnv("history.compression", "SITEMAPS_HISTORY_COMPRESSION")
}

func storageTypeFlag(v *viper.Viper) string {
	return v.GetString("storage.type")
}

func addStorageTypeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-type", "filesystem", "History storage: filesystem or blob")
	_ = v.BindPFlag("storage.type", flags.Lookup("storage-type"))
	_ = v.BindEnv("storage.type", "SITEMAPS_STORAGE_TYPE")
}

func storageBlobBucketFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.bucket")
}

func addStorageBlobBucketFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-bucket", "", "Blob bucket URL (gs://, s3://, azblob://)")
	_ = v.BindPFlag("storage.blob.bucket", flags.Lookup("storage-blob-bucket"))
	_ = v.BindEnv("storage.blob.bucket", "SITEMAPS_STORAGE_BLOB_BUCKET")
}

func storageBlobPrefixFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.prefix")
}

func addStorageBlobPrefixFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-prefix", "", "Key prefix inside the blob bucket")
	_ = v.BindPFlag("storage.blob.prefix", flags.Lookup("storage-blob-prefix"))
	_ = v.BindEnv("storage.blob.prefix", "SITEMAPS_STORAGE_BLOB_PREFIX")
}

func repositoryTimeoutFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("repository_timeout")
}

func addRepositoryTimeoutFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("repository-timeout", 30*time.Second, "Timeout for loading the content export")
	_ = v.BindPFlag("repository_timeout", flags.Lookup("repository-timeout"))
	_ = v.BindEnv("repository_timeout", "SITEMAPS_REPOSITORY_TIMEOUT")
}

func realTimeFlag(v *viper.Viper) bool {
	return v.GetBool("realtime.enabled")
}

func addRealTimeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("realtime", false, "Generate sitemaps on request instead of serving the stored ones")
	_ = v.BindPFlag("realtime.enabled", flags.Lookup("realtime"))
	_ = v.BindEnv("realtime.enabled", "SITEMAPS_REALTIME")
}

func realTimeCachingFlag(v *viper.Viper) bool {
	return v.GetBool("realtime.caching")
}

func addRealTimeCachingFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("realtime-caching", true, "Cache sitemaps generated on request")
	_ = v.BindPFlag("realtime.caching", flags.Lookup("realtime-caching"))
	_ = v.BindEnv("realtime.caching", "SITEMAPS_REALTIME_CACHING")
}

func cacheCapacityFlag(v *viper.Viper) uint64 {
	return v.GetUint64("cache.capacity")
}

func addCacheCapacityFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Uint64("cache-capacity", 0, "Maximum number of cache entries, 0 for no limit")
	_ = v.BindPFlag("cache.capacity", flags.Lookup("cache-capacity"))
	_ = v.BindEnv("cache.capacity", "SITEMAPS_CACHE_CAPACITY")
}

func strictPublishCheckingFlag(v *viper.Viper) bool {
	return v.GetBool("filter.strict_publish")
}

func addStrictPublishCheckingFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("strict-publish-checking", true, "Exclude content without version information")
	_ = v.BindPFlag("filter.strict_publish", flags.Lookup("strict-publish-checking"))
	_ = v.BindEnv("filter.strict_publish", "SITEMAPS_STRICT_PUBLISH_CHECKING")
}

func headlessFlag(v *viper.Viper) bool {
	return v.GetBool("filter.headless")
}

func addHeadlessFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("headless", false, "Include content without a template")
	_ = v.BindPFlag("filter.headless", flags.Lookup("headless"))
	_ = v.BindEnv("filter.headless", "SITEMAPS_HEADLESS")
}

func augmentListingTypeFlag(v *viper.Viper) string {
	return v.GetString("augment.listing_type")
}

func addAugmentListingTypeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("augment-listing-type", "", "Content type of listing pages that get one url per parameter value")
	_ = v.BindPFlag("augment.listing_type", flags.Lookup("augment-listing-type"))
	_ = v.BindEnv("augment.listing_type", "SITEMAPS_AUGMENT_LISTING_TYPE")
}

func augmentItemTypeFlag(v *viper.Viper) string {
	return v.GetString("augment.item_type")
}

func addAugmentItemTypeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("augment-item-type", "", "Content type providing the parameter values")
	_ = v.BindPFlag("augment.item_type", flags.Lookup("augment-item-type"))
	_ = v.BindEnv("augment.item_type", "SITEMAPS_AUGMENT_ITEM_TYPE")
}

func augmentAttributesFlag(v *viper.Viper) []string {
	return v.GetStringSlice("augment.attributes")
}

func addAugmentAttributesFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.StringSlice("augment-attributes", nil, "Data fields used as query parameters")
	_ = v.BindPFlag("augment.attributes", flags.Lookup("augment-attributes"))
	_ = v.BindEnv("augment.attributes", "SITEMAPS_AUGMENT_ATTRIBUTES")
}

func jobIntervalFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("job.interval")
}

func addJobIntervalFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("job-interval", time.Hour, "Interval of the generation job, 0 disables it")
	_ = v.BindPFlag("job.interval", flags.Lookup("job-interval"))
	_ = v.BindEnv("job.interval", "SITEMAPS_JOB_INTERVAL")
}

func jobOnStartFlag(v *viper.Viper) bool {
	return v.GetBool("job.on_start")
}

func addJobOnStartFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("job-on-start", false, "Run the generation job as soon as the content is loaded")
	_ = v.BindPFlag("job.on_start", flags.Lookup("job-on-start"))
	_ = v.BindEnv("job.on_start", "SITEMAPS_JOB_ON_START")
}

func gzipLevelFlag(v *viper.Viper) int {
	return v.GetInt("gzip_level")
}

func addGzipLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("gzip-level", 6, "Compression level of responses")
	_ = v.BindPFlag("gzip_level", flags.Lookup("gzip-level"))
	_ = v.BindEnv("gzip_level", "SITEMAPS_GZIP_LEVEL")
}

func gracefulPeriodFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("graceful_period")
}

func addGracefulPeriodFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("graceful-period", 0, "Graceful period before shutting down")
	_ = v.BindPFlag("graceful_period", flags.Lookup("graceful-period"))
	_ = v.BindEnv("graceful_period", "SITEMAPS_GRACEFUL_PERIOD")
}

func serviceHealthzEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.healthz.enabled")
}

func addServiceHealthzEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-healthz-enabled", false, "Enable healthz service")
	_ = v.BindPFlag("service.healthz.enabled", flags.Lookup("service-healthz-enabled"))
}

func servicePrometheusEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.prometheus.enabled")
}

func addServicePrometheusEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-prometheus-enabled", false, "Enable prometheus service")
	_ = v.BindPFlag("service.prometheus.enabled", flags.Lookup("service-prometheus-enabled"))
}

func servicePProfEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.pprof.enabled")
}

func addServicePProfEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-pprof-enabled", false, "Enable pprof service")
	_ = v.BindPFlag("service.pprof.enabled", flags.Lookup("service-pprof-enabled"))
}

func otelEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("otel.enabled")
}

func addOtelEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("otel-enabled", false, "Enable otel service")
	_ = v.BindPFlag("otel.enabled", flags.Lookup("otel-enabled"))
	_ = v.BindEnv("otel.enabled", "OTEL_ENABLED")
}
