package cmd

import (
	"compress/gzip"
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

// addressFlag resolves the bind address: explicit flag or env first, then
// the conventional PORT variable, then :8080.
func addressFlag(v *viper.Viper) string {
	if addr := v.GetString("address"); addr != "" {
		return addr
	}
	if port := v.GetString("port"); port != "" {
		return ":" + port
	}
	return ":8080"
}

func addAddressFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("address", "", "Address to bind to (host:port), defaults to :$PORT or :8080")
	_ = v.BindPFlag("address", flags.Lookup("address"))
	_ = v.BindEnv("address", "FEED_SERVER_ADDRESS")
	_ = v.BindEnv("port", "PORT")
}

func collectTokenFlag(v *viper.Viper) string {
	return v.GetString("collect.token")
}

func addCollectTokenFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("collect-token", "", "Shared secret required in the X-Collect-Token header of POST /collect, empty disables the guard")
	_ = v.BindPFlag("collect.token", flags.Lookup("collect-token"))
	_ = v.BindEnv("collect.token", "FEED_SERVER_COLLECT_TOKEN", "COLLECT_TOKEN")
}

func feedsConfigFlag(v *viper.Viper) string {
	return v.GetString("feeds.config")
}

func addFeedsConfigFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("feeds", "", "Path to a feeds config file (yaml or json), empty uses the built-in feeds")
	_ = v.BindPFlag("feeds.config", flags.Lookup("feeds"))
	_ = v.BindEnv("feeds.config", "FEED_SERVER_FEEDS")
}

func staticDirFlag(v *viper.Viper) string {
	return v.GetString("static.dir")
}

func addStaticDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("static-dir", "static", "Directory served under /static/, empty disables static files")
	_ = v.BindPFlag("static.dir", flags.Lookup("static-dir"))
	_ = v.BindEnv("static.dir", "FEED_SERVER_STATIC_DIR")
}

func pollFlag(v *viper.Viper) bool {
	return v.GetBool("poll.enabled")
}

func addPollFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("poll", false, "If true, feeds are re-collected periodically")
	_ = v.BindPFlag("poll.enabled", flags.Lookup("poll"))
	_ = v.BindEnv("poll.enabled", "FEED_SERVER_POLL")
}

func pollIntervalFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("poll.interval")
}

func addPollIntervalFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("poll-interval", time.Hour, "Specifies the poll interval")
	_ = v.BindPFlag("poll.interval", flags.Lookup("poll-interval"))
	_ = v.BindEnv("poll.interval", "FEED_SERVER_POLL_INTERVAL")
}

func historyDirFlag(v *viper.Viper) string {
	return v.GetString("history.dir")
}

func addHistoryDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("history-dir", "/var/lib/feedserver", "Where to put my data")
	_ = v.BindPFlag("history.dir", flags.Lookup("history-dir"))
	_ = v.BindEnv("history.dir", "FEED_SERVER_HISTORY_DIR")
}

func historyLimitFlag(v *viper.Viper) int {
	return v.GetInt("history.limit")
}

func addHistoryLimitFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("history-limit", 2, "Number of history records to keep")
	_ = v.BindPFlag("history.limit", flags.Lookup("history-limit"))
	_ = v.BindEnv("history.limit", "FEED_SERVER_HISTORY_LIMIT")
}

func storageTypeFlag(v *viper.Viper) string {
	return v.GetString("storage.type")
}

func addStorageTypeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-type", "filesystem", "Snapshot storage backend (filesystem, blob, sqlite)")
	_ = v.BindPFlag("storage.type", flags.Lookup("storage-type"))
	_ = v.BindEnv("storage.type", "FEED_SERVER_STORAGE_TYPE")
}

func storageBlobBucketFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.bucket")
}

func addStorageBlobBucketFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-bucket", "", "Bucket URL for blob storage (gs://, s3://, azblob://)")
	_ = v.BindPFlag("storage.blob.bucket", flags.Lookup("storage-blob-bucket"))
	_ = v.BindEnv("storage.blob.bucket", "FEED_SERVER_STORAGE_BLOB_BUCKET")
}

func storageBlobPrefixFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.prefix")
}

func addStorageBlobPrefixFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-prefix", "", "Optional key prefix inside the blob bucket")
	_ = v.BindPFlag("storage.blob.prefix", flags.Lookup("storage-blob-prefix"))
	_ = v.BindEnv("storage.blob.prefix", "FEED_SERVER_STORAGE_BLOB_PREFIX")
}

func storageSQLitePathFlag(v *viper.Viper) string {
	return v.GetString("storage.sqlite.path")
}

func addStorageSQLitePathFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-sqlite-path", "/var/lib/feedserver/feedserver.db", "Database file for sqlite storage")
	_ = v.BindPFlag("storage.sqlite.path", flags.Lookup("storage-sqlite-path"))
	_ = v.BindEnv("storage.sqlite.path", "FEED_SERVER_STORAGE_SQLITE_PATH")
}

func fetchTimeoutFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("fetch.timeout")
}

func addFetchTimeoutFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("fetch-timeout", 20*time.Second, "Timeout for a single feed fetch")
	_ = v.BindPFlag("fetch.timeout", flags.Lookup("fetch-timeout"))
	_ = v.BindEnv("fetch.timeout", "FEED_SERVER_FETCH_TIMEOUT")
}

func fetchConcurrencyFlag(v *viper.Viper) int {
	return v.GetInt("fetch.concurrency")
}

func addFetchConcurrencyFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("fetch-concurrency", 4, "Number of feeds fetched in parallel")
	_ = v.BindPFlag("fetch.concurrency", flags.Lookup("fetch-concurrency"))
	_ = v.BindEnv("fetch.concurrency", "FEED_SERVER_FETCH_CONCURRENCY")
}

func maxItemsFlag(v *viper.Viper) int {
	return v.GetInt("items.max")
}

func addMaxItemsFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("max-items", 250, "Maximum number of items kept in a snapshot")
	_ = v.BindPFlag("items.max", flags.Lookup("max-items"))
	_ = v.BindEnv("items.max", "FEED_SERVER_MAX_ITEMS")
}

func fallbackThresholdFlag(v *viper.Viper) int {
	return v.GetInt("items.fallback_threshold")
}

func addFallbackThresholdFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("fallback-threshold", 12, "Run the fallback filter pass when the strict pass keeps fewer items than this")
	_ = v.BindPFlag("items.fallback_threshold", flags.Lookup("fallback-threshold"))
	_ = v.BindEnv("items.fallback_threshold", "FEED_SERVER_FALLBACK_THRESHOLD")
}

func gracefulPeriodFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("graceful_period")
}

func addGracefulPeriodFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("graceful-period", 0, "Timeout duration for graceful shutdown")
	_ = v.BindPFlag("graceful_period", flags.Lookup("graceful-period"))
	_ = v.BindEnv("graceful_period", "FEED_SERVER_GRACEFUL_PERIOD")
}

func gzipLevelFlag(v *viper.Viper) int {
	return v.GetInt("gzip.level")
}

func addGzipLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("gzip-level", gzip.DefaultCompression, "Compression level for the gzip middleware")
	_ = v.BindPFlag("gzip.level", flags.Lookup("gzip-level"))
	_ = v.BindEnv("gzip.level", "FEED_SERVER_GZIP_LEVEL")
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
