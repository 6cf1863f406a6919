package cmd

import (
	"context"
	"strings"

	"github.com/foomo/keel"
	"github.com/foomo/keel/healthz"
	keelhttp "github.com/foomo/keel/net/http"
	"github.com/foomo/keel/net/http/middleware"
	"github.com/foomo/keel/service"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/spursup/feedserver/pkg/collector"
	"github.com/spursup/feedserver/pkg/feed"
	"github.com/spursup/feedserver/pkg/handler"
	"github.com/spursup/feedserver/pkg/repo"
	"go.uber.org/zap"
)

func NewServeCommand() *cobra.Command {
	v := newViper()
	service.DefaultHTTPPProfAddr = ":6060"

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the feed server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svr := keel.NewServer(
				keel.WithHTTPPrometheusService(servicePrometheusEnabledFlag(v)),
				keel.WithHTTPHealthzService(serviceHealthzEnabledFlag(v)),
				keel.WithPrometheusMeter(servicePrometheusEnabledFlag(v)),
				keel.WithGracefulPeriod(gracefulPeriodFlag(v)),
				keel.WithOTLPGRPCTracer(otelEnabledFlag(v)),
				keel.WithHTTPPProfService(servicePProfEnabledFlag(v)),
			)

			l := svr.Logger()

			cfg, err := loadFeedConfig(v, l)
			if err != nil {
				return err
			}

			storage, err := createStorage(cmd.Context(), v, l)
			if err != nil {
				return errors.Wrap(err, "failed to create storage")
			}

			history, err := repo.NewHistory(l.Named("inst.history"),
				repo.HistoryWithStorage(storage),
				repo.HistoryWithHistoryDir(historyDirFlag(v)),
				repo.HistoryWithHistoryLimit(historyLimitFlag(v)),
			)
			if err != nil {
				return errors.Wrap(err, "failed to create history")
			}

			c := collector.New(l.Named("inst.collector"),
				collector.WithHTTPClient(
					keelhttp.NewHTTPClient(
						keelhttp.HTTPClientWithTimeout(fetchTimeoutFlag(v)),
						keelhttp.HTTPClientWithTelemetry(),
					),
				),
				collector.WithConcurrency(fetchConcurrencyFlag(v)),
				collector.WithMaxItems(maxItemsFlag(v)),
				collector.WithFallbackThreshold(fallbackThresholdFlag(v)),
			)

			r := repo.New(l.Named("inst.repo"),
				cfg.Feeds,
				c,
				history,
				repo.WithPoll(pollFlag(v)),
				repo.WithPollInterval(pollIntervalFlag(v)),
			)

			isLoadedHealtherFn := healthz.NewHealthzerFn(func(ctx context.Context) error {
				if !r.Loaded() {
					return errors.New("feeds not collected yet")
				}
				return nil
			})
			svr.AddStartupHealthzers(isLoadedHealtherFn)
			svr.AddReadinessHealthzers(isLoadedHealtherFn)

			svr.AddClosers(func(ctx context.Context) error {
				return history.Close()
			})

			svr.AddServices(
				service.NewGoRoutine(l.Named("go.repo"), "repo", func(ctx context.Context, l *zap.Logger) error {
					return r.Start(ctx)
				}),
				service.NewHTTP(l.Named("svc.http"), "http", addressFlag(v),
					handler.NewHTTP(l.Named("inst.handler"), r,
						handler.WithCollectToken(collectTokenFlag(v)),
						handler.WithStaticDir(staticDirFlag(v)),
						handler.WithStaticLinks(cfg.Links),
					),
					middleware.Telemetry(),
					middleware.Logger(),
					middleware.GZip(middleware.GZipWithLevel(gzipLevelFlag(v))),
					middleware.Recover(),
				),
			)

			svr.Run()
			return nil
		},
	}

	flags := cmd.Flags()
	addAddressFlag(flags, v)
	addCollectTokenFlag(flags, v)
	addFeedsConfigFlag(flags, v)
	addStaticDirFlag(flags, v)
	addPollFlag(flags, v)
	addPollIntervalFlag(flags, v)
	addHistoryDirFlag(flags, v)
	addHistoryLimitFlag(flags, v)
	addStorageTypeFlag(flags, v)
	addStorageBlobBucketFlag(flags, v)
	addStorageBlobPrefixFlag(flags, v)
	addStorageSQLitePathFlag(flags, v)
	addFetchTimeoutFlag(flags, v)
	addFetchConcurrencyFlag(flags, v)
	addMaxItemsFlag(flags, v)
	addFallbackThresholdFlag(flags, v)
	addGracefulPeriodFlag(flags, v)
	addGzipLevelFlag(flags, v)
	addOtelEnabledFlag(flags, v)
	addServiceHealthzEnabledFlag(flags, v)
	addServicePrometheusEnabledFlag(flags, v)
	addServicePProfEnabledFlag(flags, v)

	return cmd
}

// loadFeedConfig returns the built-in feeds or the ones from the configured
// feeds file
func loadFeedConfig(v *viper.Viper, l *zap.Logger) (*feed.Config, error) {
	path := feedsConfigFlag(v)
	if path == "" {
		return feed.DefaultConfig(), nil
	}
	l.Info("loading feeds config", zap.String("path", path))
	cfg, err := feed.LoadConfig(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load feeds config")
	}
	if len(cfg.Feeds) == 0 {
		l.Warn("feeds config contains no feeds", zap.String("path", path))
	}
	return cfg, nil
}

// supportedBlobSchemes lists the URL schemes supported by blob storage
var supportedBlobSchemes = []string{"gs://", "s3://", "azblob://"}

// createStorage creates a storage backend based on the configuration
func createStorage(ctx context.Context, v *viper.Viper, l *zap.Logger) (repo.Storage, error) {
	storageType := storageTypeFlag(v)
	blobBucket := storageBlobBucketFlag(v)
	blobPrefix := storageBlobPrefixFlag(v)

	if storageType != "blob" && (blobBucket != "" || blobPrefix != "") {
		l.Warn("blob storage flags are set but storage-type is not 'blob'; blob config will be ignored",
			zap.String("storage-type", storageType),
			zap.String("blob-bucket", blobBucket),
			zap.String("blob-prefix", blobPrefix),
		)
	}

	l.Info("creating storage", zap.String("type", storageType))

	switch storageType {
	case "blob":
		if blobBucket == "" {
			return nil, errors.Errorf("blob bucket URL is required when storage-type is 'blob' (supported schemes: %s)", strings.Join(supportedBlobSchemes, ", "))
		}
		if !isValidBlobScheme(blobBucket) {
			return nil, errors.Errorf("unsupported blob storage URL scheme in %q; supported schemes: %s", blobBucket, strings.Join(supportedBlobSchemes, ", "))
		}
		l.Info("using blob storage",
			zap.String("bucket", blobBucket),
			zap.String("prefix", blobPrefix),
		)
		return repo.NewBlobStorage(ctx, blobBucket, blobPrefix)
	case "sqlite":
		path := storageSQLitePathFlag(v)
		l.Info("using sqlite storage", zap.String("path", path))
		return repo.NewSQLiteStorage(path)
	case "filesystem", "":
		dir := historyDirFlag(v)
		l.Info("using filesystem storage", zap.String("dir", dir))
		return repo.NewFilesystemStorage(dir)
	default:
		return nil, errors.Errorf("unknown storage type: %s (supported: filesystem, blob, sqlite)", storageType)
	}
}

// isValidBlobScheme checks if the bucket URL has a supported scheme
func isValidBlobScheme(bucketURL string) bool {
	for _, scheme := range supportedBlobSchemes {
		if strings.HasPrefix(bucketURL, scheme) {
			return true
		}
	}
	return false
}
