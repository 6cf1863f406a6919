package cmd

import (
	"os"

	keelhttp "github.com/foomo/keel/net/http"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/spursup/feedserver/pkg/collector"
	"go.uber.org/zap"
)

func NewCollectCommand() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect all feeds once and write items.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l := zap.L()

			cfg, err := loadFeedConfig(v, l)
			if err != nil {
				return err
			}

			c := collector.New(l,
				collector.WithHTTPClient(
					keelhttp.NewHTTPClient(
						keelhttp.HTTPClientWithTimeout(fetchTimeoutFlag(v)),
					),
				),
				collector.WithConcurrency(fetchConcurrencyFlag(v)),
				collector.WithMaxItems(maxItemsFlag(v)),
				collector.WithFallbackThreshold(fallbackThresholdFlag(v)),
			)

			snapshot, err := c.Collect(cmd.Context(), cfg.Feeds)
			if err != nil {
				return errors.Wrap(err, "collection failed")
			}

			json := jsoniter.ConfigCompatibleWithStandardLibrary
			data, err := json.MarshalIndent(snapshot, "", "  ")
			if err != nil {
				return errors.Wrap(err, "failed to serialize snapshot")
			}

			out := outFlag(v)
			if err := os.WriteFile(out, data, 0644); err != nil {
				return errors.Wrapf(err, "failed to write %s", out)
			}

			l.Info("wrote items",
				zap.Int("count", len(snapshot.Items)),
				zap.String("path", out),
			)
			return nil
		},
	}

	flags := cmd.Flags()
	addOutFlag(flags, v)
	addFeedsConfigFlag(flags, v)
	addFetchTimeoutFlag(flags, v)
	addFetchConcurrencyFlag(flags, v)
	addMaxItemsFlag(flags, v)
	addFallbackThresholdFlag(flags, v)

	return cmd
}

func outFlag(v *viper.Viper) string {
	return v.GetString("out")
}

func addOutFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("out", "items.json", "Where to write the collected items")
	_ = v.BindPFlag("out", flags.Lookup("out"))
	_ = v.BindEnv("out", "ITEMS_PATH")
}
