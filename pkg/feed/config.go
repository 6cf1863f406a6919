package feed

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/spursup/feedserver/pkg/utils"
)

// Config holds the feed list and the quick links of a deployment
type Config struct {
	Feeds []Feed       `json:"feeds" yaml:"feeds"`
	Links []StaticLink `json:"links" yaml:"links"`
}

// DefaultConfig returns the built-in feeds and links
func DefaultConfig() *Config {
	return &Config{
		Feeds: DefaultFeeds(),
		Links: DefaultStaticLinks(),
	}
}

// LoadConfig reads a feeds config file (yaml or json). Sections that are
// missing from the file keep their built-in defaults.
func LoadConfig(path string) (*Config, error) {
	inst := DefaultConfig()

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "failed to read feeds config")
	}
	if v.IsSet("feeds") {
		inst.Feeds = nil
		if err := v.UnmarshalKey("feeds", &inst.Feeds); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal feeds")
		}
	}
	if v.IsSet("links") {
		inst.Links = nil
		if err := v.UnmarshalKey("links", &inst.Links); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal links")
		}
	}

	for _, f := range inst.Feeds {
		if !utils.IsValidUrl(f.URL) {
			return nil, errors.Errorf("invalid feed url %q for feed %q", f.URL, f.Name)
		}
	}

	return inst, nil
}
