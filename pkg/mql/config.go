// Package mql holds the top-level configuration shared by the encoder and
// the match stage.
package mql

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"

	"github.com/grafana/dskit/flagext"
	dslog "github.com/grafana/dskit/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/grafana/mqlmatch/pkg/mql/encoding"
	"github.com/grafana/mqlmatch/pkg/mql/match"
)

// Config is the root configuration block.
type Config struct {
	LogLevel  dslog.Level `yaml:"log_level"`
	LogFormat string      `yaml:"log_format"`

	Encoder encoding.Config `yaml:"encoder"`
	Match   match.Config    `yaml:"match"`
}

// RegisterFlags registers flags for every configuration block.
func (c *Config) RegisterFlags(f *flag.FlagSet) {
	c.LogLevel.RegisterFlags(f)
	f.StringVar(&c.LogFormat, "log.format", "logfmt", "Output log messages in the given format. Valid formats: [logfmt, json]")

	c.Encoder.RegisterFlagsWithPrefix("encoder.", f)
	c.Match.RegisterFlagsWithPrefix("match.", f)
}

// Validate validates every configuration block.
func (c *Config) Validate() error {
	switch c.LogFormat {
	case "logfmt", "json":
	default:
		return errors.Errorf("invalid log format: %s", c.LogFormat)
	}
	if err := c.Encoder.Validate(); err != nil {
		return errors.Wrap(err, "invalid encoder config")
	}
	if err := c.Match.Validate(); err != nil {
		return errors.Wrap(err, "invalid match config")
	}
	return nil
}

// LoadConfig reads a YAML configuration file on top of the flag defaults.
// Unknown fields are rejected.
func LoadConfig(filename string) (Config, error) {
	var cfg Config
	flagext.DefaultValues(&cfg)

	buf, err := os.ReadFile(filepath.Clean(filename))
	if err != nil {
		return Config{}, errors.Wrap(err, "reading config file")
	}

	decoder := yaml.NewDecoder(bytes.NewReader(buf))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config file %s", filename)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
