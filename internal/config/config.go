// Package config loads artgraph settings from defaults, an optional YAML file
// and ARTGRAPH_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved configuration.
type Config struct {
	GraphQL   GraphQL
	Log       Log
	Otel      Otel
	Artifacts Artifacts
}

type GraphQL struct {
	Endpoint string
	Timeout  time.Duration
	// Validate checks compiled documents against the built-in schema.
	Validate bool
	Headers  map[string]string
}

type Log struct {
	Level  string
	Format string
}

type Otel struct {
	Endpoint string
	Service  string
}

type Artifacts struct {
	// Root is the directory local artifact manifests are read from.
	Root string
}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

func setDefaults(v *viper.Viper) {
	v.SetDefault("graphql.endpoint", "https://api.wandb.ai/graphql")
	v.SetDefault("graphql.timeout", "30s")
	v.SetDefault("graphql.validate", true)
	v.SetDefault("graphql.headers", map[string]string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("otel.endpoint", "")
	v.SetDefault("otel.service", "artgraph")
	v.SetDefault("artifacts.root", "")
}

// Load reads path when it is not empty. Environment variables replace dots
// with underscores: ARTGRAPH_GRAPHQL_ENDPOINT sets graphql.endpoint.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("artgraph")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	cfg.GraphQL.Endpoint = v.GetString("graphql.endpoint")
	cfg.GraphQL.Timeout = v.GetDuration("graphql.timeout")
	cfg.GraphQL.Validate = v.GetBool("graphql.validate")
	cfg.GraphQL.Headers = v.GetStringMapString("graphql.headers")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")
	cfg.Otel.Endpoint = v.GetString("otel.endpoint")
	cfg.Otel.Service = v.GetString("otel.service")
	cfg.Artifacts.Root = v.GetString("artifacts.root")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that defaults cannot make safe.
func (c *Config) Validate() error {
	u, err := url.Parse(c.GraphQL.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: graphql.endpoint %q is not an http(s) URL", ErrInvalid, c.GraphQL.Endpoint)
	}
	if c.GraphQL.Timeout < 0 {
		return fmt.Errorf("%w: graphql.timeout must not be negative", ErrInvalid)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}
