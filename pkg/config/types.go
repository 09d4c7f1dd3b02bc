package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent driftlens configuration stored as
// config.toml in the .driftlens/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Inference   InferenceConfig   `toml:"inference"`
	Retry       RetryConfig       `toml:"retry"`
	Store       StoreConfig       `toml:"store"`
	SearchIndex SearchIndexConfig `toml:"search_index"`
	Events      EventsConfig      `toml:"events"`
	Ingest      IngestConfig      `toml:"ingest"`
}

// InferenceConfig holds the embedding inference endpoint settings.
type InferenceConfig struct {
	// Provider is "azureml" or "bedrock".
	Provider   string `toml:"provider,omitempty"`
	Endpoint   string `toml:"endpoint,omitempty"`
	Deployment string `toml:"deployment,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
	Region     string `toml:"region,omitempty"`
	Model      string `toml:"model,omitempty"`

	// RequestTimeout is a Go duration string applied to each attempt.
	RequestTimeout string `toml:"request_timeout,omitempty"`
	MaxAttempts    uint   `toml:"max_attempts,omitempty"`
	CircuitBreaker bool   `toml:"circuit_breaker,omitempty"`
}

// RetryConfig selects the wait between inference attempts.
type RetryConfig struct {
	// Policy is "backoff" or "immediate".
	Policy          string `toml:"policy,omitempty"`
	InitialInterval string `toml:"initial_interval,omitempty"`
	MaxInterval     string `toml:"max_interval,omitempty"`
}

// StoreConfig holds embedding store settings.
type StoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	APIKey     string `toml:"api_key,omitempty"`
	Collection string `toml:"collection,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// SearchIndexConfig holds the external search index settings used by
// "driftlens ingest --index".
type SearchIndexConfig struct {
	ServiceName string `toml:"service_name,omitempty"`
	IndexName   string `toml:"index_name,omitempty"`
	APIKey      string `toml:"api_key,omitempty"`
	APIVersion  string `toml:"api_version,omitempty"`
	Dimension   uint   `toml:"dimension,omitempty"`
	BaseURL     string `toml:"base_url,omitempty"`
}

// EventsConfig holds record-ingested event publishing settings.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma separated list of host:port pairs.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

type IngestConfig struct {
	Workers uint `toml:"workers,omitempty"`
}

// Timeout parses RequestTimeout. An empty value yields zero.
func (c InferenceConfig) Timeout() (time.Duration, error) {
	return parseDuration("inference.request_timeout", c.RequestTimeout)
}

// Intervals parses InitialInterval and MaxInterval.
func (c RetryConfig) Intervals() (time.Duration, time.Duration, error) {
	initial, err := parseDuration("retry.initial_interval", c.InitialInterval)
	if err != nil {
		return 0, 0, err
	}
	maxInterval, err := parseDuration("retry.max_interval", c.MaxInterval)
	if err != nil {
		return 0, 0, err
	}
	return initial, maxInterval, nil
}

// BrokerList splits Brokers on commas, dropping empty entries.
func (c EventsConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func parseDuration(key, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return d, nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func formatUint(n uint) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatUint(uint64(n), 10)
}

func parseUint(key, v string) (uint, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return uint(n), nil
}

func durationKey(key string, field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error {
			if _, err := parseDuration(key, v); err != nil {
				return err
			}
			*field(c) = v
			return nil
		},
	}
}

func uintKey(key string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return formatUint(*field(c)) },
		set: func(c *Config, v string) error {
			n, err := parseUint(key, v)
			if err != nil {
				return err
			}
			*field(c) = n
			return nil
		},
	}
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"inference.provider":        stringKey(func(c *Config) *string { return &c.Inference.Provider }),
	"inference.endpoint":        stringKey(func(c *Config) *string { return &c.Inference.Endpoint }),
	"inference.deployment":      stringKey(func(c *Config) *string { return &c.Inference.Deployment }),
	"inference.api_key":         stringKey(func(c *Config) *string { return &c.Inference.APIKey }),
	"inference.region":          stringKey(func(c *Config) *string { return &c.Inference.Region }),
	"inference.model":           stringKey(func(c *Config) *string { return &c.Inference.Model }),
	"inference.request_timeout": durationKey("inference.request_timeout", func(c *Config) *string { return &c.Inference.RequestTimeout }),
	"inference.max_attempts":    uintKey("inference.max_attempts", func(c *Config) *uint { return &c.Inference.MaxAttempts }),
	"inference.circuit_breaker": {
		get: func(c *Config) string { return strconv.FormatBool(c.Inference.CircuitBreaker) },
		set: func(c *Config, v string) error {
			if v == "" {
				c.Inference.CircuitBreaker = false
				return nil
			}
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for inference.circuit_breaker: %w", err)
			}
			c.Inference.CircuitBreaker = b
			return nil
		},
	},

	"retry.policy": {
		get: func(c *Config) string { return c.Retry.Policy },
		set: func(c *Config, v string) error {
			switch v {
			case "", RetryPolicyBackoff, RetryPolicyImmediate:
				c.Retry.Policy = v
				return nil
			default:
				return fmt.Errorf("invalid value for retry.policy: %q (expected %s or %s)",
					v, RetryPolicyBackoff, RetryPolicyImmediate)
			}
		},
	},
	"retry.initial_interval": durationKey("retry.initial_interval", func(c *Config) *string { return &c.Retry.InitialInterval }),
	"retry.max_interval":     durationKey("retry.max_interval", func(c *Config) *string { return &c.Retry.MaxInterval }),

	"store.provider":   stringKey(func(c *Config) *string { return &c.Store.Provider }),
	"store.target":     stringKey(func(c *Config) *string { return &c.Store.Target }),
	"store.api_key":    stringKey(func(c *Config) *string { return &c.Store.APIKey }),
	"store.collection": stringKey(func(c *Config) *string { return &c.Store.Collection }),
	"store.dimensions": uintKey("store.dimensions", func(c *Config) *uint { return &c.Store.Dimensions }),

	"search_index.service_name": stringKey(func(c *Config) *string { return &c.SearchIndex.ServiceName }),
	"search_index.index_name":   stringKey(func(c *Config) *string { return &c.SearchIndex.IndexName }),
	"search_index.api_key":      stringKey(func(c *Config) *string { return &c.SearchIndex.APIKey }),
	"search_index.api_version":  stringKey(func(c *Config) *string { return &c.SearchIndex.APIVersion }),
	"search_index.dimension":    uintKey("search_index.dimension", func(c *Config) *uint { return &c.SearchIndex.Dimension }),
	"search_index.base_url":     stringKey(func(c *Config) *string { return &c.SearchIndex.BaseURL }),

	"events.provider": stringKey(func(c *Config) *string { return &c.Events.Provider }),
	"events.brokers":  stringKey(func(c *Config) *string { return &c.Events.Brokers }),
	"events.topic":    stringKey(func(c *Config) *string { return &c.Events.Topic }),

	"ingest.workers": uintKey("ingest.workers", func(c *Config) *uint { return &c.Ingest.Workers }),
}

// secretKeys are redacted by "driftlens config list".
var secretKeys = map[string]bool{
	"inference.api_key":    true,
	"store.api_key":        true,
	"search_index.api_key": true,
}

// IsSecretKey reports whether key holds a credential.
func IsSecretKey(key string) bool {
	return secretKeys[key]
}
