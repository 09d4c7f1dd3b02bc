// Package setup turns resolved configuration into the collaborators the
// driftlens commands run against.
package setup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/pkg/config"
	"github.com/papercomputeco/driftlens/pkg/dotdir"
	"github.com/papercomputeco/driftlens/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/driftlens/pkg/embeddings/utils"
	"github.com/papercomputeco/driftlens/pkg/eventstream"
	eventstreamutils "github.com/papercomputeco/driftlens/pkg/eventstream/utils"
	"github.com/papercomputeco/driftlens/pkg/retry"
	"github.com/papercomputeco/driftlens/pkg/searchindex"
	"github.com/papercomputeco/driftlens/pkg/store"
	storeutils "github.com/papercomputeco/driftlens/pkg/store/utils"
)

// LoadConfig resolves the flag > env > file > default chain for cmd and
// validates it for purpose. Every missing key is logged before the error
// is returned.
func LoadConfig(cmd *cobra.Command, purpose config.Purpose, flagKeys []string, logger *zap.Logger) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, flagKeys)

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(purpose); err != nil {
		var mse *config.MissingSettingError
		if errors.As(err, &mse) {
			for _, key := range mse.Keys {
				logger.Error("required setting is not set",
					zap.String("key", key),
					zap.String("env", EnvName(key)),
				)
			}
		}
		return nil, err
	}

	return cfg, nil
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return config.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// RetryPolicy builds the policy named by cfg.Retry.
func RetryPolicy(cfg *config.Config) (retry.Policy, error) {
	switch cfg.Retry.Policy {
	case config.RetryPolicyImmediate:
		return retry.Immediate(), nil
	case "", config.RetryPolicyBackoff:
		initial, maxInterval, err := cfg.Retry.Intervals()
		if err != nil {
			return nil, err
		}
		bc := retry.DefaultBackoffConfig()
		bc.InitialInterval = initial
		bc.MaxInterval = maxInterval
		return retry.NewBackoff(bc), nil
	default:
		return nil, fmt.Errorf("%w: retry.policy %q", config.ErrInvalidSetting, cfg.Retry.Policy)
	}
}

// NewClient builds the embedding client. The returned invoker must be
// closed by the caller.
func NewClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*embeddings.Client, embeddings.Invoker, error) {
	timeout, err := cfg.Inference.Timeout()
	if err != nil {
		return nil, nil, err
	}

	inv, err := embeddingutils.NewInvoker(ctx, &embeddingutils.NewInvokerOpts{
		ProviderType:   cfg.Inference.Provider,
		Endpoint:       cfg.Inference.Endpoint,
		APIKey:         cfg.Inference.APIKey,
		Deployment:     cfg.Inference.Deployment,
		Region:         cfg.Inference.Region,
		Model:          cfg.Inference.Model,
		Timeout:        2 * timeout,
		CircuitBreaker: cfg.Inference.CircuitBreaker,
		Logger:         logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating inference invoker: %w", err)
	}

	policy, err := RetryPolicy(cfg)
	if err != nil {
		_ = inv.Close()
		return nil, nil, err
	}

	client, err := embeddings.NewClient(embeddings.ClientConfig{
		Invoker:        inv,
		MaxAttempts:    int(cfg.Inference.MaxAttempts),
		Policy:         policy,
		RequestTimeout: timeout,
		Logger:         logger,
	})
	if err != nil {
		_ = inv.Close()
		return nil, nil, err
	}

	return client, inv, nil
}

// NewStore opens the configured store. An unset sqlite target resolves to
// driftlens.sqlite inside the .driftlens/ directory.
func NewStore(ctx context.Context, cfg *config.Config, configDir string, logger *zap.Logger) (store.Store, error) {
	target := cfg.Store.Target
	if cfg.Store.Provider == "sqlite" && target == "" {
		p, err := dotdir.NewManager().Path(configDir, config.DefaultSQLiteFile)
		if err != nil {
			return nil, err
		}
		target = p
	}

	s, err := storeutils.NewStore(ctx, &storeutils.NewStoreOpts{
		ProviderType: cfg.Store.Provider,
		Target:       target,
		APIKey:       cfg.Store.APIKey,
		Collection:   cfg.Store.Collection,
		Dimensions:   cfg.Store.Dimensions,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Store.Provider, err)
	}
	return s, nil
}

// NewIndex builds the search index client.
func NewIndex(cfg *config.Config, logger *zap.Logger) (*searchindex.Client, error) {
	return searchindex.NewClient(searchindex.Config{
		ServiceName: cfg.SearchIndex.ServiceName,
		IndexName:   cfg.SearchIndex.IndexName,
		APIKey:      cfg.SearchIndex.APIKey,
		APIVersion:  cfg.SearchIndex.APIVersion,
		Dimension:   int(cfg.SearchIndex.Dimension),
		BaseURL:     cfg.SearchIndex.BaseURL,
	}, logger)
}

// NewPublisher builds the record event publisher.
func NewPublisher(cfg *config.Config, logger *zap.Logger) (eventstream.Publisher, error) {
	return eventstreamutils.NewPublisher(&eventstreamutils.NewPublisherOpts{
		ProviderType: cfg.Events.Provider,
		Brokers:      cfg.Events.BrokerList(),
		Topic:        cfg.Events.Topic,
		Logger:       logger,
	})
}
