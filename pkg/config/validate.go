package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingSetting is returned by Config.Validate when required keys are unset.
	ErrMissingSetting = errors.New("missing required setting")

	// ErrInvalidSetting is returned by Config.Validate for values outside
	// the supported set.
	ErrInvalidSetting = errors.New("invalid setting")
)

// Purpose names the operation a Config is validated for.
type Purpose int

const (
	PurposeCompare Purpose = iota
	PurposeIngest
	PurposeIndex
	PurposeQuery
)

func (p Purpose) String() string {
	switch p {
	case PurposeCompare:
		return "compare"
	case PurposeIngest:
		return "ingest"
	case PurposeIndex:
		return "ingest --index"
	case PurposeQuery:
		return "query"
	default:
		return fmt.Sprintf("purpose(%d)", int(p))
	}
}

// MissingSettingError lists every required key that was empty.
type MissingSettingError struct {
	Purpose Purpose
	Keys    []string
}

func (e *MissingSettingError) Error() string {
	return fmt.Sprintf("%s for %s: %s", ErrMissingSetting, e.Purpose, strings.Join(e.Keys, ", "))
}

func (e *MissingSettingError) Is(target error) bool {
	return target == ErrMissingSetting
}

// Validate checks that every setting the purpose needs is present. It only
// checks presence: reachability is discovered by the first call.
func (cfg *Config) Validate(purpose Purpose) error {
	var missing []string
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}

	switch cfg.Inference.Provider {
	case "azureml":
		require("inference.endpoint", cfg.Inference.Endpoint)
		require("inference.api_key", cfg.Inference.APIKey)
	case "bedrock":
		require("inference.region", cfg.Inference.Region)
		require("inference.model", cfg.Inference.Model)
	case "":
		missing = append(missing, "inference.provider")
	default:
		return fmt.Errorf("%w: inference.provider %q (expected azureml or bedrock)",
			ErrInvalidSetting, cfg.Inference.Provider)
	}

	if purpose != PurposeCompare {
		switch cfg.Store.Provider {
		case "", "inmemory", "sqlite":
		case "postgres", "qdrant", "redis":
			require("store.target", cfg.Store.Target)
		default:
			return fmt.Errorf("%w: store.provider %q", ErrInvalidSetting, cfg.Store.Provider)
		}
	}

	if purpose == PurposeIngest || purpose == PurposeIndex {
		switch cfg.Events.Provider {
		case "", "nop":
		case "kafka":
			require("events.brokers", cfg.Events.Brokers)
		default:
			return fmt.Errorf("%w: events.provider %q", ErrInvalidSetting, cfg.Events.Provider)
		}
	}

	if purpose == PurposeIndex {
		if cfg.SearchIndex.BaseURL == "" {
			require("search_index.service_name", cfg.SearchIndex.ServiceName)
		}
		require("search_index.index_name", cfg.SearchIndex.IndexName)
		require("search_index.api_key", cfg.SearchIndex.APIKey)
	}

	if len(missing) > 0 {
		return &MissingSettingError{Purpose: purpose, Keys: missing}
	}
	return nil
}
