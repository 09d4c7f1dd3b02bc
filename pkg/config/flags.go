package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline, so the same logical flag
// (e.g. --store-target on both "ingest" and "query") cannot drift.
type Flag struct {
	// Name is the long flag name (e.g. "endpoint").
	Name string

	// Shorthand is the one-letter short flag (e.g. "e"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "inference.endpoint").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddUintFlag, AddBoolFlag
// and BindRegisteredFlags.
const (
	FlagInferenceProvider = "inference-provider"
	FlagEndpoint          = "endpoint"
	FlagDeployment        = "deployment"
	FlagRegion            = "region"
	FlagModel             = "model"
	FlagMaxAttempts       = "max-attempts"
	FlagCircuitBreaker    = "circuit-breaker"
	FlagRetryPolicy       = "retry-policy"
	FlagStoreProvider     = "store-provider"
	FlagStoreTarget       = "store-target"
	FlagStoreCollection   = "store-collection"
	FlagEventsProvider    = "events-provider"
	FlagEventsBrokers     = "events-brokers"
	FlagWorkers           = "workers"
)

// Flags is the registry shared by every driftlens command.
var Flags = FlagSet{
	FlagInferenceProvider: {Name: "inference-provider", ViperKey: "inference.provider", Description: "Inference provider (azureml, bedrock)"},
	FlagEndpoint:          {Name: "endpoint", Shorthand: "e", ViperKey: "inference.endpoint", Description: "Inference endpoint URL"},
	FlagDeployment:        {Name: "deployment", ViperKey: "inference.deployment", Description: "Inference deployment name (azureml)"},
	FlagRegion:            {Name: "region", ViperKey: "inference.region", Description: "AWS region (bedrock)"},
	FlagModel:             {Name: "model", ViperKey: "inference.model", Description: "Model identifier (bedrock)"},
	FlagMaxAttempts:       {Name: "max-attempts", ViperKey: "inference.max_attempts", Description: "Inference attempts per item"},
	FlagCircuitBreaker:    {Name: "circuit-breaker", ViperKey: "inference.circuit_breaker", Description: "Stop calling the endpoint after repeated failures"},
	FlagRetryPolicy:       {Name: "retry-policy", ViperKey: "retry.policy", Description: "Wait between attempts (backoff, immediate)"},
	FlagStoreProvider:     {Name: "store-provider", ViperKey: "store.provider", Description: "Embedding store (inmemory, sqlite, postgres, qdrant, redis)"},
	FlagStoreTarget:       {Name: "store-target", ViperKey: "store.target", Description: "Store address, path or connection string"},
	FlagStoreCollection:   {Name: "store-collection", ViperKey: "store.collection", Description: "Store collection, table or key prefix"},
	FlagEventsProvider:    {Name: "events-provider", ViperKey: "events.provider", Description: "Record event publisher (nop, kafka)"},
	FlagEventsBrokers:     {Name: "events-brokers", ViperKey: "events.brokers", Description: "Comma separated Kafka brokers"},
	FlagWorkers:           {Name: "workers", Shorthand: "w", ViperKey: "ingest.workers", Description: "Concurrent ingestion workers"},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaultString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddUintFlag registers a uint flag on cmd from the given FlagSet.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *uint) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultUint(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().UintVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().UintVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, registryKey string, target *bool) {
	def, ok := fs[registryKey]
	if !ok {
		return
	}

	defaultVal := defaultBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}

func defaultString(viperKey string) string {
	return defaults().GetString(viperKey)
}

func defaultUint(viperKey string) uint {
	return defaults().GetUint(viperKey)
}

func defaultBool(viperKey string) bool {
	return defaults().GetBool(viperKey)
}
