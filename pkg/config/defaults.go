package config

const (
	RetryPolicyBackoff   = "backoff"
	RetryPolicyImmediate = "immediate"
)

const (
	defaultInferenceProvider = "azureml"
	defaultRequestTimeout    = "60s"
	defaultMaxAttempts       = 3

	defaultRetryInitialInterval = "500ms"
	defaultRetryMaxInterval     = "5s"

	defaultStoreProvider   = "sqlite"
	defaultStoreCollection = "driftlens"

	defaultSearchAPIVersion = "2023-07-01-Preview"

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "driftlens.records"

	defaultIngestWorkers = 1

	// DefaultSQLiteFile is the store file created under .driftlens/ when
	// store.provider is sqlite and store.target is unset.
	DefaultSQLiteFile = "driftlens.sqlite"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Inference: InferenceConfig{
			Provider:       defaultInferenceProvider,
			RequestTimeout: defaultRequestTimeout,
			MaxAttempts:    defaultMaxAttempts,
		},
		Retry: RetryConfig{
			Policy:          RetryPolicyBackoff,
			InitialInterval: defaultRetryInitialInterval,
			MaxInterval:     defaultRetryMaxInterval,
		},
		Store: StoreConfig{
			Provider:   defaultStoreProvider,
			Collection: defaultStoreCollection,
		},
		SearchIndex: SearchIndexConfig{
			APIVersion: defaultSearchAPIVersion,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
		Ingest: IngestConfig{
			Workers: defaultIngestWorkers,
		},
	}
}
