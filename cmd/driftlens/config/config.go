// Package configcmder provides the config command for managing persistent
// driftlens configuration stored in the .driftlens/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent driftlens configuration.

Configuration is stored as config.toml in the .driftlens/ directory.
Environment variables (DRIFTLENS_<SECTION>_<KEY>, also read from a .env file)
override file values, and CLI flags override both.

Keys use dotted notation matching the TOML section structure:
  inference.provider, inference.endpoint, inference.deployment, inference.api_key,
  inference.region, inference.model, inference.request_timeout,
  inference.max_attempts, inference.circuit_breaker,
  retry.policy, retry.initial_interval, retry.max_interval,
  store.provider, store.target, store.api_key, store.collection, store.dimensions,
  search_index.service_name, search_index.index_name, search_index.api_key,
  search_index.api_version, search_index.dimension, search_index.base_url,
  events.provider, events.brokers, events.topic,
  ingest.workers

Examples:
  driftlens config set inference.endpoint https://lens.eastus.inference.ml.azure.com/score
  driftlens config set store.provider qdrant
  driftlens config get retry.policy
  driftlens config list`

const configShortDesc string = "Manage persistent driftlens configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return configKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
