package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/driftlens/pkg/cliui"
	"github.com/papercomputeco/driftlens/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in config.toml in the .driftlens/
directory. Values are checked before they are written: numbers, durations
("30s", "500ms"), booleans and retry.policy (backoff, immediate).

Examples:
  driftlens config set inference.provider bedrock
  driftlens config set inference.request_timeout 30s
  driftlens config set ingest.workers 4`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(cmd.OutOrStdout(), args[0], args[1], configDir)
		},
		ValidArgsFunction: completeKeys,
	}

	return cmd
}

func runSet(w io.Writer, key, value, configDir string) error {
	if !config.IsValidConfigKey(key) {
		return unknownKey(key)
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	printTarget(w, cfger)

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	shown := value
	if config.IsSecretKey(key) {
		shown = "<redacted>"
	}

	fmt.Fprintf(w, "  %s Set %s = %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render(key),
		cliui.ValueStyle.Render(shown),
	)
	return nil
}
