package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/driftlens/pkg/config"
)

const listLongDesc string = `List all configuration values.

Displays every configuration key and its current value from config.toml
in the .driftlens/ directory. Credentials are redacted unless --show-secrets
is given.

Examples:
  driftlens config list
  driftlens config list --show-secrets`

const listShortDesc string = "List all configuration values"

func newListCmd() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir, showSecrets)
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "Print credential values instead of redacting them")

	return cmd
}

func runList(w io.Writer, configDir string, showSecrets bool) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if target := cfger.GetTarget(); target != "" {
		fmt.Fprintf(w, "Using config file: %s\n\n", target)
	} else {
		fmt.Fprint(w, "No config file found. Using default config.\n\n")
	}

	cfg, err := cfger.LoadConfig()
	if err != nil {
		return err
	}

	keys := config.ValidConfigKeys()

	maxLen := 0
	for _, k := range keys {
		if len(k) > maxLen {
			maxLen = len(k)
		}
	}

	for _, key := range keys {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}

		switch {
		case value == "":
			fmt.Fprintf(w, "%-*s = <not set>\n", maxLen, key)
		case config.IsSecretKey(key) && !showSecrets:
			fmt.Fprintf(w, "%-*s = <redacted>\n", maxLen, key)
		default:
			fmt.Fprintf(w, "%-*s = %q\n", maxLen, key, value)
		}
	}

	return nil
}
