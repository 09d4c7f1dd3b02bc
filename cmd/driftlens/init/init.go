// Package initcmder provides the init command for initializing a local
// .driftlens directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/driftlens/pkg/config"
)

const (
	dirName = ".driftlens"
)

const initLongDesc string = `Initialize a new .driftlens/ directory in the current working directory.

Creates a local .driftlens/ directory that takes precedence over ~/.driftlens/
for configuration and the default SQLite store. This keeps one dataset's
records and settings apart from another's.

With --preset, a config.toml is written with defaults for the named
inference provider. An existing config.toml is left untouched.

Examples:
  driftlens init
  driftlens init --preset bedrock`

const initShortDesc string = "Initialize a local .driftlens/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout(), preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "",
		fmt.Sprintf("Write a config.toml for an inference preset (%s)", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func runInit(w io.Writer, preset string) error {
	var cfg *config.Config
	if preset != "" {
		var err error
		cfg, err = config.PresetConfig(preset)
		if err != nil {
			return err
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	if err == nil && info.IsDir() {
		fmt.Fprintf(w, "Already initialized: %s\n", dir)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .driftlens directory: %w", err)
		}
		fmt.Fprintf(w, "Initialized .driftlens directory: %s\n", dir)
	}

	if cfg == nil {
		return nil
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfger.GetTarget()); err == nil {
		fmt.Fprintf(w, "Keeping existing config: %s\n", cfger.GetTarget())
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading config: %w", err)
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(w, "Wrote %s preset config: %s\n", strings.ToLower(preset), cfger.GetTarget())
	return nil
}
