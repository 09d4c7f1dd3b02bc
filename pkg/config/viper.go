package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/papercomputeco/driftlens/pkg/dotdir"
)

// EnvPrefix prefixes every environment override, e.g. DRIFTLENS_INFERENCE_API_KEY.
const EnvPrefix = "DRIFTLENS"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), loads a .env file from the
// working directory and the resolved .driftlens/ directory (if present),
// reads config.toml and binds environment variables with the DRIFTLENS_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (DRIFTLENS_INFERENCE_ENDPOINT, DRIFTLENS_STORE_TARGET, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	envFiles := []string{".env"}
	if target != "" {
		v.AddConfigPath(target)
		envFiles = append(envFiles, filepath.Join(target, ".env"))
	}

	// godotenv never overrides variables already present in the environment.
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper materializes a Config from every registered key in v,
// honoring the full flag > env > file > default chain.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{Version: v.GetInt("version")}
	for _, key := range ValidConfigKeys() {
		if err := configKeys[key].set(cfg, v.GetString(key)); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	for _, key := range ValidConfigKeys() {
		v.SetDefault(key, configKeys[key].get(d))
	}
}
