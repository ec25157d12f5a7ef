// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pizug/cpi-sync/internal/issue"
	"github.com/pizug/cpi-sync/pkg/cueutil"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "cpi-sync"
	// DefaultConfigPath is used when --config is not given.
	DefaultConfigPath = "./cpi-sync.json"
	// FormatVersion is written to the cpisync field of generated configuration files.
	FormatVersion = "0.2.0"
	// EnvPrefix prefixes environment variables that override configuration keys.
	EnvPrefix = "CPISYNC"
)

//go:embed config_schema.cue
var configSchema []byte

// Load reads the configuration file at path, validates it, and applies
// defaults and CPISYNC_* environment overrides.
func Load(ctx context.Context, path string) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	configErr := issue.NewErrorContext().
		WithOperation("load configuration").
		WithResource(path).
		WithIssue(issue.ConfigLoadFailedId)

	if !fileExists(path) {
		return nil, configErr.
			WithSuggestion("Verify the --config path is correct").
			WithSuggestion("Run 'cpi-sync config init' to create a starter file").
			Wrap(fmt.Errorf("config file not found: %s", path)).
			BuildError()
	}

	v := newViper()
	if err := loadIntoViper(v, path); err != nil {
		return nil, configErr.
			WithSuggestion("Check that the file is valid JSON, CUE, or TOML").
			WithSuggestion("Verify the values match the schema shown by 'cpi-sync config validate'").
			Wrap(err).
			BuildError()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, configErr.Wrap(fmt.Errorf("failed to decode config: %w", err)).BuildError()
	}

	// Environment overrides are applied after schema validation, so check again.
	if ok, errs := cfg.IsValid(); !ok {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion(fmt.Sprintf("Check %s_* environment variables that override file values", EnvPrefix)).
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("packages.zip_extraction", defaults.Packages.ZipExtraction.String())
	v.SetDefault("packages.local_dir", defaults.Packages.LocalDir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// loadIntoViper validates the file against #Config and merges the decoded
// document into v.
func loadIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := decodeDocument(path, data)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// decodeDocument validates data against the schema, choosing the parser by
// file extension. JSON is a subset of CUE, so both go through the CUE compiler.
func decodeDocument(path string, data []byte) (map[string]any, error) {
	opts := []cueutil.Option{cueutil.WithFilename(path)}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
			return nil, err
		}
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		result, err := cueutil.ValidateData[map[string]any](configSchema, raw, "#Config", opts...)
		if err != nil {
			return nil, err
		}
		return *result.Value, nil
	}

	result, err := cueutil.ParseAndDecode[map[string]any](configSchema, data, "#Config", opts...)
	if err != nil {
		return nil, err
	}
	return *result.Value, nil
}

// DataRoot returns the absolute directory artifacts are written to:
// packages.local_dir joined to the directory containing the configuration file.
// An absolute local_dir is used as is.
func DataRoot(configPath string, cfg *Config) (string, error) {
	localDir := cfg.Packages.LocalDir
	if localDir == "" {
		localDir = "."
	}
	if filepath.IsAbs(localDir) {
		return filepath.Clean(localDir), nil
	}

	absConfig, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	dir := filepath.Dir(absConfig)
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	return filepath.Join(dir, localDir), nil
}

// Starter returns the configuration written by 'cpi-sync config init'.
func Starter() *Config {
	return &Config{
		CPISync: FormatVersion,
		Tenant: Tenant{
			ManagementHost: "tenant.example.com",
			Credential: Credential{
				SUser: &SUser{
					Username:                    "S0000000000",
					PasswordEnvironmentVariable: "CPISYNC_PASSWORD",
				},
			},
		},
		Packages: Packages{
			ZipExtraction: ZipExtractionEnabled,
			LocalDir:      "./packages",
			FilterRules: []FilterRule{
				{Type: RuleTypeRegex, Pattern: ".*", Operation: OperationInclude},
			},
		},
	}
}

// GenerateJSON renders cfg as an indented JSON document.
func GenerateJSON(cfg *Config) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return append(data, '\n'), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
