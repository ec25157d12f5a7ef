// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath is the file to load. Defaults to DefaultConfigPath.
	ConfigFilePath string
}

// Loaded is a validated configuration together with where it came from.
type Loaded struct {
	*Config

	// Path is the configuration file that was read.
	Path string
	// DataRoot is the absolute directory artifacts are written to.
	DataRoot string
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Loaded, error)
}

type fileProvider struct{}

// NewProvider creates a configuration provider backed by the filesystem.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested file and resolves its data root.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Loaded, error) {
	path := opts.ConfigFilePath
	if path == "" {
		path = DefaultConfigPath
	}

	cfg, err := Load(ctx, path)
	if err != nil {
		return nil, err
	}

	root, err := DataRoot(path, cfg)
	if err != nil {
		return nil, err
	}

	return &Loaded{Config: cfg, Path: path, DataRoot: root}, nil
}
