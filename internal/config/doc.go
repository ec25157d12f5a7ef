// SPDX-License-Identifier: MPL-2.0

// Package config loads the cpi-sync configuration file using Viper, with CUE
// as the validation layer.
//
// The file (JSON or CUE, or TOML by extension) is validated against the
// embedded config_schema.cue #Config definition, merged into Viper on top of
// the defaults, overridden by CPISYNC_* environment variables, and finally
// decoded into Config. Paths inside the file are resolved relative to the
// directory that holds it.
package config
