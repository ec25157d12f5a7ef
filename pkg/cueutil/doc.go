// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates configuration documents against embedded CUE schemas.
//
// Documents arrive either as CUE/JSON source bytes (ParseAndDecode) or as
// already-decoded Go data such as a TOML document (ValidateData). Both paths
// unify the input with a schema definition, validate it, and decode the
// result into a Go value, reporting failures with JSON-path style locations:
//
//	result, err := cueutil.ParseAndDecode[map[string]any](
//	    schemaBytes,
//	    fileBytes,
//	    "#Config",
//	    cueutil.WithFilename("cpi-sync.json"),
//	)
package cueutil
