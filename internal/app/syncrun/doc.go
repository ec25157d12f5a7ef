// SPDX-License-Identifier: MPL-2.0

// Package syncrun wires the sync pipeline together: it resolves the secret,
// builds the Authorization header, probes the tenant, fetches the package
// catalog, evaluates the filter rules and hands the operating set to the
// artifact syncer. It decouples CLI-layer concerns (flags, prompts, styling)
// from the pipeline itself.
package syncrun
