// SPDX-License-Identifier: MPL-2.0

// Package tenant is an HTTP client for the integration content management
// API (/api/v1/) of a tenant.
//
// Every request carries a precomputed Authorization header. List calls ask
// for JSON and decode the OData v2 envelope {"d":{"results":[...]}};
// artifact downloads return the raw payload bytes. Failures are reported as
// *APIError values that wrap one sentinel per operation, so callers can
// branch with errors.Is.
package tenant
