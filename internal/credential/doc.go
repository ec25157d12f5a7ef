// SPDX-License-Identifier: MPL-2.0

// Package credential turns the configured tenant credential into an HTTP
// Authorization header value.
//
// A Credential is one of two variants, Basic or ClientCredentials. Resolver
// finds the secret for it (environment variable, then an interactive
// prompt), and Authorizer produces the header, exchanging client
// credentials for a bearer token when needed.
package credential
