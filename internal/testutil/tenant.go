// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type (
	// FakePackage is a package served by a FakeTenant.
	FakePackage struct {
		ID        string
		Name      string
		Artifacts []FakeArtifact
	}

	// FakeArtifact is a design-time artifact served by a FakeTenant.
	FakeArtifact struct {
		ID      string
		Name    string
		Payload []byte
	}

	// FakeTenant is an httptest server speaking the subset of the tenant
	// management API used by the sync. Zero status fields mean 200.
	FakeTenant struct {
		Server *httptest.Server

		// Authorization, when set, is required on every API request.
		Authorization string
		// AccessToken is issued by POST /oauth/token.
		AccessToken string

		PingStatus    int
		CatalogStatus int

		mu       sync.Mutex
		packages []FakePackage
		requests []string
	}
)

// NewFakeTenant starts a FakeTenant serving pkgs and closes it at test cleanup.
func NewFakeTenant(t testing.TB, pkgs ...FakePackage) *FakeTenant {
	t.Helper()

	ft := &FakeTenant{packages: pkgs}
	ft.Server = httptest.NewServer(http.HandlerFunc(ft.serve))
	t.Cleanup(ft.Server.Close)
	return ft
}

// URL returns the base URL of the server.
func (ft *FakeTenant) URL() string { return ft.Server.URL }

// TokenURL returns the URL of the OAuth token endpoint.
func (ft *FakeTenant) TokenURL() string { return ft.Server.URL + "/oauth/token" }

// Requests returns "METHOD path" for every request received so far.
func (ft *FakeTenant) Requests() []string {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return append([]string(nil), ft.requests...)
}

// CountRequests returns how many recorded requests contain substr.
func (ft *FakeTenant) CountRequests(substr string) int {
	n := 0
	for _, r := range ft.Requests() {
		if strings.Contains(r, substr) {
			n++
		}
	}
	return n
}

func (ft *FakeTenant) serve(w http.ResponseWriter, r *http.Request) {
	ft.mu.Lock()
	ft.requests = append(ft.requests, r.Method+" "+r.URL.Path)
	ft.mu.Unlock()

	if r.Method == http.MethodPost && r.URL.Path == "/oauth/token" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": ft.AccessToken,
			"token_type":   "bearer",
			"expires_in":   3600,
		})
		return
	}

	if ft.Authorization != "" && r.Header.Get("Authorization") != ft.Authorization {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	p := r.URL.Path
	switch {
	case p == "/api/v1/" || p == "/api/v1":
		writeStatus(w, ft.PingStatus)
	case p == "/api/v1/IntegrationPackages":
		if ft.CatalogStatus != 0 && ft.CatalogStatus != http.StatusOK {
			http.Error(w, "catalog unavailable", ft.CatalogStatus)
			return
		}
		results := make([]map[string]string, 0, len(ft.packages))
		for _, pkg := range ft.packages {
			results = append(results, map[string]string{"Id": pkg.ID, "Name": pkg.Name})
		}
		writeResults(w, results)
	case strings.HasPrefix(p, "/api/v1/IntegrationPackages('") && strings.HasSuffix(p, "')/IntegrationDesigntimeArtifacts"):
		id := unquoteKey(strings.TrimSuffix(strings.TrimPrefix(p, "/api/v1/IntegrationPackages('"), "')/IntegrationDesigntimeArtifacts"))
		pkg, ok := ft.findPackage(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		results := make([]map[string]string, 0, len(pkg.Artifacts))
		for _, art := range pkg.Artifacts {
			results = append(results, map[string]string{"Id": art.ID, "Name": art.Name})
		}
		writeResults(w, results)
	case strings.HasPrefix(p, "/api/v1/IntegrationDesigntimeArtifacts(Id='") && strings.HasSuffix(p, "',Version='Active')/$value"):
		id := unquoteKey(strings.TrimSuffix(strings.TrimPrefix(p, "/api/v1/IntegrationDesigntimeArtifacts(Id='"), "',Version='Active')/$value"))
		art, ok := ft.findArtifact(id)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(art.Payload)
	default:
		http.NotFound(w, r)
	}
}

func (ft *FakeTenant) findPackage(id string) (FakePackage, bool) {
	for _, pkg := range ft.packages {
		if pkg.ID == id {
			return pkg, true
		}
	}
	return FakePackage{}, false
}

func (ft *FakeTenant) findArtifact(id string) (FakeArtifact, bool) {
	for _, pkg := range ft.packages {
		for _, art := range pkg.Artifacts {
			if art.ID == id {
				return art, true
			}
		}
	}
	return FakeArtifact{}, false
}

func writeStatus(w http.ResponseWriter, status int) {
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

func writeResults(w http.ResponseWriter, results []map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"d": map[string]any{"results": results}})
}

func unquoteKey(key string) string {
	return strings.ReplaceAll(key, "''", "'")
}
