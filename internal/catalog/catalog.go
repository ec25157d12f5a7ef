// SPDX-License-Identifier: MPL-2.0

// Package catalog builds the immutable view of a tenant's packages that
// filter rules are evaluated against.
package catalog

import (
	"context"
	"fmt"

	"github.com/pizug/cpi-sync/internal/tenant"

	"bitbucket.org/creachadair/stringset"
)

type (
	// PackageLister lists the packages of a tenant. *tenant.Client implements it.
	PackageLister interface {
		ListPackages(ctx context.Context) ([]tenant.Package, error)
	}

	// Catalog is the set of package identifiers plus a display-name index.
	// It is not modified after Fetch or New returns.
	Catalog struct {
		// IDs holds every package identifier.
		IDs stringset.Set
		// NameIndex maps a display name to the comma-joined identifiers
		// carrying that name, in catalog order.
		NameIndex map[string]string

		packages []tenant.Package
	}
)

// Fetch lists the tenant's packages and builds a Catalog from them.
func Fetch(ctx context.Context, lister PackageLister) (*Catalog, error) {
	pkgs, err := lister.ListPackages(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch package catalog: %w", err)
	}
	return New(pkgs), nil
}

// New builds a Catalog from packages. Duplicate identifiers collapse.
func New(pkgs []tenant.Package) *Catalog {
	c := &Catalog{
		IDs:       stringset.NewSize(len(pkgs)),
		NameIndex: make(map[string]string, len(pkgs)),
		packages:  pkgs,
	}

	for _, p := range pkgs {
		c.IDs.Add(p.ID)
		if prev, ok := c.NameIndex[p.Name]; ok {
			c.NameIndex[p.Name] = prev + "," + p.ID
		} else {
			c.NameIndex[p.Name] = p.ID
		}
	}
	return c
}

// Contains reports whether id is a catalog identifier.
func (c *Catalog) Contains(id string) bool {
	return c.IDs.Contains(id)
}

// SuggestID returns the identifiers whose display name is exactly name,
// comma-joined.
func (c *Catalog) SuggestID(name string) (string, bool) {
	ids, ok := c.NameIndex[name]
	return ids, ok
}

// Packages returns the catalog entries in server order.
func (c *Catalog) Packages() []tenant.Package {
	out := make([]tenant.Package, len(c.packages))
	copy(out, c.packages)
	return out
}

// Len is the number of distinct identifiers.
func (c *Catalog) Len() int {
	return c.IDs.Len()
}
