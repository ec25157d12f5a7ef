// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pizug/cpi-sync/internal/tenant"
)

type (
	// ArtifactSource lists and downloads design-time artifacts.
	// *tenant.Client satisfies it.
	ArtifactSource interface {
		ListArtifacts(ctx context.Context, packageID string) ([]tenant.Artifact, error)
		DownloadArtifact(ctx context.Context, artifactID string) ([]byte, error)
	}

	// Syncer copies the artifacts of a set of packages into a Store.
	Syncer struct {
		Client ArtifactSource
		Store  Store
		// Logger defaults to slog.Default() when nil.
		Logger *slog.Logger
	}

	// Summary counts what a sync run stored.
	Summary struct {
		Packages  int
		Artifacts int
		Files     int
	}
)

// Sync processes packageIDs in sorted order and stops at the first failure.
// The returned Summary covers the work completed before that failure.
func (s *Syncer) Sync(ctx context.Context, packageIDs []string) (Summary, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ids := slices.Clone(packageIDs)
	slices.Sort(ids)

	var sum Summary
	for _, pkgID := range ids {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		arts, err := s.Client.ListArtifacts(ctx, pkgID)
		if err != nil {
			return sum, fmt.Errorf("package %s: %w", pkgID, err)
		}
		logger.Info("Syncing package", "package", pkgID, "artifacts", len(arts))

		for _, art := range arts {
			if err := ctx.Err(); err != nil {
				return sum, err
			}

			payload, err := s.Client.DownloadArtifact(ctx, art.ID)
			if err != nil {
				return sum, fmt.Errorf("package %s: %w", pkgID, err)
			}

			files, err := s.Store.Save(pkgID, art.ID, payload)
			sum.Files += files
			if err != nil {
				return sum, fmt.Errorf("package %s: artifact %s: %w", pkgID, art.ID, err)
			}
			sum.Artifacts++
			logger.Debug("Stored artifact", "package", pkgID, "artifact", art.ID, "bytes", len(payload), "files", files)
		}
		sum.Packages++
	}
	return sum, nil
}
