// SPDX-License-Identifier: MPL-2.0

package artifact

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pizug/cpi-sync/internal/config"

	"github.com/spf13/afero"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644

	zipExt = ".zip"
)

var (
	// ErrArchiveCorrupt is returned when a payload is not a readable zip archive
	// or one of its entries fails to decompress.
	ErrArchiveCorrupt = errors.New("artifact archive is corrupt")
	// ErrUnsafeArchivePath is returned when an archive entry, package ID, or
	// artifact ID would resolve to a path outside its target directory.
	ErrUnsafeArchivePath = errors.New("unsafe archive path")
)

type (
	// Store persists one downloaded artifact payload.
	Store interface {
		// Save stores payload for the artifact and reports how many files it wrote.
		Save(packageID, artifactID string, payload []byte) (int, error)
	}

	// RawStore writes each payload verbatim to <Root>/<package>/<artifact>.zip.
	RawStore struct {
		Fs   afero.Fs
		Root string
	}

	// ExtractStore unpacks each payload into <Root>/<package>/<artifact>/.
	ExtractStore struct {
		Fs   afero.Fs
		Root string
	}

	// UnsafePathError names the path that was refused.
	UnsafePathError struct {
		Name string
	}
)

func (e *UnsafePathError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnsafeArchivePath, e.Name)
}

func (e *UnsafePathError) Unwrap() error { return ErrUnsafeArchivePath }

// NewStore returns the Store matching the configured extraction mode.
func NewStore(mode config.ZipExtraction, fs afero.Fs, root string) (Store, error) {
	switch mode {
	case config.ZipExtractionEnabled:
		return &ExtractStore{Fs: fs, Root: root}, nil
	case config.ZipExtractionDisabled:
		return &RawStore{Fs: fs, Root: root}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidZipExtraction, mode)
	}
}

// Save implements Store.
func (s *RawStore) Save(packageID, artifactID string, payload []byte) (int, error) {
	if err := checkComponents(packageID, artifactID); err != nil {
		return 0, err
	}

	dir := filepath.Join(s.Root, packageID)
	if err := s.Fs.MkdirAll(dir, dirPerm); err != nil {
		return 0, fmt.Errorf("create package directory %s: %w", dir, err)
	}

	target := filepath.Join(dir, artifactID+zipExt)
	if err := afero.WriteFile(s.Fs, target, payload, filePerm); err != nil {
		return 0, fmt.Errorf("write %s: %w", target, err)
	}
	return 1, nil
}

// Save implements Store. Existing files are overwritten; files that are no
// longer part of the archive are left in place.
func (s *ExtractStore) Save(packageID, artifactID string, payload []byte) (int, error) {
	if err := checkComponents(packageID, artifactID); err != nil {
		return 0, err
	}

	// Entry names are checked one by one below, so ErrInsecurePath is not fatal here.
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return 0, fmt.Errorf("%w: %s/%s: %w", ErrArchiveCorrupt, packageID, artifactID, err)
	}

	dir := filepath.Join(s.Root, packageID, artifactID)
	if err := s.Fs.MkdirAll(dir, dirPerm); err != nil {
		return 0, fmt.Errorf("create artifact directory %s: %w", dir, err)
	}
	jail := afero.NewBasePathFs(s.Fs, dir)

	written := 0
	for _, f := range zr.File {
		name, err := enclosedName(f.Name)
		if err != nil {
			return written, err
		}

		if f.FileInfo().IsDir() {
			if err := jail.MkdirAll(name, dirPerm); err != nil {
				return written, fmt.Errorf("create directory %s: %w", name, err)
			}
			continue
		}

		if err := extractFile(jail, f, name); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

func extractFile(fs afero.Fs, f *zip.File, name string) error {
	if parent := path.Dir(name); parent != "." {
		if err := fs.MkdirAll(parent, dirPerm); err != nil {
			return fmt.Errorf("create directory %s: %w", parent, err)
		}
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: open entry %s: %w", ErrArchiveCorrupt, f.Name, err)
	}
	defer func() { _ = rc.Close() }() // read-only archive entry

	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("%w: read entry %s: %w", ErrArchiveCorrupt, f.Name, err)
	}

	if err := afero.WriteFile(fs, name, data, filePerm); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// enclosedName returns the slash-separated relative path of an archive entry,
// or an UnsafePathError when the entry is absolute or climbs out of the
// extraction directory.
func enclosedName(raw string) (string, error) {
	name := strings.ReplaceAll(raw, `\`, "/")
	if name == "" || strings.ContainsRune(name, 0) || path.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", &UnsafePathError{Name: raw}
	}

	clean := path.Clean(strings.TrimSuffix(name, "/"))
	if !filepath.IsLocal(filepath.FromSlash(clean)) {
		return "", &UnsafePathError{Name: raw}
	}
	return clean, nil
}

// checkComponents refuses identifiers that are not a single path element.
func checkComponents(ids ...string) error {
	for _, id := range ids {
		if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || !filepath.IsLocal(id) {
			return &UnsafePathError{Name: id}
		}
	}
	return nil
}
