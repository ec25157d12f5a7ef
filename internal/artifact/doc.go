// SPDX-License-Identifier: MPL-2.0

// Package artifact downloads the design-time artifacts of the selected
// packages and stores them on disk.
//
// A Syncer walks the packages in sorted order, lists each package's artifacts
// through an ArtifactSource, downloads every payload and hands it to a Store.
// RawStore keeps the payload as <root>/<package>/<artifact>.zip; ExtractStore
// unpacks it into <root>/<package>/<artifact>/, refusing any entry whose path
// would leave that directory. The first failure stops the run.
package artifact
