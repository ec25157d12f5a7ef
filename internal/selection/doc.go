// SPDX-License-Identifier: MPL-2.0

// Package selection resolves an ordered list of include/exclude filter rules
// against a package catalog into the set of packages to sync.
//
// Rules are folded left to right over a working set that starts empty.
// Excludes remove from the working set as it stands at that point, so
// reordering rules changes the result:
//
//	[exclude "a", include regex ".*"]  ->  "a" selected
//	[include regex ".*", exclude "a"]  ->  "a" not selected
package selection
