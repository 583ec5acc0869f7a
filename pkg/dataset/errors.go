// Copyright 2025-2026 The vpdata Authors. SPDX-License-Identifier: Apache-2.0

package dataset

import "fmt"

// DatasetNotFoundError is returned when the files of a dataset are not available locally, and they can't be
// downloaded, either because download was disallowed or because there is no public source for them.
type DatasetNotFoundError struct {
	Dataset string

	// Path that was expected to exist.
	Path string

	// Reason, optional, gives more details.
	Reason string
}

// Error implements the error interface.
func (e *DatasetNotFoundError) Error() string {
	msg := fmt.Sprintf("dataset %q not found in %q", e.Dataset, e.Path)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ArchiveCorruptionError is returned when a downloaded archive was extracted, but the expected files
// didn't show up. Usually this means an interrupted download: remove Archive and try again.
type ArchiveCorruptionError struct {
	Dataset string
	Archive string
	Cause   error
}

// Error implements the error interface.
func (e *ArchiveCorruptionError) Error() string {
	return fmt.Sprintf("dataset %q: archive %q seems corrupted (remove it and try again): %v",
		e.Dataset, e.Archive, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *ArchiveCorruptionError) Unwrap() error {
	return e.Cause
}
