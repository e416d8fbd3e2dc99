// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package store

import "errors"

// Sentinel errors for the store package.
var (
	// ErrNotFound indicates a mutation referenced a record id that is not
	// in the collection. Surfaced to the caller, never swallowed.
	ErrNotFound = errors.New("record not found")

	// ErrSerialization indicates a value could not be encoded as JSON.
	// This points at a malformed record type, so it is treated as a
	// programming error rather than a runtime condition.
	ErrSerialization = errors.New("value is not serializable")

	// ErrNilAdapter indicates a store was constructed without persistence.
	ErrNilAdapter = errors.New("persistence adapter must not be nil")
)
