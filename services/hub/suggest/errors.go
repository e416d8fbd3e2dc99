// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package suggest

import "errors"

// Sentinel errors for the suggest package.
var (
	// ErrNotConfigured indicates the feed has no generative client. The
	// pipeline fails fast to error status without any network I/O.
	ErrNotConfigured = errors.New("generative client not configured")

	// ErrParse indicates the model response contained no usable JSON.
	ErrParse = errors.New("could not parse model response")

	// ErrStale indicates a run resolved after a newer trigger superseded it;
	// its result was discarded.
	ErrStale = errors.New("run superseded by a newer trigger")
)
