// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

// Package aiparse recovers structured JSON from the free-form text a
// generative model returns.
//
// This is the single boundary where untrusted external text enters Hearth.
// Model responses are expected to contain JSON but routinely arrive wrapped
// in a fenced code block, padded with whitespace, or truncated mid-array.
//
// Single Responsibility:
//
//	This package ONLY parses. It performs no I/O, never panics, and never
//	returns an error: failure is a boolean, because "the model said
//	something unusable" is an expected outcome, not an exceptional one.
package aiparse

import (
	"encoding/json"
	"strings"
)

const fence = "```"

// Extract recovers a value of type T from a raw model response.
//
// Description:
//
//	Strips a single outer code fence if present (with or without a language
//	tag), then attempts to parse the remaining text as JSON into T. No deep
//	schema validation is performed; absent fields decode to zero values and
//	callers must tolerate unexpected shapes.
//
// Inputs:
//
//	raw - The raw response text. May be pure JSON, fenced JSON, prose, or
//	      malformed JSON.
//
// Outputs:
//
//	T - The decoded value (zero value when ok is false).
//	bool - False when no JSON value could be recovered. Never panics.
//
// Thread Safety: Stateless, safe for concurrent use.
func Extract[T any](raw string) (T, bool) {
	var out T

	body := StripFence(raw)
	if body == "" {
		return out, false
	}

	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return out, false
	}
	return out, true
}

// StripFence removes one outer triple-backtick fence from text.
//
// Description:
//
//	Handles the common model framings:
//
//	  ```json\n[...]\n```
//	  ```\n[...]\n```
//	  [...]              (no fence, returned trimmed)
//
//	A language tag on the opening fence is discarded. If the text contains
//	a fence that never closes, everything after the opening fence is kept;
//	the subsequent JSON parse decides whether that was salvageable.
//
// Inputs:
//
//	raw - Text that may be wrapped in a fence.
//
// Outputs:
//
//	string - The enclosed body (or the trimmed input when unfenced).
func StripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, fence) {
		return text
	}

	text = strings.TrimPrefix(text, fence)

	// Opening fence may carry a language tag ("json", "JSON", ...).
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(text[:nl])
		if isLanguageTag(firstLine) {
			text = text[nl+1:]
		}
	} else {
		// Single-line input like "```json" with nothing else.
		if isLanguageTag(strings.TrimSpace(text)) {
			return ""
		}
	}

	if end := strings.LastIndex(text, fence); end >= 0 {
		text = text[:end]
	}
	return strings.TrimSpace(text)
}

// isLanguageTag reports whether s looks like a fence language hint rather
// than the start of the JSON body.
func isLanguageTag(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
