// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package suggest

// Suggestion items exist only in memory: created on a successful parse,
// removed on accept, decline, or wholesale replacement by the next run.
// Ids are stamped locally; anything the model put in an "id" field is
// ignored by the decoders.

// AdvisoryItem is one coordination tip from the family advisory feed.
type AdvisoryItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Text         string `json:"text"`
	XAIRationale string `json:"xaiRationale"`
	Type         string `json:"type"`
}

// QualityTimeItem is one scheduling idea from the quality-time feed.
type QualityTimeItem struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	SuggestedTime string `json:"suggestedTime"`
	XAIRationale  string `json:"xaiRationale"`
}

// Severity levels for health alerts.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// HealthAlertItem is one alert from the elder health feed.
type HealthAlertItem struct {
	ID             string `json:"id"`
	AlertText      string `json:"alertText"`
	Recommendation string `json:"recommendation"`
	Severity       string `json:"severity"`
	XAIRationale   string `json:"xaiRationale"`
}

// MealIdeaItem is one dinner idea from the meal feed.
type MealIdeaItem struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Tags         []string `json:"tags"`
	XAIRationale string   `json:"xaiRationale"`
}

// DevelopmentItem is one child development insight.
type DevelopmentItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Insight      string `json:"insight"`
	AgeRange     string `json:"ageRange"`
	XAIRationale string `json:"xaiRationale"`
}
