// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

// Package wellbeing derives the family wellbeing composite score.
//
// The aggregator is a pure, synchronous function of current store contents:
// same collections in, same score out. Nothing here is persisted or cached;
// callers recompute on demand whenever a dependent store changes.
package wellbeing

import (
	"fmt"
	"time"

	"github.com/hearthlabs/hearth/services/hub/domain"
)

// Impact is the qualitative direction of a factor.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNeutral  Impact = "neutral"
	ImpactNegative Impact = "negative"
)

// Factor is one named, scored contributor to the composite.
type Factor struct {
	Name          string `json:"name"`
	Score         int    `json:"score"` // 0-100
	Impact        Impact `json:"impact"`
	Justification string `json:"justification"`
}

// Report is the composite score with its breakdown.
type Report struct {
	Score   int      `json:"score"` // 0-100 inclusive
	Factors []Factor `json:"factors"`
}

// Composite weights. They sum to 100 so the weighted factor scores land
// directly on the 0-100 scale.
const (
	weightActivity  = 30
	weightCare      = 25
	weightMeals     = 20
	weightSleep     = 15
	weightConnected = 10
)

// recentWindow bounds how far back shared activity counts.
const recentWindow = 14 * 24 * time.Hour

// Aggregator computes wellbeing reports from the wired collections.
type Aggregator struct {
	collections *domain.Collections
	now         func() time.Time
}

// New creates an aggregator over the given collections.
func New(collections *domain.Collections) *Aggregator {
	return &Aggregator{collections: collections, now: time.Now}
}

// WithClock overrides the time source. Test hook.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Compute derives the composite score and factor breakdown.
//
// Description:
//
//	Deterministic for identical store contents and clock. The composite is
//	the weighted sum of factor scores and is always an integer in [0,100].
//
// Outputs:
//
//	Report - Score plus named factors with justifications.
func (a *Aggregator) Compute() Report {
	factors := []Factor{
		a.sharedActivity(),
		a.careFollowThrough(),
		a.mealPlanning(),
		a.childSleep(),
		a.connectedness(),
	}

	weights := []int{weightActivity, weightCare, weightMeals, weightSleep, weightConnected}
	total := 0
	for i, f := range factors {
		total += f.Score * weights[i]
	}
	score := total / 100
	score = max(0, min(100, score))

	return Report{Score: score, Factors: factors}
}

// sharedActivity scores recent shared calendar events.
func (a *Aggregator) sharedActivity() Factor {
	cutoff := a.now().Add(-recentWindow)
	count := 0
	for _, e := range a.collections.Events.List() {
		if len(e.MemberIDs) >= 2 && e.Start.After(cutoff) {
			count++
		}
	}

	// 5 shared activities in two weeks is a full score.
	score := min(100, count*20)
	impact := ImpactNeutral
	switch {
	case count >= 3:
		impact = ImpactPositive
	case count == 0:
		impact = ImpactNegative
	}
	return Factor{
		Name:          "shared_activity",
		Score:         score,
		Impact:        impact,
		Justification: fmt.Sprintf("%d shared events in the last 14 days", count),
	}
}

// careFollowThrough scores the completed/total ratio of care reminders.
func (a *Aggregator) careFollowThrough() Factor {
	reminders := a.collections.Reminders.List()
	if len(reminders) == 0 {
		return Factor{
			Name:          "care_follow_through",
			Score:         70,
			Impact:        ImpactNeutral,
			Justification: "no care reminders tracked",
		}
	}

	done := 0
	for _, r := range reminders {
		if r.Completed {
			done++
		}
	}
	score := done * 100 / len(reminders)
	impact := ImpactNeutral
	switch {
	case score >= 75:
		impact = ImpactPositive
	case score < 40:
		impact = ImpactNegative
	}
	return Factor{
		Name:          "care_follow_through",
		Score:         score,
		Impact:        impact,
		Justification: fmt.Sprintf("%d of %d care reminders completed", done, len(reminders)),
	}
}

// mealPlanning scores how much of the coming week has planned meals.
func (a *Aggregator) mealPlanning() Factor {
	planned := make(map[string]bool)
	for _, m := range a.collections.MealSlots.List() {
		planned[m.Date] = true
	}

	days := 0
	for i := 0; i < 7; i++ {
		date := a.now().AddDate(0, 0, i).Format("2006-01-02")
		if planned[date] {
			days++
		}
	}
	score := days * 100 / 7
	impact := ImpactNeutral
	switch {
	case days >= 5:
		impact = ImpactPositive
	case days == 0:
		impact = ImpactNegative
	}
	return Factor{
		Name:          "meal_planning",
		Score:         score,
		Impact:        impact,
		Justification: fmt.Sprintf("meals planned for %d of the next 7 days", days),
	}
}

// childSleep scores average logged sleep against a 9-hour target.
func (a *Aggregator) childSleep() Factor {
	logs := a.collections.SleepLogs.List()
	if len(logs) == 0 {
		return Factor{
			Name:          "child_sleep",
			Score:         70,
			Impact:        ImpactNeutral,
			Justification: "no sleep logs recorded",
		}
	}

	var total float64
	for _, l := range logs {
		total += l.Hours
	}
	avg := total / float64(len(logs))

	score := int(avg / 9.0 * 100)
	score = max(0, min(100, score))
	impact := ImpactNeutral
	switch {
	case avg >= 9:
		impact = ImpactPositive
	case avg < 7:
		impact = ImpactNegative
	}
	return Factor{
		Name:          "child_sleep",
		Score:         score,
		Impact:        impact,
		Justification: fmt.Sprintf("average %.1f hours over %d logged nights", avg, len(logs)),
	}
}

// connectedness scores bulletin-board activity as a proxy for family chatter.
func (a *Aggregator) connectedness() Factor {
	cutoff := a.now().Add(-recentWindow)
	count := 0
	for _, p := range a.collections.Bulletins.List() {
		if p.CreatedAt.After(cutoff) {
			count++
		}
	}
	score := min(100, count*25)
	impact := ImpactNeutral
	switch {
	case count >= 2:
		impact = ImpactPositive
	case count == 0:
		impact = ImpactNegative
	}
	return Factor{
		Name:          "connectedness",
		Score:         score,
		Impact:        impact,
		Justification: fmt.Sprintf("%d bulletin posts in the last 14 days", count),
	}
}
