// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hearthlabs/hearth/services/hub/aiparse"
	"github.com/hearthlabs/hearth/services/hub/domain"
	"github.com/hearthlabs/hearth/services/hub/llm"
	"github.com/hearthlabs/hearth/services/hub/wellbeing"
)

// Feed names, used in routes and metrics labels.
const (
	FeedAdvisory    = "advisory"
	FeedQualityTime = "quality_time"
	FeedHealthAlert = "health_alerts"
	FeedMealIdeas   = "meal_ideas"
	FeedDevelopment = "development"
)

// Options configures feed construction.
type Options struct {
	// Client is shared by all feeds. Nil means every feed reports
	// ErrNotConfigured without network I/O.
	Client llm.Client

	// Timeout per run. Default 30s.
	Timeout time.Duration

	// Logger is optional.
	Logger *slog.Logger

	// Prompts overrides the built-in prompt template for a feed, keyed by
	// feed name. The exact wording is an external collaborator concern;
	// the defaults here are placeholders with the same shape.
	Prompts map[string]func() string
}

func (o Options) prompt(feed string, def func() string) func() string {
	if fn, ok := o.Prompts[feed]; ok && fn != nil {
		return fn
	}
	return def
}

// FeedSet is the full wired set of advisory feeds.
type FeedSet struct {
	Advisory    *Pipeline[AdvisoryItem]
	QualityTime *Pipeline[QualityTimeItem]
	HealthAlert *Pipeline[HealthAlertItem]
	MealIdeas   *Pipeline[MealIdeaItem]
	Development *Pipeline[DevelopmentItem]

	byName map[string]Feed
}

// NewFeedSet builds all five feeds over the given collections.
//
// Description:
//
//	Wires each feed's default prompt builder to snapshot the stores it
//	depends on, and subscribes the health-alert feed to health point
//	mutations so new observations trigger a re-run.
//
// Inputs:
//
//	collections - The wired entity stores.
//	agg - The wellbeing aggregator (feeds interpolate the current score).
//	opts - Shared client, timeout, logger, prompt overrides.
//
// Outputs:
//
//	*FeedSet - All feeds, idle, nothing published yet.
//	error - Non-nil only for invalid configuration.
func NewFeedSet(collections *domain.Collections, agg *wellbeing.Aggregator, opts Options) (*FeedSet, error) {
	fs := &FeedSet{}
	var err error

	fs.Advisory, err = NewPipeline(Config[AdvisoryItem]{
		Name:        FeedAdvisory,
		Client:      opts.Client,
		Timeout:     opts.Timeout,
		Logger:      opts.Logger,
		BuildPrompt: opts.prompt(FeedAdvisory, advisoryPrompt(collections, agg)),
		Decode:      decodeAdvisory,
		ID:          func(i *AdvisoryItem) *string { return &i.ID },
	})
	if err != nil {
		return nil, err
	}

	fs.QualityTime, err = NewPipeline(Config[QualityTimeItem]{
		Name:        FeedQualityTime,
		Client:      opts.Client,
		Timeout:     opts.Timeout,
		Logger:      opts.Logger,
		BuildPrompt: opts.prompt(FeedQualityTime, qualityTimePrompt(collections)),
		Decode:      decodeQualityTime,
		ID:          func(i *QualityTimeItem) *string { return &i.ID },
	})
	if err != nil {
		return nil, err
	}

	fs.HealthAlert, err = NewPipeline(Config[HealthAlertItem]{
		Name:        FeedHealthAlert,
		Client:      opts.Client,
		Timeout:     opts.Timeout,
		Logger:      opts.Logger,
		BuildPrompt: opts.prompt(FeedHealthAlert, healthAlertPrompt(collections)),
		Decode:      decodeHealthAlerts,
		ID:          func(i *HealthAlertItem) *string { return &i.ID },
		// An empty alert panel after a parse failure reads as "all clear",
		// which is the one thing this feed must never fake.
		Fallback: func() []HealthAlertItem {
			return []HealthAlertItem{{
				AlertText:      "Health analysis is temporarily unavailable.",
				Recommendation: "Review recent readings manually and retry.",
				Severity:       SeverityInfo,
			}}
		},
	})
	if err != nil {
		return nil, err
	}

	fs.MealIdeas, err = NewPipeline(Config[MealIdeaItem]{
		Name:        FeedMealIdeas,
		Client:      opts.Client,
		Timeout:     opts.Timeout,
		Logger:      opts.Logger,
		BuildPrompt: opts.prompt(FeedMealIdeas, mealIdeasPrompt(collections)),
		Decode:      decodeMealIdeas,
		ID:          func(i *MealIdeaItem) *string { return &i.ID },
	})
	if err != nil {
		return nil, err
	}

	fs.Development, err = NewPipeline(Config[DevelopmentItem]{
		Name:        FeedDevelopment,
		Client:      opts.Client,
		Timeout:     opts.Timeout,
		Logger:      opts.Logger,
		BuildPrompt: opts.prompt(FeedDevelopment, developmentPrompt(collections)),
		Decode:      decodeDevelopment,
		ID:          func(i *DevelopmentItem) *string { return &i.ID },
	})
	if err != nil {
		return nil, err
	}

	fs.byName = map[string]Feed{
		FeedAdvisory:    fs.Advisory,
		FeedQualityTime: fs.QualityTime,
		FeedHealthAlert: fs.HealthAlert,
		FeedMealIdeas:   fs.MealIdeas,
		FeedDevelopment: fs.Development,
	}

	// New elder health observations should re-run the alert feed without
	// waiting for a manual refresh.
	collections.HealthPoints.Subscribe(func() {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			_ = fs.HealthAlert.Refresh(ctx)
		}()
	})

	return fs, nil
}

// Get returns the feed with the given name.
func (fs *FeedSet) Get(name string) (Feed, bool) {
	f, ok := fs.byName[name]
	return f, ok
}

// All returns every feed.
func (fs *FeedSet) All() []Feed {
	out := make([]Feed, 0, len(fs.byName))
	for _, name := range []string{
		FeedAdvisory, FeedQualityTime, FeedHealthAlert, FeedMealIdeas, FeedDevelopment,
	} {
		out = append(out, fs.byName[name])
	}
	return out
}

// -----------------------------------------------------------------------------
// Decoders
// -----------------------------------------------------------------------------
//
// Each decoder tolerates missing optional fields (zero values) and drops an
// array element only when its primary display field is empty.

func decodeAdvisory(raw string) ([]AdvisoryItem, bool) {
	parsed, ok := aiparse.Extract[[]AdvisoryItem](raw)
	if !ok {
		return nil, false
	}
	out := make([]AdvisoryItem, 0, len(parsed))
	for _, item := range parsed {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		item.ID = ""
		out = append(out, item)
	}
	return out, true
}

func decodeQualityTime(raw string) ([]QualityTimeItem, bool) {
	parsed, ok := aiparse.Extract[[]QualityTimeItem](raw)
	if !ok {
		return nil, false
	}
	out := make([]QualityTimeItem, 0, len(parsed))
	for _, item := range parsed {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		item.ID = ""
		out = append(out, item)
	}
	return out, true
}

func decodeHealthAlerts(raw string) ([]HealthAlertItem, bool) {
	parsed, ok := aiparse.Extract[[]HealthAlertItem](raw)
	if !ok {
		return nil, false
	}
	out := make([]HealthAlertItem, 0, len(parsed))
	for _, item := range parsed {
		if strings.TrimSpace(item.AlertText) == "" {
			continue
		}
		item.ID = ""
		switch item.Severity {
		case SeverityInfo, SeverityWarning, SeverityCritical:
		default:
			item.Severity = SeverityInfo
		}
		out = append(out, item)
	}
	return out, true
}

func decodeMealIdeas(raw string) ([]MealIdeaItem, bool) {
	parsed, ok := aiparse.Extract[[]MealIdeaItem](raw)
	if !ok {
		return nil, false
	}
	out := make([]MealIdeaItem, 0, len(parsed))
	for _, item := range parsed {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		item.ID = ""
		out = append(out, item)
	}
	return out, true
}

func decodeDevelopment(raw string) ([]DevelopmentItem, bool) {
	parsed, ok := aiparse.Extract[[]DevelopmentItem](raw)
	if !ok {
		return nil, false
	}
	out := make([]DevelopmentItem, 0, len(parsed))
	for _, item := range parsed {
		if strings.TrimSpace(item.Title) == "" {
			continue
		}
		item.ID = ""
		out = append(out, item)
	}
	return out, true
}

// -----------------------------------------------------------------------------
// Default prompt builders
// -----------------------------------------------------------------------------
//
// These snapshot only coarse aggregates, not record contents, so the prompt
// stays small and nothing personally detailed leaks by default. Deployments
// that want richer prompts override them via Options.Prompts.

func advisoryPrompt(c *domain.Collections, agg *wellbeing.Aggregator) func() string {
	return func() string {
		report := agg.Compute()
		return fmt.Sprintf(
			"You help a family coordinate. The household has %d members, %d upcoming events, "+
				"%d shared lists, and a wellbeing score of %d/100. "+
				"Suggest up to 3 coordination improvements as a JSON array of objects with "+
				"fields: title, text, xaiRationale, type.",
			c.Members.Len(), c.Events.Len(), c.Lists.Len(), report.Score)
	}
}

func qualityTimePrompt(c *domain.Collections) func() string {
	return func() string {
		return fmt.Sprintf(
			"A family of %d members has %d events scheduled. Suggest up to 3 quality-time "+
				"activities as a JSON array of objects with fields: title, description, "+
				"suggestedTime, xaiRationale.",
			c.Members.Len(), c.Events.Len())
	}
}

func healthAlertPrompt(c *domain.Collections) func() string {
	return func() string {
		points := c.HealthPoints.List()
		limit := min(len(points), 10)
		var sb strings.Builder
		for _, p := range points[:limit] {
			fmt.Fprintf(&sb, "- %s: %s (%s)\n", p.Kind, p.Value, p.Date)
		}
		return fmt.Sprintf(
			"Recent elder health observations:\n%s"+
				"Flag anything concerning as a JSON array of objects with fields: "+
				"alertText, recommendation, severity (info|warning|critical), xaiRationale. "+
				"Return [] if nothing is concerning.",
			sb.String())
	}
}

func mealIdeasPrompt(c *domain.Collections) func() string {
	return func() string {
		recipes := c.Recipes.List()
		limit := min(len(recipes), 10)
		titles := make([]string, 0, limit)
		for _, r := range recipes[:limit] {
			titles = append(titles, r.Title)
		}
		return fmt.Sprintf(
			"A family already cooks: %s. Suggest up to 3 new dinner ideas as a JSON array "+
				"of objects with fields: title, description, tags, xaiRationale.",
			strings.Join(titles, ", "))
	}
}

func developmentPrompt(c *domain.Collections) func() string {
	return func() string {
		return fmt.Sprintf(
			"A family tracks %d milestones, %d sleep logs, and %d nutrition logs for their "+
				"children. Offer up to 3 development insights as a JSON array of objects with "+
				"fields: title, insight, ageRange, xaiRationale.",
			c.Milestones.Len(), c.SleepLogs.Len(), c.NutritionLogs.Len())
	}
}
