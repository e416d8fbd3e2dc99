// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

// Package suggest runs Hearth's advisory feeds: prompt construction from
// store snapshots, one stateless generative call, defensive parsing, and
// publication of typed suggestion items behind a tri-state status.
//
// Each Pipeline instance owns its own status and result list. A failure or
// slow response in one feed never blocks or corrupts another.
package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hearthlabs/hearth/services/hub/llm"
)

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

var (
	pipelineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_suggest_runs_total",
		Help: "Pipeline runs by feed and outcome",
	}, []string{"feed", "outcome"})

	pipelineRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hearth_suggest_run_duration_seconds",
		Help:    "End-to-end pipeline run time",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"feed"})
)

var tracer = otel.Tracer("github.com/hearthlabs/hearth/services/hub/suggest")

// -----------------------------------------------------------------------------
// Status
// -----------------------------------------------------------------------------

// Status is the tri-state (plus initial) condition of one feed.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is a point-in-time snapshot of a feed, shaped for the HTTP surface.
//
// A feed in error always carries a non-empty Error message so the UI can
// distinguish it from loading and from "no suggestions available".
type State struct {
	Feed      string    `json:"feed"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Items     any       `json:"items"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Feed is the type-erased view of a Pipeline, used for fanout and routing.
type Feed interface {
	Name() string
	Refresh(ctx context.Context) error
	State() State
	Remove(itemID string) bool
}

// -----------------------------------------------------------------------------
// Pipeline
// -----------------------------------------------------------------------------

// Config assembles one feed.
type Config[T any] struct {
	// Name identifies the feed in routes, logs, and metrics.
	Name string

	// Client is the generative backend. A nil client means the feed is not
	// configured: Refresh fails fast without network I/O.
	Client llm.Client

	// BuildPrompt snapshots store state and interpolates it into the feed's
	// natural-language template. The wording is an external concern; the
	// pipeline only passes the result through.
	BuildPrompt func() string

	// Decode turns the raw response into items. Implementations should drop
	// array elements missing their primary display field and default the
	// rest. False means nothing usable was recovered.
	Decode func(raw string) ([]T, bool)

	// ID returns a pointer to an item's id field. The pipeline stamps a
	// locally generated id through it on publish; ids invented by the model
	// are never trusted.
	ID func(item *T) *string

	// Fallback, when non-nil, supplies a static payload published alongside
	// the error status when decoding fails, so the UI is not a dead end.
	// Per-feed policy, not a core guarantee.
	Fallback func() []T

	// Timeout bounds the generative call. Default 30s. A timeout surfaces
	// as error status, never a silent hang.
	Timeout time.Duration

	// Params are forwarded to the client.
	Params llm.GenerationParams

	// Logger is optional; defaults to slog.Default().
	Logger *slog.Logger
}

// Pipeline runs one advisory feed end to end.
//
// # State machine
//
//	idle -> loading -> (success | error) -> loading -> ...
//
// Exactly one status holds at a time. Loading clears any prior error.
// Success replaces the published list wholesale. Prior items stay visible
// through loading and through errors without a fallback.
//
// # Out-of-order resolution
//
// Each trigger increments a generation counter. A run that resolves after a
// newer trigger has started discards its result and reports ErrStale, so the
// most recently triggered request always wins. This is a deliberate change
// from last-resolved-wins, which could publish stale results.
//
// Thread Safety: Safe for concurrent use.
type Pipeline[T any] struct {
	cfg Config[T]

	mu         sync.Mutex
	status     Status
	errMsg     string
	items      []T
	generation uint64
	updatedAt  time.Time
}

// NewPipeline creates a feed in idle state with no published items.
func NewPipeline[T any](cfg Config[T]) (*Pipeline[T], error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("pipeline: name is required")
	}
	if cfg.BuildPrompt == nil || cfg.Decode == nil || cfg.ID == nil {
		return nil, fmt.Errorf("pipeline %q: BuildPrompt, Decode, and ID are required", cfg.Name)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.Logger = cfg.Logger.With("feed", cfg.Name)

	return &Pipeline[T]{
		cfg:    cfg,
		status: StatusIdle,
		items:  []T{},
	}, nil
}

// Name returns the feed name.
func (p *Pipeline[T]) Name() string { return p.cfg.Name }

// Refresh runs the feed once: build prompt, call the model, parse, publish.
//
// Description:
//
//	Blocks until the run resolves or the configured timeout fires.
//	Transport and parse failures are recovered into the error status and
//	also returned so callers can surface them. ErrNotConfigured is returned
//	without any network call when no client is set.
//
// Inputs:
//
//	ctx - Caller context; a per-run timeout is layered on top.
//
// Outputs:
//
//	error - Non-nil when the run did not publish a success.
func (p *Pipeline[T]) Refresh(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "suggest.Refresh")
	span.SetAttributes(attribute.String("feed", p.cfg.Name))
	defer span.End()

	start := time.Now()

	p.mu.Lock()
	p.generation++
	gen := p.generation
	p.status = StatusLoading
	p.errMsg = ""
	p.mu.Unlock()

	if clientMissing(p.cfg.Client) {
		p.publishError(gen, ErrNotConfigured.Error(), nil)
		pipelineRunsTotal.WithLabelValues(p.cfg.Name, "not_configured").Inc()
		span.SetStatus(codes.Error, "not configured")
		return ErrNotConfigured
	}

	prompt := p.cfg.BuildPrompt()

	runCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	raw, err := p.cfg.Client.Generate(runCtx, prompt, p.cfg.Params)
	if err != nil {
		p.publishError(gen, err.Error(), nil)
		pipelineRunsTotal.WithLabelValues(p.cfg.Name, "transport_error").Inc()
		span.SetStatus(codes.Error, "generate failed")
		p.cfg.Logger.Error("feed run failed", "error", err.Error())
		return fmt.Errorf("feed %s: %w", p.cfg.Name, err)
	}

	items, ok := p.cfg.Decode(raw)
	if !ok {
		var fallback []T
		if p.cfg.Fallback != nil {
			fallback = p.stamp(p.cfg.Fallback())
		}
		p.publishError(gen, ErrParse.Error(), fallback)
		pipelineRunsTotal.WithLabelValues(p.cfg.Name, "parse_error").Inc()
		span.SetStatus(codes.Error, "parse failed")
		p.cfg.Logger.Warn("feed response unparseable", "response_len", len(raw))
		return fmt.Errorf("feed %s: %w", p.cfg.Name, ErrParse)
	}

	if !p.publishSuccess(gen, p.stamp(items)) {
		pipelineRunsTotal.WithLabelValues(p.cfg.Name, "stale").Inc()
		return fmt.Errorf("feed %s: %w", p.cfg.Name, ErrStale)
	}

	pipelineRunsTotal.WithLabelValues(p.cfg.Name, "success").Inc()
	pipelineRunDuration.WithLabelValues(p.cfg.Name).Observe(time.Since(start).Seconds())
	p.cfg.Logger.Info("feed refreshed", "items", len(items))
	return nil
}

// State returns a snapshot of the feed.
func (p *Pipeline[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{
		Feed:      p.cfg.Name,
		Status:    p.status,
		Error:     p.errMsg,
		Items:     slices.Clone(p.items),
		UpdatedAt: p.updatedAt,
	}
}

// Items returns the currently published items.
func (p *Pipeline[T]) Items() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.items)
}

// Remove drops one item from the published set (accept or decline).
//
// Outputs:
//
//	bool - False if no item with that id is currently published.
func (p *Pipeline[T]) Remove(itemID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.items {
		if *p.cfg.ID(&p.items[i]) == itemID {
			p.items = slices.Delete(p.items, i, i+1)
			return true
		}
	}
	return false
}

// clientMissing reports whether the feed has no usable generative client.
// A nil concrete pointer wrapped in the interface counts as missing; optional
// clients wired through an interface field arrive in exactly that shape.
func clientMissing(c llm.Client) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// stamp assigns fresh local ids to every item.
func (p *Pipeline[T]) stamp(items []T) []T {
	for i := range items {
		*p.cfg.ID(&items[i]) = uuid.New().String()
	}
	return items
}

// publishSuccess installs items if gen is still the newest generation.
func (p *Pipeline[T]) publishSuccess(gen uint64, items []T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return false
	}
	p.status = StatusSuccess
	p.errMsg = ""
	p.items = items
	p.updatedAt = time.Now().UTC()
	return true
}

// publishError installs the error status (and optional fallback items) if
// gen is still the newest generation.
func (p *Pipeline[T]) publishError(gen uint64, msg string, fallback []T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return
	}
	p.status = StatusError
	p.errMsg = msg
	if fallback != nil {
		p.items = fallback
	}
	p.updatedAt = time.Now().UTC()
}
