// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

// Package hub wires Hearth's stores, feeds, and wellbeing aggregator together
// and exposes them over HTTP.
package hub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hearthlabs/hearth/services/hub/domain"
	"github.com/hearthlabs/hearth/services/hub/llm"
	"github.com/hearthlabs/hearth/services/hub/store"
	"github.com/hearthlabs/hearth/services/hub/suggest"
	"github.com/hearthlabs/hearth/services/hub/wellbeing"
)

// ServiceVersion is the hub service version.
const ServiceVersion = "0.1.0"

// ServiceConfig assembles a hub service.
type ServiceConfig struct {
	// Adapter is the persistence layer. Required.
	Adapter *store.Adapter

	// Client is the generative backend shared by all feeds. Nil leaves
	// every feed in the not-configured state.
	Client llm.Client

	// FeedTimeout bounds one feed run. Default 30s.
	FeedTimeout time.Duration

	// Prompts optionally overrides per-feed prompt templates.
	Prompts map[string]func() string

	// Logger is optional.
	Logger *slog.Logger
}

// Service owns the hub's domain state and advisory feeds.
type Service struct {
	Collections *domain.Collections
	Feeds       *suggest.FeedSet
	Wellbeing   *wellbeing.Aggregator

	logger *slog.Logger
}

// NewService loads all collections and wires the feeds.
//
// Inputs:
//
//	ctx - Context for the initial collection loads.
//	cfg - Service configuration. Adapter is required.
//
// Outputs:
//
//	*Service - Ready to serve.
//	error - Non-nil if loading or wiring fails.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	collections, err := domain.NewCollections(ctx, cfg.Adapter, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("hub service: %w", err)
	}

	agg := wellbeing.New(collections)

	feeds, err := suggest.NewFeedSet(collections, agg, suggest.Options{
		Client:  cfg.Client,
		Timeout: cfg.FeedTimeout,
		Logger:  cfg.Logger,
		Prompts: cfg.Prompts,
	})
	if err != nil {
		return nil, fmt.Errorf("hub service: %w", err)
	}

	return &Service{
		Collections: collections,
		Feeds:       feeds,
		Wellbeing:   agg,
		logger:      cfg.Logger,
	}, nil
}

// RefreshAllFeeds triggers every feed concurrently and waits for all runs.
//
// Description:
//
//	Feeds are independent: one failing does not cancel the others, so this
//	collects errors rather than using a shared cancel. Returns the first
//	error for the caller's log line; per-feed status is in each feed State.
func (s *Service) RefreshAllFeeds(ctx context.Context) error {
	g := new(errgroup.Group)
	for _, feed := range s.Feeds.All() {
		g.Go(func() error {
			return feed.Refresh(ctx)
		})
	}
	return g.Wait()
}
