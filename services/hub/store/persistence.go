// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

// Package store implements Hearth's entity stores and their write-through
// persistence onto BadgerDB.
//
// Each domain collection (members, events, reminders, ...) lives under one
// stable key and is flushed whole on every mutation. Collections are small
// (tens to low hundreds of records per household), so whole-document writes
// keep the persistence contract trivial: what is in memory is what is on disk.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hearthlabs/hearth/services/hub/storage/badger"
)

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

var (
	persistWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_persist_writes_total",
		Help: "Total persistence writes by key and status",
	}, []string{"key", "status"})

	persistWriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "hearth_persist_write_duration_seconds",
		Help:    "Time to flush a collection document",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"key"})

	persistCorruptLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_persist_corrupt_loads_total",
		Help: "Documents that failed to decode and fell back to the default value",
	}, []string{"key"})
)

var tracer = otel.Tracer("github.com/hearthlabs/hearth/services/hub/store")

// -----------------------------------------------------------------------------
// Adapter
// -----------------------------------------------------------------------------

// Adapter provides durable key -> JSON document storage with typed round-trip.
//
// Thread Safety: Safe for concurrent use; BadgerDB serializes transactions.
type Adapter struct {
	db     *badger.DB
	logger *slog.Logger
}

// NewAdapter creates a persistence adapter over an open BadgerDB.
//
// Inputs:
//
//	db - Open database. Must not be nil.
//	logger - Optional logger. Defaults to slog.Default() when nil.
//
// Outputs:
//
//	*Adapter - The adapter.
//	error - Non-nil if db is nil.
func NewAdapter(db *badger.DB, logger *slog.Logger) (*Adapter, error) {
	if db == nil {
		return nil, fmt.Errorf("new adapter: %w", ErrNilAdapter)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{db: db, logger: logger}, nil
}

// Save serializes value as a JSON document and writes it under key.
//
// Description:
//
//	Never fails on serializable input. A non-serializable value (channels,
//	functions, cycles) returns ErrSerialization; that indicates a broken
//	record type upstream, so the caller should treat it as fatal in
//	development and log it in production.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	key - Stable document key. Renaming a key is a breaking migration.
//	value - Any JSON-serializable value.
//
// Outputs:
//
//	error - ErrSerialization (wrapped) or the underlying write error.
func (a *Adapter) Save(ctx context.Context, key string, value any) error {
	ctx, span := tracer.Start(ctx, "store.Save")
	span.SetAttributes(attribute.String("persist.key", key))
	defer span.End()

	start := time.Now()

	doc, err := json.Marshal(value)
	if err != nil {
		persistWritesTotal.WithLabelValues(key, "serialization_error").Inc()
		span.SetStatus(codes.Error, "marshal failed")
		return fmt.Errorf("save %s: %w: %v", key, ErrSerialization, err)
	}

	err = a.db.WithTxn(ctx, func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(key), doc)
	})
	if err != nil {
		persistWritesTotal.WithLabelValues(key, "write_error").Inc()
		span.SetStatus(codes.Error, "write failed")
		return fmt.Errorf("save %s: %w", key, err)
	}

	persistWritesTotal.WithLabelValues(key, "ok").Inc()
	persistWriteDuration.WithLabelValues(key).Observe(time.Since(start).Seconds())
	return nil
}

// load reads the raw document under key. Returns (nil, nil) when absent.
func (a *Adapter) load(ctx context.Context, key string) ([]byte, error) {
	var doc []byte
	err := a.db.WithReadTxn(ctx, func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		doc, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return doc, nil
}

// Load reads the document under key into a value of type T.
//
// Description:
//
//	If the key is absent, returns def unchanged. If the document exists but
//	cannot be decoded as T, the corruption is non-fatal: it is logged, the
//	default is returned, and the next Save overwrites the bad document.
//	Loading twice with no intervening Save yields identical results.
//
// Inputs:
//
//	ctx - Context for cancellation.
//	a - The adapter.
//	key - Document key.
//	def - Value returned when the key is absent or unreadable.
//
// Outputs:
//
//	T - Decoded value or def.
//	error - Non-nil only for storage-level failures (not decode failures).
func Load[T any](ctx context.Context, a *Adapter, key string, def T) (T, error) {
	doc, err := a.load(ctx, key)
	if err != nil {
		return def, err
	}
	if doc == nil {
		return def, nil
	}

	var out T
	if err := json.Unmarshal(doc, &out); err != nil {
		persistCorruptLoadsTotal.WithLabelValues(key).Inc()
		a.logger.Warn("persisted document is corrupt, using default",
			"key", key, "error", err.Error())
		return def, nil
	}
	return out, nil
}
