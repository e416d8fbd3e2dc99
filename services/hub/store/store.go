// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// -----------------------------------------------------------------------------
// Metrics
// -----------------------------------------------------------------------------

var (
	storeMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hearth_store_mutations_total",
		Help: "Entity store mutations by collection and operation",
	}, []string{"collection", "op"})

	storeRecordsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hearth_store_records",
		Help: "Records currently held per collection",
	}, []string{"collection"})
)

// -----------------------------------------------------------------------------
// Entity store
// -----------------------------------------------------------------------------

// Config describes one entity collection.
type Config[T any] struct {
	// Name is the collection name, used for logs and metrics.
	Name string

	// Key is the persistence key. Stable for the life of the deployment;
	// renaming it is a breaking migration.
	Key string

	// ID returns a pointer to the record's id field.
	ID func(*T) *string

	// Defaults, when non-nil, injects server-owned fields on Create
	// (for example a completed flag or a createdBy stamp). Runs after the
	// id is assigned, before the record is inserted.
	Defaults func(*T)

	// Adapter is the write-through persistence layer. Required.
	Adapter *Adapter

	// Logger is optional; defaults to slog.Default().
	Logger *slog.Logger
}

// EntityStore owns one named collection of records and is the single writer
// of the corresponding persistence key.
//
// Every mutation flushes the entire collection through the Adapter before the
// call returns, so readers never observe a partially persisted state. New
// records are prepended (newest first).
//
// Thread Safety: Safe for concurrent use. Mutations are serialized per store
// by an internal mutex; List and Get return copies.
type EntityStore[T any] struct {
	name     string
	key      string
	idOf     func(*T) *string
	defaults func(*T)
	adapter  *Adapter
	logger   *slog.Logger

	mu       sync.RWMutex
	items    []T
	onDelete []func(ctx context.Context, deletedID string)
	subs     []func()
}

// New creates an entity store and loads its persisted collection.
//
// Description:
//
//	Reads the collection from the adapter on startup. An absent or corrupt
//	document yields an empty collection; the first mutation overwrites it.
//
// Inputs:
//
//	ctx - Context for the initial load.
//	cfg - Collection configuration. Name, Key, ID, and Adapter are required.
//
// Outputs:
//
//	*EntityStore[T] - The loaded store.
//	error - Non-nil if configuration is invalid or the initial load fails.
func New[T any](ctx context.Context, cfg Config[T]) (*EntityStore[T], error) {
	if cfg.Adapter == nil {
		return nil, fmt.Errorf("store %q: %w", cfg.Name, ErrNilAdapter)
	}
	if cfg.Name == "" || cfg.Key == "" {
		return nil, fmt.Errorf("store: name and key are required")
	}
	if cfg.ID == nil {
		return nil, fmt.Errorf("store %q: id accessor is required", cfg.Name)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	items, err := Load(ctx, cfg.Adapter, cfg.Key, []T{})
	if err != nil {
		return nil, fmt.Errorf("store %q: initial load: %w", cfg.Name, err)
	}

	s := &EntityStore[T]{
		name:     cfg.Name,
		key:      cfg.Key,
		idOf:     cfg.ID,
		defaults: cfg.Defaults,
		adapter:  cfg.Adapter,
		logger:   cfg.Logger.With("collection", cfg.Name),
		items:    items,
	}
	storeRecordsGauge.WithLabelValues(s.name).Set(float64(len(items)))
	return s, nil
}

// Name returns the collection name.
func (s *EntityStore[T]) Name() string { return s.name }

// List returns a copy of the current collection, newest first.
func (s *EntityStore[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Len returns the number of records in the collection.
func (s *EntityStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Get returns the record with the given id.
//
// Outputs:
//
//	T - The record (zero value on error).
//	error - ErrNotFound if id is absent.
func (s *EntityStore[T]) Get(id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.items {
		if *s.idOf(&s.items[i]) == id {
			return s.items[i], nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%s %q: %w", s.name, id, ErrNotFound)
}

// Create inserts a new record at the head of the collection.
//
// Description:
//
//	Any caller-supplied id is discarded; the store assigns a fresh UUID and
//	re-rolls on the (vanishingly unlikely) collision with an existing record.
//	Server-owned defaults are injected, the record is prepended, and the
//	whole collection is flushed before returning.
//
// Inputs:
//
//	ctx - Context for the persistence write.
//	item - The record to insert. Field validation is the caller's job.
//
// Outputs:
//
//	T - The stored record, with id and defaults applied.
//	error - Non-nil only if the write-through fails.
func (s *EntityStore[T]) Create(ctx context.Context, item T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	for s.containsLocked(id) {
		id = uuid.New().String()
	}
	*s.idOf(&item) = id
	if s.defaults != nil {
		s.defaults(&item)
	}

	next := append([]T{item}, s.items...)
	if err := s.flushLocked(ctx, next); err != nil {
		var zero T
		return zero, err
	}
	s.items = next
	storeMutationsTotal.WithLabelValues(s.name, "create").Inc()
	storeRecordsGauge.WithLabelValues(s.name).Set(float64(len(s.items)))
	s.logger.Debug("record created", "id", id)
	s.notifyLocked()
	return item, nil
}

// Update applies a mutation to the record with the given id.
//
// Description:
//
//	The mutate function receives a pointer to a copy of the record and
//	edits it in place; this is the Go shape of a partial patch. The id
//	field is restored afterwards so a patch can never re-identify a record.
//
// Inputs:
//
//	ctx - Context for the persistence write.
//	id - Target record id.
//	mutate - Applied to a copy of the record under the store lock. Must not
//	         call back into the store.
//
// Outputs:
//
//	T - The updated record.
//	error - ErrNotFound if id is absent, or the write-through error.
func (s *EntityStore[T]) Update(ctx context.Context, id string, mutate func(*T)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	idx := s.indexLocked(id)
	if idx < 0 {
		return zero, fmt.Errorf("%s %q: %w", s.name, id, ErrNotFound)
	}

	updated := s.items[idx]
	mutate(&updated)
	*s.idOf(&updated) = id

	next := slices.Clone(s.items)
	next[idx] = updated
	if err := s.flushLocked(ctx, next); err != nil {
		return zero, err
	}
	s.items = next
	storeMutationsTotal.WithLabelValues(s.name, "update").Inc()
	s.notifyLocked()
	return updated, nil
}

// Toggle inverts a boolean field of the record with the given id.
//
// Convenience wrapper over Update for completion flags and checklist items.
//
// Inputs:
//
//	ctx - Context for the persistence write.
//	id - Target record id.
//	field - Returns a pointer to the boolean to invert.
//
// Outputs:
//
//	T - The updated record.
//	error - ErrNotFound if id is absent, or the write-through error.
func (s *EntityStore[T]) Toggle(ctx context.Context, id string, field func(*T) *bool) (T, error) {
	return s.Update(ctx, id, func(item *T) {
		b := field(item)
		*b = !*b
	})
}

// Delete removes the record with the given id.
//
// Description:
//
//	Removes the record, flushes the collection, then fires registered
//	cascade callbacks so dependent stores can null their references.
//	The store applies no confirmation gate; irreversible-delete prompts
//	belong to the caller.
//
// Inputs:
//
//	ctx - Context for the persistence write and cascades.
//	id - Target record id.
//
// Outputs:
//
//	error - ErrNotFound if id is absent, or the write-through error.
func (s *EntityStore[T]) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%s %q: %w", s.name, id, ErrNotFound)
	}

	next := slices.Delete(slices.Clone(s.items), idx, idx+1)
	if err := s.flushLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.items = next
	storeMutationsTotal.WithLabelValues(s.name, "delete").Inc()
	storeRecordsGauge.WithLabelValues(s.name).Set(float64(len(s.items)))
	cascades := slices.Clone(s.onDelete)
	s.notifyLocked()
	s.mu.Unlock()

	// Cascades run outside the lock: they mutate other stores, and those
	// stores may hold subscriptions pointing back here.
	for _, fn := range cascades {
		fn(ctx, id)
	}
	return nil
}

// OnDelete registers a cascade callback fired after a record is deleted.
//
// The callback receives the deleted id and must clear any references to it
// in dependent collections. Dangling references must never persist silently.
func (s *EntityStore[T]) OnDelete(fn func(ctx context.Context, deletedID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDelete = append(s.onDelete, fn)
}

// Subscribe registers a callback fired after every successful mutation.
//
// Callbacks run while the store lock is released only for Delete cascades;
// for other mutations they run under the lock, so they must be cheap and
// must not call back into this store. Used for mutation-triggered feeds.
func (s *EntityStore[T]) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *EntityStore[T]) notifyLocked() {
	for _, fn := range s.subs {
		fn()
	}
}

func (s *EntityStore[T]) indexLocked(id string) int {
	for i := range s.items {
		if *s.idOf(&s.items[i]) == id {
			return i
		}
	}
	return -1
}

func (s *EntityStore[T]) containsLocked(id string) bool {
	return s.indexLocked(id) >= 0
}

// flushLocked writes the whole candidate collection through the adapter.
// The in-memory slice is only swapped in by the caller after this succeeds.
func (s *EntityStore[T]) flushLocked(ctx context.Context, items []T) error {
	if err := s.adapter.Save(ctx, s.key, items); err != nil {
		s.logger.Error("write-through failed", "error", err.Error())
		return err
	}
	return nil
}
