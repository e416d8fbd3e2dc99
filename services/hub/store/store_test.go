// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthlabs/hearth/services/hub/storage/badger"
)

type note struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	adapter, err := NewAdapter(db, nil)
	require.NoError(t, err)
	return adapter
}

func newNoteStore(t *testing.T, adapter *Adapter) *EntityStore[note] {
	t.Helper()
	s, err := New(context.Background(), Config[note]{
		Name:    "notes",
		Key:     "test/notes",
		ID:      func(n *note) *string { return &n.ID },
		Adapter: adapter,
	})
	require.NoError(t, err)
	return s
}

func TestNewValidatesConfig(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	_, err := New(ctx, Config[note]{Name: "notes", Key: "k", ID: func(n *note) *string { return &n.ID }})
	assert.ErrorIs(t, err, ErrNilAdapter)

	_, err = New(ctx, Config[note]{Key: "k", ID: func(n *note) *string { return &n.ID }, Adapter: adapter})
	assert.Error(t, err)

	_, err = New(ctx, Config[note]{Name: "notes", Key: "k", Adapter: adapter})
	assert.Error(t, err)
}

func TestCreateAssignsFreshID(t *testing.T) {
	s := newNoteStore(t, newTestAdapter(t))
	ctx := context.Background()

	created, err := s.Create(ctx, note{ID: "caller-supplied", Title: "buy milk"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "caller-supplied", created.ID)
	assert.Equal(t, "buy milk", created.Title)

	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCreatePrependsNewestFirst(t *testing.T) {
	s := newNoteStore(t, newTestAdapter(t))
	ctx := context.Background()

	first, err := s.Create(ctx, note{Title: "first"})
	require.NoError(t, err)
	second, err := s.Create(ctx, note{Title: "second"})
	require.NoError(t, err)

	items := s.List()
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}

func TestRapidCreatesGetDistinctIDs(t *testing.T) {
	s := newNoteStore(t, newTestAdapter(t))
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := s.Create(ctx, note{Title: "concurrent"})
			assert.NoError(t, err)
			ids <- created.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, s.Len())
}

func TestUpdateMutatesAndPreservesID(t *testing.T) {
	s := newNoteStore(t, newTestAdapter(t))
	ctx := context.Background()

	created, err := s.Create(ctx, note{Title: "draft"})
	require.NoError(t, err)

	updated, err := s.Update(ctx, created.ID, func(n *note) {
		n.Title = "final"
		n.ID = "hijack-attempt"
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "final", updated.Title)

	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Title)
}

func TestUpdateUnknownIDReturnsNotFound(t *testing.T) {
	s := newNoteStore(t, newTestAdapter(t))

	_, err := s.Update(context.Background(), "missing", func(n *note) { n.Title = "x" })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggle(t *testing.T) {
	s := newNoteStore(t, newTestAdapter(t))
	ctx := context.Background()

	created, err := s.Create(ctx, note{Title: "task"})
	require.NoError(t, err)
	require.False(t, created.Done)

	toggled, err := s.Toggle(ctx, created.ID, func(n *note) *bool { return &n.Done })
	require.NoError(t, err)
	assert.True(t, toggled.Done)

	back, err := s.Toggle(ctx, created.ID, func(n *note) *bool { return &n.Done })
	require.NoError(t, err)
	assert.False(t, back.Done)
}

func TestDelete(t *testing.T) {
	s := newNoteStore(t, newTestAdapter(t))
	ctx := context.Background()

	created, err := s.Create(ctx, note{Title: "gone"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, created.ID))
	assert.Equal(t, 0, s.Len())

	_, err = s.Get(created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, created.ID), ErrNotFound)
}

func TestDeleteFiresCascades(t *testing.T) {
	s := newNoteStore(t, newTestAdapter(t))
	ctx := context.Background()

	var deletedIDs []string
	s.OnDelete(func(ctx context.Context, deletedID string) {
		deletedIDs = append(deletedIDs, deletedID)
	})

	created, err := s.Create(ctx, note{Title: "watched"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, created.ID))

	assert.Equal(t, []string{created.ID}, deletedIDs)
}

func TestSubscribeFiresOnEveryMutation(t *testing.T) {
	s := newNoteStore(t, newTestAdapter(t))
	ctx := context.Background()

	var fired int
	s.Subscribe(func() { fired++ })

	created, err := s.Create(ctx, note{Title: "a"})
	require.NoError(t, err)
	_, err = s.Update(ctx, created.ID, func(n *note) { n.Title = "b" })
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, created.ID))

	assert.Equal(t, 3, fired)
}

func TestDefaultsInjectedOnCreate(t *testing.T) {
	adapter := newTestAdapter(t)
	s, err := New(context.Background(), Config[note]{
		Name:     "notes",
		Key:      "test/defaulted",
		ID:       func(n *note) *string { return &n.ID },
		Defaults: func(n *note) { n.Done = true },
		Adapter:  adapter,
	})
	require.NoError(t, err)

	created, err := s.Create(context.Background(), note{Title: "x", Done: false})
	require.NoError(t, err)
	assert.True(t, created.Done)
}

func TestWriteThroughSurvivesReload(t *testing.T) {
	adapter := newTestAdapter(t)
	ctx := context.Background()

	s := newNoteStore(t, adapter)
	a, err := s.Create(ctx, note{Title: "keep"})
	require.NoError(t, err)
	b, err := s.Create(ctx, note{Title: "drop"})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, b.ID))

	// A second store over the same key sees exactly the flushed state.
	reloaded := newNoteStore(t, adapter)
	items := reloaded.List()
	require.Len(t, items, 1)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, "keep", items[0].Title)
}

func TestListReturnsCopy(t *testing.T) {
	s := newNoteStore(t, newTestAdapter(t))
	ctx := context.Background()

	created, err := s.Create(ctx, note{Title: "original"})
	require.NoError(t, err)

	items := s.List()
	items[0].Title = "mutated copy"

	got, err := s.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)
}
