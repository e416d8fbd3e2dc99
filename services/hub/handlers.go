// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package hub

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hearthlabs/hearth/services/hub/domain"
	"github.com/hearthlabs/hearth/services/hub/store"
	"github.com/hearthlabs/hearth/services/hub/suggest"
)

// Handlers contains the HTTP handlers for the hub service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// writeStoreError maps store errors onto HTTP statuses.
//
// NotFound surfaces as 404 for user-facing messaging; anything else is a
// persistence failure and reports 500.
func writeStoreError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// -----------------------------------------------------------------------------
// Generic CRUD handlers
// -----------------------------------------------------------------------------

// crudHandlers adapts one entity store to the HTTP surface.
//
// Binding validation (required fields) runs before the store is touched, so
// a validation failure is a 400 and never reaches persistence. The apply
// function copies caller-mutable fields on update; ids and creation stamps
// stay server-owned.
type crudHandlers[T any] struct {
	store *store.EntityStore[T]
	apply func(dst *T, src T)
}

func (h crudHandlers[T]) list(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.List())
}

func (h crudHandlers[T]) create(c *gin.Context) {
	var in T
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.store.Create(c.Request.Context(), in)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h crudHandlers[T]) update(c *gin.Context) {
	var in T
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.store.Update(c.Request.Context(), c.Param("id"), func(dst *T) {
		h.apply(dst, in)
	})
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h crudHandlers[T]) remove(c *gin.Context) {
	// Deletion is unconditional here; the confirmation prompt is the
	// caller's responsibility.
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func registerCRUD[T any](rg *gin.RouterGroup, path string, s *store.EntityStore[T], apply func(dst *T, src T)) {
	h := crudHandlers[T]{store: s, apply: apply}
	rg.GET(path, h.list)
	rg.POST(path, h.create)
	rg.PUT(path+"/:id", h.update)
	rg.DELETE(path+"/:id", h.remove)
}

// -----------------------------------------------------------------------------
// Reminder and list-item toggles
// -----------------------------------------------------------------------------

// HandleToggleReminder flips a care reminder's completed flag.
func (h *Handlers) HandleToggleReminder(c *gin.Context) {
	rec, err := h.svc.Collections.Reminders.Toggle(c.Request.Context(), c.Param("id"),
		func(r *domain.CareReminder) *bool { return &r.Completed })
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type addListItemRequest struct {
	Text string `json:"text" binding:"required"`
}

// HandleAddListItem appends an item to a shared list.
func (h *Handlers) HandleAddListItem(c *gin.Context) {
	var req addListItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := h.svc.Collections.Lists.Update(c.Request.Context(), c.Param("id"),
		func(l *domain.SharedList) {
			l.Items = append(l.Items, domain.ListItem{
				ID:   uuid.New().String(),
				Text: req.Text,
			})
		})
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// HandleToggleListItem flips one checklist item's completed flag.
//
// Membership is checked before the update so a miss answers 404 without
// flushing an unchanged list through persistence.
func (h *Handlers) HandleToggleListItem(c *gin.Context) {
	itemID := c.Param("itemId")
	list, err := h.svc.Collections.Lists.Get(c.Param("id"))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	if !listHasItem(list, itemID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "list item not found"})
		return
	}
	rec, err := h.svc.Collections.Lists.Update(c.Request.Context(), c.Param("id"),
		func(l *domain.SharedList) {
			for i := range l.Items {
				if l.Items[i].ID == itemID {
					l.Items[i].Completed = !l.Items[i].Completed
					return
				}
			}
		})
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// HandleRemoveListItem removes one checklist item. Same miss handling as
// HandleToggleListItem: no write on 404.
func (h *Handlers) HandleRemoveListItem(c *gin.Context) {
	itemID := c.Param("itemId")
	list, err := h.svc.Collections.Lists.Get(c.Param("id"))
	if err != nil {
		writeStoreError(c, err)
		return
	}
	if !listHasItem(list, itemID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "list item not found"})
		return
	}
	rec, err := h.svc.Collections.Lists.Update(c.Request.Context(), c.Param("id"),
		func(l *domain.SharedList) {
			for i := range l.Items {
				if l.Items[i].ID == itemID {
					l.Items = append(l.Items[:i], l.Items[i+1:]...)
					return
				}
			}
		})
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// listHasItem reports whether the list holds an item with the given id.
func listHasItem(l domain.SharedList, itemID string) bool {
	for _, item := range l.Items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// Suggestion feeds
// -----------------------------------------------------------------------------

func (h *Handlers) feed(c *gin.Context) (suggest.Feed, bool) {
	feed, ok := h.svc.Feeds.Get(c.Param("feed"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown feed"})
		return nil, false
	}
	return feed, true
}

// HandleFeedState returns a feed's status and published items.
func (h *Handlers) HandleFeedState(c *gin.Context) {
	feed, ok := h.feed(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, feed.State())
}

// HandleFeedRefresh triggers one feed run and returns the resulting state.
//
// Pipeline failures are recovered into the feed's error status, so this
// endpoint returns 200 with that state rather than an HTTP error; the UI
// renders the retry affordance from the state itself.
func (h *Handlers) HandleFeedRefresh(c *gin.Context) {
	feed, ok := h.feed(c)
	if !ok {
		return
	}
	_ = feed.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, feed.State())
}

// HandleRefreshAll triggers every feed and returns all states.
func (h *Handlers) HandleRefreshAll(c *gin.Context) {
	_ = h.svc.RefreshAllFeeds(c.Request.Context())
	states := make([]suggest.State, 0)
	for _, feed := range h.svc.Feeds.All() {
		states = append(states, feed.State())
	}
	c.JSON(http.StatusOK, states)
}

// HandleFeedItemRemove accepts or declines one suggestion (both remove it
// from the published set).
func (h *Handlers) HandleFeedItemRemove(c *gin.Context) {
	feed, ok := h.feed(c)
	if !ok {
		return
	}
	if !feed.Remove(c.Param("itemId")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "suggestion not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// -----------------------------------------------------------------------------
// Wellbeing and health
// -----------------------------------------------------------------------------

// HandleWellbeing recomputes and returns the wellbeing report.
func (h *Handlers) HandleWellbeing(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Wellbeing.Compute())
}

// HandleHealth reports liveness.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": ServiceVersion})
}

// HandleReady reports readiness. Collections load at startup, so a serving
// process is ready by construction.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ready": true})
}
