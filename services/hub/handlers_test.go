// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthlabs/hearth/services/hub/domain"
	"github.com/hearthlabs/hearth/services/hub/llm"
	"github.com/hearthlabs/hearth/services/hub/storage/badger"
	"github.com/hearthlabs/hearth/services/hub/store"
	"github.com/hearthlabs/hearth/services/hub/suggest"
)

// cannedClient returns a fixed response for every feed call.
type cannedClient struct {
	response string
}

func (c *cannedClient) Generate(ctx context.Context, prompt string, params llm.GenerationParams) (string, error) {
	return c.response, nil
}

func newTestRouter(t *testing.T, client llm.Client) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := badger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	adapter, err := store.NewAdapter(db, nil)
	require.NoError(t, err)

	svc, err := NewService(context.Background(), ServiceConfig{
		Adapter: adapter,
		Client:  client,
	})
	require.NoError(t, err)

	router := gin.New()
	v1 := router.Group("/v1")
	RegisterRoutes(v1, NewHandlers(svc))
	return router, svc
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthAndReady(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ServiceVersion)

	w = doJSON(t, router, http.MethodGet, "/v1/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMemberCRUDLifecycle(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/members",
		gin.H{"name": "Ada", "role": "parent"})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody[domain.FamilyMember](t, w)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Ada", created.Name)

	w = doJSON(t, router, http.MethodGet, "/v1/members", nil)
	require.Equal(t, http.StatusOK, w.Code)
	members := decodeBody[[]domain.FamilyMember](t, w)
	require.Len(t, members, 1)

	w = doJSON(t, router, http.MethodPut, "/v1/members/"+created.ID,
		gin.H{"name": "Ada L.", "role": "parent"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decodeBody[domain.FamilyMember](t, w)
	assert.Equal(t, "Ada L.", updated.Name)
	assert.Equal(t, created.ID, updated.ID)

	w = doJSON(t, router, http.MethodDelete, "/v1/members/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/v1/members/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateRejectsMissingRequiredField(t *testing.T) {
	router, svc := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/members", gin.H{"role": "parent"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, svc.Collections.Members.Len(), "invalid input must not reach the store")
}

func TestUpdateUnknownIDReturns404(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPut, "/v1/members/nope", gin.H{"name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReminderToggleEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/reminders",
		gin.H{"title": "Evening meds", "completed": true})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeBody[domain.CareReminder](t, w)
	assert.False(t, created.Completed, "server owns the completed flag on create")

	w = doJSON(t, router, http.MethodPost, "/v1/reminders/"+created.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	toggled := decodeBody[domain.CareReminder](t, w)
	assert.True(t, toggled.Completed)
}

func TestListItemLifecycle(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/lists", gin.H{"title": "Groceries"})
	require.Equal(t, http.StatusCreated, w.Code)
	list := decodeBody[domain.SharedList](t, w)

	w = doJSON(t, router, http.MethodPost, "/v1/lists/"+list.ID+"/items", gin.H{"text": "milk"})
	require.Equal(t, http.StatusOK, w.Code)
	list = decodeBody[domain.SharedList](t, w)
	require.Len(t, list.Items, 1)
	item := list.Items[0]
	assert.NotEmpty(t, item.ID)
	assert.False(t, item.Completed)

	w = doJSON(t, router, http.MethodPost, "/v1/lists/"+list.ID+"/items/"+item.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decodeBody[domain.SharedList](t, w)
	assert.True(t, list.Items[0].Completed)

	w = doJSON(t, router, http.MethodDelete, "/v1/lists/"+list.ID+"/items/"+item.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list = decodeBody[domain.SharedList](t, w)
	assert.Empty(t, list.Items)

	w = doJSON(t, router, http.MethodPost, "/v1/lists/"+list.ID+"/items/"+item.ID+"/toggle", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListItemMissPerformsNoWrite(t *testing.T) {
	router, svc := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/lists", gin.H{"title": "Groceries"})
	require.Equal(t, http.StatusCreated, w.Code)
	list := decodeBody[domain.SharedList](t, w)

	writes := 0
	svc.Collections.Lists.Subscribe(func() { writes++ })

	w = doJSON(t, router, http.MethodPost, "/v1/lists/"+list.ID+"/items/no-such-item/toggle", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/v1/lists/"+list.ID+"/items/no-such-item", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Zero(t, writes, "a miss must not flush the list")
}

func TestRecipeDeleteCascadesOverHTTP(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/v1/recipes", gin.H{"title": "Soup"})
	require.Equal(t, http.StatusCreated, w.Code)
	recipe := decodeBody[domain.Recipe](t, w)

	w = doJSON(t, router, http.MethodPost, "/v1/mealslots",
		gin.H{"date": "2026-09-01", "meal": "dinner", "recipeId": recipe.ID})
	require.Equal(t, http.StatusCreated, w.Code)
	slot := decodeBody[domain.MealSlot](t, w)

	w = doJSON(t, router, http.MethodDelete, "/v1/recipes/"+recipe.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/mealslots", nil)
	require.Equal(t, http.StatusOK, w.Code)
	slots := decodeBody[[]domain.MealSlot](t, w)
	require.Len(t, slots, 1)
	assert.Equal(t, slot.ID, slots[0].ID)
	assert.Empty(t, slots[0].RecipeID)
}

func TestFeedStateEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodGet, "/v1/suggestions/advisory", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decodeBody[suggest.State](t, w)
	assert.Equal(t, suggest.FeedAdvisory, state.Feed)
	assert.Equal(t, suggest.StatusIdle, state.Status)

	w = doJSON(t, router, http.MethodGet, "/v1/suggestions/no_such_feed", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedRefreshWithoutClientReturnsErrorState(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	// The pipeline error is recovered into feed state; HTTP stays 200.
	w := doJSON(t, router, http.MethodPost, "/v1/suggestions/advisory/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decodeBody[suggest.State](t, w)
	assert.Equal(t, suggest.StatusError, state.Status)
	assert.NotEmpty(t, state.Error)
}

func TestFeedRefreshWithTypedNilClientReportsNotConfigured(t *testing.T) {
	// A nil *OpenAIClient assigned into the interface field is non-nil as
	// an interface value; the pipeline must still treat it as missing
	// instead of calling through the nil receiver.
	router, svc := newTestRouter(t, (*llm.OpenAIClient)(nil))

	err := svc.Feeds.Advisory.Refresh(context.Background())
	require.ErrorIs(t, err, suggest.ErrNotConfigured)

	w := doJSON(t, router, http.MethodPost, "/v1/suggestions/advisory/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decodeBody[suggest.State](t, w)
	assert.Equal(t, suggest.StatusError, state.Status)
	assert.Contains(t, state.Error, suggest.ErrNotConfigured.Error())
}

func TestFeedRefreshAndItemRemoval(t *testing.T) {
	client := &cannedClient{response: `[{"title":"Tip one"},{"title":"Tip two"}]`}
	router, svc := newTestRouter(t, client)

	w := doJSON(t, router, http.MethodPost, "/v1/suggestions/advisory/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decodeBody[suggest.State](t, w)
	require.Equal(t, suggest.StatusSuccess, state.Status)

	items := svc.Feeds.Advisory.Items()
	require.Len(t, items, 2)

	w = doJSON(t, router, http.MethodPost,
		"/v1/suggestions/advisory/items/"+items[0].ID+"/accept", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodPost,
		"/v1/suggestions/advisory/items/"+items[0].ID+"/decline", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "already removed")

	require.Len(t, svc.Feeds.Advisory.Items(), 1)
}

func TestRefreshAllEndpoint(t *testing.T) {
	// Every feed decodes []; all five succeed with empty item lists.
	router, _ := newTestRouter(t, &cannedClient{response: "[]"})

	w := doJSON(t, router, http.MethodPost, "/v1/suggestions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	states := decodeBody[[]suggest.State](t, w)
	require.Len(t, states, 5)
	for _, s := range states {
		assert.Equal(t, suggest.StatusSuccess, s.Status, s.Feed)
	}
}

func TestWellbeingEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodGet, "/v1/wellbeing", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report struct {
		Score   int `json:"score"`
		Factors []struct {
			Name string `json:"name"`
		} `json:"factors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.GreaterOrEqual(t, report.Score, 0)
	assert.LessOrEqual(t, report.Score, 100)
	assert.Len(t, report.Factors, 5)
}
