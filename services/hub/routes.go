// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package hub

import (
	"github.com/gin-gonic/gin"

	"github.com/hearthlabs/hearth/services/hub/domain"
)

// RegisterRoutes registers all hub routes with the router group.
//
// Description:
//
//	Registers /v1/* endpoints: CRUD for every domain collection, checklist
//	item operations, suggestion feed state/refresh/accept/decline, the
//	wellbeing report, and health probes.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Collection Endpoints (same shape for each collection):
//
//	GET    /v1/{collection} - List records, newest first
//	POST   /v1/{collection} - Create (400 before the store on bad input)
//	PUT    /v1/{collection}/:id - Update mutable fields
//	DELETE /v1/{collection}/:id - Delete (cascades fire)
//
// Extras:
//
//	POST   /v1/reminders/:id/toggle - Flip completion
//	POST   /v1/lists/:id/items - Add checklist item
//	POST   /v1/lists/:id/items/:itemId/toggle - Flip checklist item
//	DELETE /v1/lists/:id/items/:itemId - Remove checklist item
//
// Suggestion Endpoints:
//
//	GET    /v1/suggestions/:feed - Feed state (status, items, error)
//	POST   /v1/suggestions/:feed/refresh - Trigger one run
//	POST   /v1/suggestions - Trigger every feed
//	POST   /v1/suggestions/:feed/items/:itemId/accept - Remove item
//	POST   /v1/suggestions/:feed/items/:itemId/decline - Remove item
//
// Other:
//
//	GET /v1/wellbeing - Composite score and factor breakdown
//	GET /v1/health - Liveness
//	GET /v1/ready - Readiness
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	c := handlers.svc.Collections

	registerCRUD(rg, "/members", c.Members, func(dst *domain.FamilyMember, src domain.FamilyMember) {
		dst.Name = src.Name
		dst.Role = src.Role
		dst.BirthDate = src.BirthDate
		dst.AvatarHue = src.AvatarHue
	})
	registerCRUD(rg, "/events", c.Events, func(dst *domain.CalendarEvent, src domain.CalendarEvent) {
		dst.Title = src.Title
		dst.Start = src.Start
		dst.End = src.End
		dst.Location = src.Location
		dst.MemberIDs = src.MemberIDs
		dst.Category = src.Category
	})
	registerCRUD(rg, "/lists", c.Lists, func(dst *domain.SharedList, src domain.SharedList) {
		dst.Title = src.Title
	})
	registerCRUD(rg, "/milestones", c.Milestones, func(dst *domain.Milestone, src domain.Milestone) {
		dst.ChildMemberID = src.ChildMemberID
		dst.Title = src.Title
		dst.Description = src.Description
		dst.Date = src.Date
	})
	registerCRUD(rg, "/reminders", c.Reminders, func(dst *domain.CareReminder, src domain.CareReminder) {
		dst.Title = src.Title
		dst.ElderMemberID = src.ElderMemberID
		dst.ReminderType = src.ReminderType
		dst.DateTime = src.DateTime
		dst.Recurring = src.Recurring
	})
	registerCRUD(rg, "/recipes", c.Recipes, func(dst *domain.Recipe, src domain.Recipe) {
		dst.Title = src.Title
		dst.Ingredients = src.Ingredients
		dst.Steps = src.Steps
		dst.Tags = src.Tags
		dst.PrepMinutes = src.PrepMinutes
	})
	registerCRUD(rg, "/mealslots", c.MealSlots, func(dst *domain.MealSlot, src domain.MealSlot) {
		dst.Date = src.Date
		dst.Meal = src.Meal
		dst.RecipeID = src.RecipeID
		dst.Note = src.Note
	})
	registerCRUD(rg, "/albums", c.Albums, func(dst *domain.Album, src domain.Album) {
		dst.Title = src.Title
		dst.CoverURL = src.CoverURL
		dst.PhotoCount = src.PhotoCount
	})
	registerCRUD(rg, "/bulletins", c.Bulletins, func(dst *domain.BulletinPost, src domain.BulletinPost) {
		dst.Text = src.Text
		dst.Pinned = src.Pinned
	})
	registerCRUD(rg, "/sleeplogs", c.SleepLogs, func(dst *domain.SleepLog, src domain.SleepLog) {
		dst.ChildMemberID = src.ChildMemberID
		dst.Date = src.Date
		dst.Hours = src.Hours
		dst.Quality = src.Quality
	})
	registerCRUD(rg, "/nutritionlogs", c.NutritionLogs, func(dst *domain.NutritionLog, src domain.NutritionLog) {
		dst.ChildMemberID = src.ChildMemberID
		dst.Date = src.Date
		dst.Meal = src.Meal
		dst.Description = src.Description
		dst.Healthy = src.Healthy
	})
	registerCRUD(rg, "/healthpoints", c.HealthPoints, func(dst *domain.HealthPoint, src domain.HealthPoint) {
		dst.MemberID = src.MemberID
		dst.Kind = src.Kind
		dst.Value = src.Value
		dst.Note = src.Note
		dst.Date = src.Date
	})

	rg.POST("/reminders/:id/toggle", handlers.HandleToggleReminder)
	rg.POST("/lists/:id/items", handlers.HandleAddListItem)
	rg.POST("/lists/:id/items/:itemId/toggle", handlers.HandleToggleListItem)
	rg.DELETE("/lists/:id/items/:itemId", handlers.HandleRemoveListItem)

	suggestions := rg.Group("/suggestions")
	{
		// POST on the group root refreshes every feed. A static /refresh
		// sibling would collide with the :feed wildcard in gin's tree.
		suggestions.POST("", handlers.HandleRefreshAll)
		suggestions.GET("/:feed", handlers.HandleFeedState)
		suggestions.POST("/:feed/refresh", handlers.HandleFeedRefresh)
		suggestions.POST("/:feed/items/:itemId/accept", handlers.HandleFeedItemRemove)
		suggestions.POST("/:feed/items/:itemId/decline", handlers.HandleFeedItemRemove)
	}

	rg.GET("/wellbeing", handlers.HandleWellbeing)
	rg.GET("/health", handlers.HandleHealth)
	rg.GET("/ready", handlers.HandleReady)
}
