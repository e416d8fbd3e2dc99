// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hearthlabs/hearth/services/hub/store"
)

// Persistence keys, one per collection. Stable: renaming one is a breaking
// migration for existing households.
const (
	KeyMembers       = "hearth/members"
	KeyEvents        = "hearth/events"
	KeyLists         = "hearth/lists"
	KeyMilestones    = "hearth/milestones"
	KeyReminders     = "hearth/care_reminders"
	KeyRecipes       = "hearth/recipes"
	KeyMealSlots     = "hearth/meal_slots"
	KeyAlbums        = "hearth/albums"
	KeyBulletins     = "hearth/bulletin_posts"
	KeySleepLogs     = "hearth/sleep_logs"
	KeyNutritionLogs = "hearth/nutrition_logs"
	KeyHealthPoints  = "hearth/health_points"
)

// Collections is the full wired set of Hearth entity stores.
//
// Construction registers every cascade so that deleting a referenced record
// clears the referencing fields in dependent collections.
type Collections struct {
	Members       *store.EntityStore[FamilyMember]
	Events        *store.EntityStore[CalendarEvent]
	Lists         *store.EntityStore[SharedList]
	Milestones    *store.EntityStore[Milestone]
	Reminders     *store.EntityStore[CareReminder]
	Recipes       *store.EntityStore[Recipe]
	MealSlots     *store.EntityStore[MealSlot]
	Albums        *store.EntityStore[Album]
	Bulletins     *store.EntityStore[BulletinPost]
	SleepLogs     *store.EntityStore[SleepLog]
	NutritionLogs *store.EntityStore[NutritionLog]
	HealthPoints  *store.EntityStore[HealthPoint]
}

// NewCollections loads every collection from the adapter and wires cascades.
//
// Inputs:
//
//	ctx - Context for the initial loads.
//	adapter - Shared persistence adapter. Each store writes only its own key.
//	logger - Optional logger, defaults to slog.Default().
//
// Outputs:
//
//	*Collections - All stores, loaded and cascade-wired.
//	error - Non-nil if any initial load fails.
func NewCollections(ctx context.Context, adapter *store.Adapter, logger *slog.Logger) (*Collections, error) {
	if logger == nil {
		logger = slog.Default()
	}

	stampCreated := func(at *time.Time) {
		if at.IsZero() {
			*at = time.Now().UTC()
		}
	}

	c := &Collections{}
	var err error

	c.Members, err = store.New(ctx, store.Config[FamilyMember]{
		Name: "members", Key: KeyMembers, Adapter: adapter, Logger: logger,
		ID:       func(m *FamilyMember) *string { return &m.ID },
		Defaults: func(m *FamilyMember) { stampCreated(&m.CreatedAt) },
	})
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}

	c.Events, err = store.New(ctx, store.Config[CalendarEvent]{
		Name: "events", Key: KeyEvents, Adapter: adapter, Logger: logger,
		ID:       func(e *CalendarEvent) *string { return &e.ID },
		Defaults: func(e *CalendarEvent) { stampCreated(&e.CreatedAt) },
	})
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}

	c.Lists, err = store.New(ctx, store.Config[SharedList]{
		Name: "lists", Key: KeyLists, Adapter: adapter, Logger: logger,
		ID: func(l *SharedList) *string { return &l.ID },
		Defaults: func(l *SharedList) {
			stampCreated(&l.CreatedAt)
			if l.Items == nil {
				l.Items = []ListItem{}
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}

	c.Milestones, err = store.New(ctx, store.Config[Milestone]{
		Name: "milestones", Key: KeyMilestones, Adapter: adapter, Logger: logger,
		ID:       func(m *Milestone) *string { return &m.ID },
		Defaults: func(m *Milestone) { stampCreated(&m.CreatedAt) },
	})
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}

	c.Reminders, err = store.New(ctx, store.Config[CareReminder]{
		Name: "care_reminders", Key: KeyReminders, Adapter: adapter, Logger: logger,
		ID: func(r *CareReminder) *string { return &r.ID },
		Defaults: func(r *CareReminder) {
			stampCreated(&r.CreatedAt)
			// Reminders always start incomplete, whatever the caller sent.
			r.Completed = false
		},
	})
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}

	c.Recipes, err = store.New(ctx, store.Config[Recipe]{
		Name: "recipes", Key: KeyRecipes, Adapter: adapter, Logger: logger,
		ID:       func(r *Recipe) *string { return &r.ID },
		Defaults: func(r *Recipe) { stampCreated(&r.CreatedAt) },
	})
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}

	c.MealSlots, err = store.New(ctx, store.Config[MealSlot]{
		Name: "meal_slots", Key: KeyMealSlots, Adapter: adapter, Logger: logger,
		ID:       func(m *MealSlot) *string { return &m.ID },
		Defaults: func(m *MealSlot) { stampCreated(&m.CreatedAt) },
	})
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}

	c.Albums, err = store.New(ctx, store.Config[Album]{
		Name: "albums", Key: KeyAlbums, Adapter: adapter, Logger: logger,
		ID:       func(a *Album) *string { return &a.ID },
		Defaults: func(a *Album) { stampCreated(&a.CreatedAt) },
	})
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}

	c.Bulletins, err = store.New(ctx, store.Config[BulletinPost]{
		Name: "bulletin_posts", Key: KeyBulletins, Adapter: adapter, Logger: logger,
		ID:       func(b *BulletinPost) *string { return &b.ID },
		Defaults: func(b *BulletinPost) { stampCreated(&b.CreatedAt) },
	})
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}

	c.SleepLogs, err = store.New(ctx, store.Config[SleepLog]{
		Name: "sleep_logs", Key: KeySleepLogs, Adapter: adapter, Logger: logger,
		ID:       func(s *SleepLog) *string { return &s.ID },
		Defaults: func(s *SleepLog) { stampCreated(&s.CreatedAt) },
	})
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}

	c.NutritionLogs, err = store.New(ctx, store.Config[NutritionLog]{
		Name: "nutrition_logs", Key: KeyNutritionLogs, Adapter: adapter, Logger: logger,
		ID:       func(n *NutritionLog) *string { return &n.ID },
		Defaults: func(n *NutritionLog) { stampCreated(&n.CreatedAt) },
	})
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}

	c.HealthPoints, err = store.New(ctx, store.Config[HealthPoint]{
		Name: "health_points", Key: KeyHealthPoints, Adapter: adapter, Logger: logger,
		ID:       func(h *HealthPoint) *string { return &h.ID },
		Defaults: func(h *HealthPoint) { stampCreated(&h.CreatedAt) },
	})
	if err != nil {
		return nil, fmt.Errorf("collections: %w", err)
	}

	c.wireCascades(logger)
	return c, nil
}

// wireCascades registers every cross-reference cleanup. A deleted record must
// never leave a dangling id behind in a dependent collection.
func (c *Collections) wireCascades(logger *slog.Logger) {
	// Recipe -> meal slots referencing it.
	c.Recipes.OnDelete(func(ctx context.Context, recipeID string) {
		for _, slot := range c.MealSlots.List() {
			if slot.RecipeID != recipeID {
				continue
			}
			_, err := c.MealSlots.Update(ctx, slot.ID, func(m *MealSlot) {
				m.RecipeID = ""
			})
			if err != nil {
				logger.Error("cascade failed", "collection", "meal_slots", "error", err.Error())
			}
		}
	})

	// Member -> everything that names a member id.
	c.Members.OnDelete(func(ctx context.Context, memberID string) {
		for _, r := range c.Reminders.List() {
			if r.ElderMemberID == memberID {
				if _, err := c.Reminders.Update(ctx, r.ID, func(cr *CareReminder) {
					cr.ElderMemberID = ""
				}); err != nil {
					logger.Error("cascade failed", "collection", "care_reminders", "error", err.Error())
				}
			}
		}
		for _, m := range c.Milestones.List() {
			if m.ChildMemberID == memberID {
				if _, err := c.Milestones.Update(ctx, m.ID, func(ms *Milestone) {
					ms.ChildMemberID = ""
				}); err != nil {
					logger.Error("cascade failed", "collection", "milestones", "error", err.Error())
				}
			}
		}
		for _, s := range c.SleepLogs.List() {
			if s.ChildMemberID == memberID {
				if _, err := c.SleepLogs.Update(ctx, s.ID, func(sl *SleepLog) {
					sl.ChildMemberID = ""
				}); err != nil {
					logger.Error("cascade failed", "collection", "sleep_logs", "error", err.Error())
				}
			}
		}
		for _, n := range c.NutritionLogs.List() {
			if n.ChildMemberID == memberID {
				if _, err := c.NutritionLogs.Update(ctx, n.ID, func(nl *NutritionLog) {
					nl.ChildMemberID = ""
				}); err != nil {
					logger.Error("cascade failed", "collection", "nutrition_logs", "error", err.Error())
				}
			}
		}
		for _, h := range c.HealthPoints.List() {
			if h.MemberID == memberID {
				if _, err := c.HealthPoints.Update(ctx, h.ID, func(hp *HealthPoint) {
					hp.MemberID = ""
				}); err != nil {
					logger.Error("cascade failed", "collection", "health_points", "error", err.Error())
				}
			}
		}
		for _, e := range c.Events.List() {
			if !containsString(e.MemberIDs, memberID) {
				continue
			}
			if _, err := c.Events.Update(ctx, e.ID, func(ev *CalendarEvent) {
				ev.MemberIDs = removeString(ev.MemberIDs, memberID)
			}); err != nil {
				logger.Error("cascade failed", "collection", "events", "error", err.Error())
			}
		}
	})
}

func containsString(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

func removeString(ss []string, drop string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s != drop {
			out = append(out, s)
		}
	}
	return out
}
