// Copyright (C) 2025 Hearth Labs (oss@hearthlabs.dev)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See <https://www.gnu.org/licenses/agpl-3.0.html> for the full license text.

// Package domain defines Hearth's household record types and the wired set
// of entity stores that hold them.
//
// Records are plain structured data with a store-assigned id. They are
// mutated only through the owning store's CRUD operations; cross-references
// between collections are cleared by cascade when the referenced record is
// deleted.
package domain

import "time"

// FamilyMember is one person in the household roster.
type FamilyMember struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" binding:"required"`
	Role      string    `json:"role"` // parent, child, elder, caregiver
	BirthDate string    `json:"birthDate,omitempty"`
	AvatarHue int       `json:"avatarHue,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CalendarEvent is a scheduled family event.
type CalendarEvent struct {
	ID        string    `json:"id"`
	Title     string    `json:"title" binding:"required"`
	Start     time.Time `json:"start" binding:"required"`
	End       time.Time `json:"end,omitempty"`
	Location  string    `json:"location,omitempty"`
	MemberIDs []string  `json:"memberIds,omitempty"`
	Category  string    `json:"category,omitempty"` // school, medical, social, chores
	CreatedAt time.Time `json:"createdAt"`
}

// ListItem is one entry on a shared list.
type ListItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// SharedList is a household checklist (groceries, packing, chores).
type SharedList struct {
	ID        string     `json:"id"`
	Title     string     `json:"title" binding:"required"`
	Items     []ListItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Milestone records a child development moment.
type Milestone struct {
	ID            string    `json:"id"`
	ChildMemberID string    `json:"childMemberId,omitempty"`
	Title         string    `json:"title" binding:"required"`
	Description   string    `json:"description,omitempty"`
	Date          string    `json:"date,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// CareReminder is a recurring care task for an elder member.
type CareReminder struct {
	ID            string    `json:"id"`
	Title         string    `json:"title" binding:"required"`
	ElderMemberID string    `json:"elderMemberId,omitempty"`
	ReminderType  string    `json:"reminderType,omitempty"` // medication, appointment, checkin
	DateTime      string    `json:"dateTime,omitempty"`
	Recurring     string    `json:"recurring,omitempty"` // none, daily, weekly
	Completed     bool      `json:"completed"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Recipe is a saved household recipe.
type Recipe struct {
	ID          string    `json:"id"`
	Title       string    `json:"title" binding:"required"`
	Ingredients []string  `json:"ingredients,omitempty"`
	Steps       []string  `json:"steps,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	PrepMinutes int       `json:"prepMinutes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MealSlot assigns a recipe (or free-text meal) to a day and meal.
type MealSlot struct {
	ID        string    `json:"id"`
	Date      string    `json:"date" binding:"required"` // YYYY-MM-DD
	Meal      string    `json:"meal" binding:"required"` // breakfast, lunch, dinner
	RecipeID  string    `json:"recipeId,omitempty"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Album is a shared photo album (photo storage itself is external).
type Album struct {
	ID         string    `json:"id"`
	Title      string    `json:"title" binding:"required"`
	CoverURL   string    `json:"coverUrl,omitempty"`
	PhotoCount int       `json:"photoCount,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// BulletinPost is a note on the family message board.
type BulletinPost struct {
	ID            string    `json:"id"`
	Text          string    `json:"text" binding:"required"`
	CreatedByID   string    `json:"createdById,omitempty"`
	CreatedByName string    `json:"createdByName,omitempty"`
	Pinned        bool      `json:"pinned"`
	CreatedAt     time.Time `json:"createdAt"`
}

// SleepLog records one night of a child's sleep.
type SleepLog struct {
	ID            string    `json:"id"`
	ChildMemberID string    `json:"childMemberId,omitempty"`
	Date          string    `json:"date" binding:"required"`
	Hours         float64   `json:"hours" binding:"required"`
	Quality       string    `json:"quality,omitempty"` // poor, fair, good
	CreatedAt     time.Time `json:"createdAt"`
}

// NutritionLog records one meal eaten by a child.
type NutritionLog struct {
	ID            string    `json:"id"`
	ChildMemberID string    `json:"childMemberId,omitempty"`
	Date          string    `json:"date" binding:"required"`
	Meal          string    `json:"meal,omitempty"`
	Description   string    `json:"description" binding:"required"`
	Healthy       bool      `json:"healthy"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HealthPoint is one elder health observation (blood pressure, mood, ...).
type HealthPoint struct {
	ID        string    `json:"id"`
	MemberID  string    `json:"memberId,omitempty"`
	Kind      string    `json:"kind" binding:"required"` // bp, glucose, mood, weight
	Value     string    `json:"value" binding:"required"`
	Note      string    `json:"note,omitempty"`
	Date      string    `json:"date,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
