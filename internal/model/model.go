// Package model defines domain entities shared by the client core and the server.
package model

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/pantrylab/pantry/internal/errs"
)

// Item is a single pantry record as carried on the wire.
// Status and the expiry countdown are derived at read time, never stored.
type Item struct {
	ID             string    `json:"id"`
	HouseholdID    string    `json:"household_id"`
	Name           string    `json:"name"`
	Quantity       int       `json:"quantity"`
	Unit           string    `json:"unit"`
	ExpirationDate *Date     `json:"expiration_date,omitempty"`
	AddedAt        Date      `json:"added_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Status derives the item state from its expiration date relative to now.
func (it Item) Status(now time.Time) Status {
	return StatusFor(it.ExpirationDate, now)
}

// ExpiresInDays reports the whole-day countdown to expiry; ok is false
// when the item has no expiration date.
func (it Item) ExpiresInDays(now time.Time) (int, bool) {
	return ExpiresIn(it.ExpirationDate, now)
}

// ItemInput is the payload for creating an item.
type ItemInput struct {
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	Unit           string `json:"unit"`
	ExpirationDate *Date  `json:"expiration_date,omitempty"`
}

// Validate checks create constraints before any state change.
func (in ItemInput) Validate(now time.Time) error {
	if in.Name == "" {
		return fmt.Errorf("%w: name required", errs.ErrValidation)
	}
	if in.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be >= 1", errs.ErrValidation)
	}
	if in.ExpirationDate != nil && in.ExpirationDate.DaysUntil(now) < 0 {
		return fmt.Errorf("%w: expiration date is in the past", errs.ErrValidation)
	}
	return nil
}

// ItemPatch is a partial update; nil fields are left unchanged.
type ItemPatch struct {
	Name           *string `json:"name,omitempty"`
	Quantity       *int    `json:"quantity,omitempty"`
	Unit           *string `json:"unit,omitempty"`
	ExpirationDate *Date   `json:"expiration_date,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Quantity == nil && p.Unit == nil && p.ExpirationDate == nil
}

// Validate checks the supplied fields with the same constraints as ItemInput.
func (p ItemPatch) Validate(now time.Time) error {
	if p.Empty() {
		return fmt.Errorf("%w: empty patch", errs.ErrValidation)
	}
	if p.Name != nil && *p.Name == "" {
		return fmt.Errorf("%w: name required", errs.ErrValidation)
	}
	if p.Quantity != nil && *p.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be >= 1", errs.ErrValidation)
	}
	if p.ExpirationDate != nil && p.ExpirationDate.DaysUntil(now) < 0 {
		return fmt.Errorf("%w: expiration date is in the past", errs.ErrValidation)
	}
	return nil
}

// Apply mutates it in place with the supplied fields.
func (p ItemPatch) Apply(it *Item) {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Quantity != nil {
		it.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		it.Unit = *p.Unit
	}
	if p.ExpirationDate != nil {
		d := *p.ExpirationDate
		it.ExpirationDate = &d
	}
}

// ItemPage is the list envelope returned by the collection service.
type ItemPage struct {
	Items      []Item `json:"items"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
}

// SortKey names a server-side sort column.
type SortKey string

// Sort keys accepted by the list operation.
const (
	SortByName       SortKey = "name"
	SortByExpiration SortKey = "expiration_date"
	SortByCreated    SortKey = "created_at"
	SortByQuantity   SortKey = "quantity"
	SortByAdded      SortKey = "added_at"
)

// SortOrder is asc or desc.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Tokens collects issued access tokens.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents an account stored on the server.
type User struct {
	ID          uuid.UUID // PK
	Username    string    // unique
	PwdHash     []byte    // Argon2id(password, SaltAuth)
	SaltAuth    []byte    // per-user auth salt
	HouseholdID uuid.UUID // collection scope the user belongs to
	CreatedAt   time.Time
}
