// Package repository declares storage interfaces implemented by postgres.
package repository

import (
	"context"

	"github.com/pantrylab/pantry/internal/model"
)

// ListQuery selects and orders one page of a household's items.
type ListQuery struct {
	Page         int
	PageSize     int
	Search       string // case-insensitive substring on name
	SortBy       model.SortKey
	SortOrder    model.SortOrder
	ExpiringSoon bool
}

// ItemRepository stores pantry items scoped by household.
type ItemRepository interface {
	// List returns one page of items and the total match count.
	List(ctx context.Context, householdID string, q ListQuery) ([]model.Item, int, error)
	// Get returns a single item by id within the household scope.
	Get(ctx context.Context, householdID, id string) (*model.Item, error)
	// Create inserts a new item and returns the stored record.
	Create(ctx context.Context, it *model.Item) (*model.Item, error)
	// Update applies a partial update and returns the stored record.
	Update(ctx context.Context, householdID, id string, p model.ItemPatch) (*model.Item, error)
	// Delete removes an item.
	Delete(ctx context.Context, householdID, id string) error
}
