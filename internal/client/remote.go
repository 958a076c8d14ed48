// Package client implements the local-first core: remote API access,
// session handling, the optimistic mutation engine and the collection view.
package client

import (
	"context"

	"github.com/pantrylab/pantry/internal/model"
)

// ListParams select and order the items returned by the collection service.
// The collection scope (household) is bound by the session credential.
type ListParams struct {
	Page         int
	PageSize     int
	Search       string
	SortBy       model.SortKey
	SortOrder    model.SortOrder
	ExpiringSoon bool
}

// Remote is the collection service surface the core depends on.
type Remote interface {
	// ListItems returns one page of the household's items.
	ListItems(ctx context.Context, p ListParams) (model.ItemPage, error)
	// GetItem returns a single item by id.
	GetItem(ctx context.Context, id string) (model.Item, error)
	// CreateItem stores a new item and returns the canonical record.
	CreateItem(ctx context.Context, in model.ItemInput) (model.Item, error)
	// UpdateItem applies a partial update and returns the canonical record.
	UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (model.Item, error)
	// DeleteItem removes an item.
	DeleteItem(ctx context.Context, id string) error
}
