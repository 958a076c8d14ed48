package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/pantrylab/pantry/internal/errs"
	"github.com/pantrylab/pantry/internal/model"
	"github.com/pantrylab/pantry/internal/repository"
)

// ItemService defines CRUD operations over a household's pantry items.
type ItemService interface {
	// List returns one page of items with derived pagination metadata.
	List(ctx context.Context, householdID string, q repository.ListQuery) (model.ItemPage, error)
	// Get returns a single item by id.
	Get(ctx context.Context, householdID, id string) (*model.Item, error)
	// Create validates input and stores a new item.
	Create(ctx context.Context, householdID string, in model.ItemInput) (*model.Item, error)
	// Update validates and applies a partial update.
	Update(ctx context.Context, householdID, id string, p model.ItemPatch) (*model.Item, error)
	// Delete removes an item.
	Delete(ctx context.Context, householdID, id string) error
}

type ItemServiceImpl struct {
	repo        repository.ItemRepository
	maxPageSize int
}

// NewItemService constructs ItemService with a page size cap.
func NewItemService(repo repository.ItemRepository, maxPageSize int) *ItemServiceImpl {
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &ItemServiceImpl{repo: repo, maxPageSize: maxPageSize}
}

func parseID(id string) error {
	if _, err := uuid.FromString(id); err != nil {
		return fmt.Errorf("%w: bad id", errs.ErrValidation)
	}
	return nil
}

func scopeAndID(householdID, id string) error {
	if err := parseID(householdID); err != nil {
		return err
	}
	return parseID(id)
}

// List validates query parameters, clamps pagination and delegates.
func (s *ItemServiceImpl) List(ctx context.Context, householdID string, q repository.ListQuery) (model.ItemPage, error) {
	if err := parseID(householdID); err != nil {
		return model.ItemPage{}, err
	}
	if q.SortBy != "" {
		switch q.SortBy {
		case model.SortByName, model.SortByExpiration, model.SortByCreated, model.SortByQuantity, model.SortByAdded:
		default:
			return model.ItemPage{}, fmt.Errorf("%w: bad sort_by %q", errs.ErrValidation, q.SortBy)
		}
	}
	if q.SortOrder != "" && q.SortOrder != model.SortAsc && q.SortOrder != model.SortDesc {
		return model.ItemPage{}, fmt.Errorf("%w: bad sort_order %q", errs.ErrValidation, q.SortOrder)
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.PageSize > s.maxPageSize {
		q.PageSize = s.maxPageSize
	}

	items, total, err := s.repo.List(ctx, householdID, q)
	if err != nil {
		return model.ItemPage{}, err
	}
	if items == nil {
		items = []model.Item{}
	}
	totalPages := (total + q.PageSize - 1) / q.PageSize
	return model.ItemPage{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Get fetches a single item by id.
func (s *ItemServiceImpl) Get(ctx context.Context, householdID, id string) (*model.Item, error) {
	if err := scopeAndID(householdID, id); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, householdID, id)
}

// Create validates input and stores a new item in the household.
func (s *ItemServiceImpl) Create(ctx context.Context, householdID string, in model.ItemInput) (*model.Item, error) {
	if err := parseID(householdID); err != nil {
		return nil, err
	}
	if err := in.Validate(time.Now()); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	it := &model.Item{
		ID:             id.String(),
		HouseholdID:    householdID,
		Name:           in.Name,
		Quantity:       in.Quantity,
		Unit:           in.Unit,
		ExpirationDate: in.ExpirationDate,
		AddedAt:        model.NewDate(time.Now()),
	}
	return s.repo.Create(ctx, it)
}

// Update validates the supplied fields and applies the partial update.
func (s *ItemServiceImpl) Update(ctx context.Context, householdID, id string, p model.ItemPatch) (*model.Item, error) {
	if err := scopeAndID(householdID, id); err != nil {
		return nil, err
	}
	if err := p.Validate(time.Now()); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, householdID, id, p)
}

// Delete removes an item by id.
func (s *ItemServiceImpl) Delete(ctx context.Context, householdID, id string) error {
	if err := scopeAndID(householdID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, householdID, id)
}
