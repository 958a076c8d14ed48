package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"

	"github.com/pantrylab/pantry/internal/errs"
	"github.com/pantrylab/pantry/internal/model"
	"github.com/pantrylab/pantry/internal/repository"
)

type fakeItemRepo struct {
	listInHH  string
	listInQ   repository.ListQuery
	listOut   []model.Item
	listTotal int
	listErr   error

	getOut *model.Item
	getErr error

	createIn  *model.Item
	createErr error

	updateInID string
	updateInP  model.ItemPatch
	updateOut  *model.Item
	updateErr  error

	delInID string
	delErr  error
}

var _ repository.ItemRepository = (*fakeItemRepo)(nil)

func (f *fakeItemRepo) List(_ context.Context, hh string, q repository.ListQuery) ([]model.Item, int, error) {
	f.listInHH, f.listInQ = hh, q
	return append([]model.Item(nil), f.listOut...), f.listTotal, f.listErr
}
func (f *fakeItemRepo) Get(_ context.Context, hh, id string) (*model.Item, error) {
	return f.getOut, f.getErr
}
func (f *fakeItemRepo) Create(_ context.Context, it *model.Item) (*model.Item, error) {
	f.createIn = it
	if f.createErr != nil {
		return nil, f.createErr
	}
	return it, nil
}
func (f *fakeItemRepo) Update(_ context.Context, hh, id string, p model.ItemPatch) (*model.Item, error) {
	f.updateInID, f.updateInP = id, p
	return f.updateOut, f.updateErr
}
func (f *fakeItemRepo) Delete(_ context.Context, hh, id string) error {
	f.delInID = id
	return f.delErr
}

func newID(t *testing.T) string {
	t.Helper()
	return uuid.Must(uuid.NewV4()).String()
}

func TestNewItemService_DefaultMaxPageSize(t *testing.T) {
	s := NewItemService(&fakeItemRepo{}, 0)
	if s.maxPageSize != 100 {
		t.Fatalf("default maxPageSize want 100, got %d", s.maxPageSize)
	}
}

func TestItemService_List_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := &fakeItemRepo{}
	s := NewItemService(repo, 50)
	hh := newID(t)

	if _, err := s.List(ctx, "not-a-uuid", repository.ListQuery{}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on bad household, got %v", err)
	}
	if _, err := s.List(ctx, hh, repository.ListQuery{SortBy: "price"}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on bad sort_by, got %v", err)
	}
	if _, err := s.List(ctx, hh, repository.ListQuery{SortOrder: "sideways"}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on bad sort_order, got %v", err)
	}
}

func TestItemService_List_ClampsAndDerivesPages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := &fakeItemRepo{listTotal: 45}
	s := NewItemService(repo, 50)
	hh := newID(t)

	page, err := s.List(ctx, hh, repository.ListQuery{Page: 0, PageSize: 500})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if repo.listInQ.Page != 1 || repo.listInQ.PageSize != 50 {
		t.Fatalf("clamp mismatch: %+v", repo.listInQ)
	}
	if page.Total != 45 || page.TotalPages != 1 || page.Page != 1 {
		t.Fatalf("page meta mismatch: %+v", page)
	}
	if page.Items == nil {
		t.Fatal("items must never be nil, the envelope needs an empty sequence")
	}
}

func TestItemService_List_TotalPagesRoundsUp(t *testing.T) {
	t.Parallel()
	repo := &fakeItemRepo{listTotal: 41}
	s := NewItemService(repo, 100)

	page, err := s.List(context.Background(), newID(t), repository.ListQuery{PageSize: 20})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.TotalPages != 3 {
		t.Fatalf("TotalPages = %d, want 3", page.TotalPages)
	}
}

func TestItemService_Create_ValidatesAndFills(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := &fakeItemRepo{}
	s := NewItemService(repo, 50)
	hh := newID(t)

	if _, err := s.Create(ctx, hh, model.ItemInput{Name: "", Quantity: 1}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on empty name, got %v", err)
	}
	if repo.createIn != nil {
		t.Fatal("repo must not be called on invalid input")
	}

	out, err := s.Create(ctx, hh, model.ItemInput{Name: "Milk", Quantity: 2, Unit: "l"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if out.HouseholdID != hh || out.Name != "Milk" || out.Quantity != 2 {
		t.Fatalf("stored item mismatch: %+v", out)
	}
	if _, err := uuid.FromString(out.ID); err != nil {
		t.Fatalf("generated id is not a uuid: %q", out.ID)
	}
	if out.AddedAt.IsZero() {
		t.Fatal("added_at must default to today")
	}
}

func TestItemService_Update_ValidationAndDelegate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	id := newID(t)
	repo := &fakeItemRepo{updateOut: &model.Item{ID: id, Name: "Milk", Quantity: 5}}
	s := NewItemService(repo, 50)
	hh := newID(t)

	if _, err := s.Update(ctx, hh, "nope", model.ItemPatch{}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on bad id, got %v", err)
	}
	if _, err := s.Update(ctx, hh, id, model.ItemPatch{}); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on empty patch, got %v", err)
	}

	qty := 5
	out, err := s.Update(ctx, hh, id, model.ItemPatch{Quantity: &qty})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if out.Quantity != 5 || repo.updateInID != id || repo.updateInP.Quantity == nil {
		t.Fatalf("delegate mismatch: out=%+v repo=%+v", out, repo)
	}
}

func TestItemService_Delete_Delegates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	id := newID(t)
	repo := &fakeItemRepo{delErr: errs.ErrNotFound}
	s := NewItemService(repo, 50)

	err := s.Delete(ctx, newID(t), id)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("want repo error propagate, got %v", err)
	}
	if repo.delInID != id {
		t.Fatalf("delegate args mismatch: %q", repo.delInID)
	}
}

func TestItemService_RepoErrorsPropagate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := &fakeItemRepo{
		listErr:   errors.New("boom-list"),
		getErr:    errors.New("boom-get"),
		createErr: errors.New("boom-create"),
		updateErr: errors.New("boom-update"),
	}
	s := NewItemService(repo, 50)
	hh, id := newID(t), newID(t)

	if _, err := s.List(ctx, hh, repository.ListQuery{}); err == nil {
		t.Fatal("want repo error propagate (list)")
	}
	if _, err := s.Get(ctx, hh, id); err == nil {
		t.Fatal("want repo error propagate (get)")
	}
	if _, err := s.Create(ctx, hh, model.ItemInput{Name: "Milk", Quantity: 1}); err == nil {
		t.Fatal("want repo error propagate (create)")
	}
	qty := 2
	if _, err := s.Update(ctx, hh, id, model.ItemPatch{Quantity: &qty}); err == nil {
		t.Fatal("want repo error propagate (update)")
	}
}
