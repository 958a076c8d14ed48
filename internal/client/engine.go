package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/pantrylab/pantry/internal/errs"
	"github.com/pantrylab/pantry/internal/model"
)

// provisionalPrefix marks locally generated ids awaiting server confirmation.
const provisionalPrefix = "local-"

// Engine performs local-first create/update/delete against the view's
// collection and reconciles each provisional change with the remote
// outcome: confirmed changes are replaced by the canonical record,
// failed ones are rolled back (or escalated to a refresh request) and
// the original error is re-raised.
//
// Mutations on the same item id are serialized, so a second mutation
// starts from the last committed state rather than an in-flight
// provisional one. Mutations on different ids run concurrently.
type Engine struct {
	remote  Remote
	view    *ItemView
	refresh func() // owned by the view's owner; requests an async re-fetch
	log     *zap.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	locks   map[string]*sync.Mutex
}

// NewEngine constructs an engine bound to a view and a refresh signal.
func NewEngine(remote Remote, view *ItemView, refresh func(), log *zap.Logger) *Engine {
	if refresh == nil {
		refresh = func() {}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		remote:  remote,
		view:    view,
		refresh: refresh,
		log:     log,
		pending: make(map[string]struct{}),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Create inserts a provisional item at the front of the collection and
// issues the remote create. On success the provisional entry is replaced
// by the canonical record; on failure it is removed and a refresh is
// requested.
func (e *Engine) Create(ctx context.Context, in model.ItemInput) (model.Item, error) {
	if err := in.Validate(time.Now()); err != nil {
		return model.Item{}, err
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return model.Item{}, fmt.Errorf("create item: %w", err)
	}
	tmpID := provisionalPrefix + uid.String()
	now := time.Now()
	tmp := model.Item{
		ID:             tmpID,
		Name:           in.Name,
		Quantity:       in.Quantity,
		Unit:           in.Unit,
		ExpirationDate: in.ExpirationDate,
		AddedAt:        model.NewDate(now),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	lock := e.lockFor(tmpID)
	lock.Lock()
	defer lock.Unlock()
	e.begin(tmpID)
	defer e.end(tmpID)

	e.view.insertFront(tmp)

	canonical, err := e.remote.CreateItem(ctx, in)
	if err != nil {
		e.view.remove(tmpID)
		e.refresh()
		return model.Item{}, fmt.Errorf("create item: %w", err)
	}
	e.view.replace(tmpID, canonical)
	e.log.Debug("item created", zap.String("id", canonical.ID))
	return canonical, nil
}

// Update mutates the matching item in place and issues the remote update.
// On success the item is replaced by the canonical record. On failure the
// pre-mutation snapshot is restored; if the item vanished in the meantime
// a refresh is requested instead of guessing.
func (e *Engine) Update(ctx context.Context, id string, patch model.ItemPatch) (model.Item, error) {
	if err := patch.Validate(time.Now()); err != nil {
		return model.Item{}, err
	}

	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	snap, ok := e.view.get(id)
	if !ok {
		e.refresh()
		return model.Item{}, fmt.Errorf("update item %s: %w", id, errs.ErrNotFound)
	}

	e.begin(id)
	defer e.end(id)

	next := snap
	patch.Apply(&next)
	e.view.replace(id, next)

	canonical, err := e.remote.UpdateItem(ctx, id, patch)
	if err != nil {
		if !e.view.replace(id, snap) {
			e.refresh()
		}
		return model.Item{}, fmt.Errorf("update item %s: %w", id, err)
	}
	e.view.replace(id, canonical)
	return canonical, nil
}

// Delete removes the matching item, retaining its snapshot and position,
// and issues the remote delete. On failure the snapshot is re-inserted at
// its original index when still valid, otherwise at the front; when the
// item was not present locally to begin with, a refresh is requested.
func (e *Engine) Delete(ctx context.Context, id string) error {
	lock := e.lockFor(id)
	lock.Lock()
	defer lock.Unlock()
	e.begin(id)
	defer e.end(id)

	snap, idx, found := e.view.remove(id)

	err := e.remote.DeleteItem(ctx, id)
	if err != nil {
		if found {
			e.view.insertAt(idx, snap)
		} else {
			e.refresh()
		}
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}

// Pending reports whether a mutation for id is in flight. The flag is a
// presentation hint for disabling destructive actions, not a correctness
// mechanism.
func (e *Engine) Pending(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.pending[id]
	return ok
}

// Busy reports whether any mutation is in flight.
func (e *Engine) Busy() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending) > 0
}

func (e *Engine) begin(id string) {
	e.mu.Lock()
	e.pending[id] = struct{}{}
	e.mu.Unlock()
}

func (e *Engine) end(id string) {
	e.mu.Lock()
	delete(e.pending, id)
	e.mu.Unlock()
}

// lockFor returns the per-id mutex, creating it on first use. The map is
// bounded by the number of distinct ids mutated in a session.
func (e *Engine) lockFor(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.Mutex{}
		e.locks[id] = l
	}
	return l
}
