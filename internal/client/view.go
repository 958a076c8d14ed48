package client

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pantrylab/pantry/internal/model"
)

// ProjectionSort names a client-side ordering of the collection.
type ProjectionSort string

const (
	// SortRecentlyAdded orders descending by the date the item was added.
	SortRecentlyAdded ProjectionSort = "recently_added"
	// SortExpiration orders ascending by the expiry countdown; items
	// without an expiration date sort last.
	SortExpiration ProjectionSort = "expiration"
)

// ItemView owns the canonical in-memory item collection for the current
// household. Only the view itself and the mutation engine (through the
// package-private helpers below) ever write to the collection.
type ItemView struct {
	remote Remote
	log    *zap.Logger

	mu     sync.Mutex
	items  []model.Item
	gen    uint64 // bumped per Load; a stale load's result is discarded
	last   ListParams
	loaded bool

	refreshc chan struct{}
}

// NewItemView constructs a view over the given remote.
func NewItemView(remote Remote, log *zap.Logger) *ItemView {
	if log == nil {
		log = zap.NewNop()
	}
	return &ItemView{
		remote:   remote,
		log:      log,
		refreshc: make(chan struct{}, 1),
	}
}

// Load replaces the whole collection from the service. An empty result is
// a valid state. When loads overlap, the last-issued call wins: an
// earlier call resolving later discards its result.
func (v *ItemView) Load(ctx context.Context, p ListParams) error {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.last = p
	v.loaded = true
	v.mu.Unlock()

	page, err := v.remote.ListItems(ctx, p)
	if err != nil {
		return fmt.Errorf("load items: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		v.log.Debug("discarding superseded load", zap.Uint64("gen", gen))
		return nil
	}
	v.items = page.Items
	return nil
}

// Reload re-runs Load with the last-used parameters.
func (v *ItemView) Reload(ctx context.Context) error {
	v.mu.Lock()
	if !v.loaded {
		v.mu.Unlock()
		return fmt.Errorf("reload before first load")
	}
	p := v.last
	v.mu.Unlock()
	return v.Load(ctx, p)
}

// RequestRefresh signals that local state may be stale. Signals coalesce;
// the owner drains Refreshes and runs Reload.
func (v *ItemView) RequestRefresh() {
	select {
	case v.refreshc <- struct{}{}:
	default:
	}
}

// Refreshes is the channel carrying coalesced refresh requests.
func (v *ItemView) Refreshes() <-chan struct{} { return v.refreshc }

// Items returns a copy of the canonical collection.
func (v *ItemView) Items() []model.Item {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]model.Item(nil), v.items...)
}

// Len returns the current collection size.
func (v *ItemView) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.items)
}

// Projection returns a filtered, sorted copy of the collection. The
// filter is a case-insensitive substring match on the item name.
func (v *ItemView) Projection(query string, by ProjectionSort, now time.Time) []model.Item {
	all := v.Items()

	out := all
	if query != "" {
		q := strings.ToLower(query)
		out = out[:0]
		for _, it := range all {
			if strings.Contains(strings.ToLower(it.Name), q) {
				out = append(out, it)
			}
		}
	}

	switch by {
	case SortRecentlyAdded:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].AddedAt.After(out[j].AddedAt.Time)
		})
	case SortExpiration:
		days := func(it model.Item) int {
			d, ok := it.ExpiresInDays(now)
			if !ok {
				return math.MaxInt
			}
			return d
		}
		sort.SliceStable(out, func(i, j int) bool {
			return days(out[i]) < days(out[j])
		})
	}
	return out
}

// --- mutation helpers, engine-only ---

func (v *ItemView) get(id string) (model.Item, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, it := range v.items {
		if it.ID == id {
			return it, true
		}
	}
	return model.Item{}, false
}

func (v *ItemView) insertFront(it model.Item) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.items = append([]model.Item{it}, v.items...)
}

// insertAt restores it at idx when still valid for the current length,
// otherwise prepends.
func (v *ItemView) insertAt(idx int, it model.Item) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if idx < 0 || idx > len(v.items) {
		idx = 0
	}
	v.items = append(v.items, model.Item{})
	copy(v.items[idx+1:], v.items[idx:])
	v.items[idx] = it
}

func (v *ItemView) replace(id string, it model.Item) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.items {
		if v.items[i].ID == id {
			v.items[i] = it
			return true
		}
	}
	return false
}

func (v *ItemView) remove(id string) (model.Item, int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, it := range v.items {
		if it.ID == id {
			v.items = append(v.items[:i], v.items[i+1:]...)
			return it, i, true
		}
	}
	return model.Item{}, 0, false
}
