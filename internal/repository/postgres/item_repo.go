package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pantrylab/pantry/internal/errs"
	"github.com/pantrylab/pantry/internal/model"
	"github.com/pantrylab/pantry/internal/repository"
)

// ItemRepo implements ItemRepository using PostgreSQL.
type ItemRepo struct{ db *DB }

// NewItemRepo constructs an item repository.
func NewItemRepo(db *DB) *ItemRepo { return &ItemRepo{db: db} }

const itemColumns = `id, household_id, name, quantity, unit, expiration_date, added_at, created_at, updated_at`

// sortColumns whitelists the ORDER BY targets reachable from the API.
var sortColumns = map[model.SortKey]string{
	model.SortByName:       "name",
	model.SortByExpiration: "expiration_date",
	model.SortByCreated:    "created_at",
	model.SortByQuantity:   "quantity",
	model.SortByAdded:      "added_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	var (
		it      model.Item
		exp     *time.Time
		addedAt time.Time
	)
	err := row.Scan(&it.ID, &it.HouseholdID, &it.Name, &it.Quantity, &it.Unit,
		&exp, &addedAt, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if exp != nil {
		d := model.NewDate(*exp)
		it.ExpirationDate = &d
	}
	it.AddedAt = model.NewDate(addedAt)
	return &it, nil
}

// List returns one page of a household's items plus the total match count.
func (r *ItemRepo) List(ctx context.Context, householdID string, q repository.ListQuery) ([]model.Item, int, error) {
	where := []string{"household_id=$1"}
	args := []any{householdID}
	if q.Search != "" {
		args = append(args, q.Search)
		where = append(where, fmt.Sprintf("name ILIKE '%%'||$%d||'%%'", len(args)))
	}
	if q.ExpiringSoon {
		where = append(where, fmt.Sprintf(
			"expiration_date IS NOT NULL AND expiration_date <= current_date + %d", model.ExpiringWindowDays))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM items WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, dir := "created_at", "DESC"
	if c, ok := sortColumns[q.SortBy]; ok {
		col, dir = c, "ASC"
	}
	if q.SortOrder == model.SortDesc {
		dir = "DESC"
	} else if q.SortOrder == model.SortAsc {
		dir = "ASC"
	}
	order := col + " " + dir
	if col == "expiration_date" {
		order += " NULLS LAST"
	}

	limit := q.PageSize
	if limit <= 0 {
		limit = 20
	}
	page := q.Page
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(`SELECT %s FROM items WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		itemColumns, cond, order, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Item, 0, limit)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *it)
	}
	return out, total, rows.Err()
}

// Get returns a single item within the household scope.
func (r *ItemRepo) Get(ctx context.Context, householdID, id string) (*model.Item, error) {
	const q = `SELECT ` + itemColumns + ` FROM items WHERE household_id=$1 AND id=$2`
	it, err := scanItem(r.db.Pool.QueryRow(ctx, q, householdID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return it, nil
}

// Create inserts a new item and returns the stored record.
func (r *ItemRepo) Create(ctx context.Context, it *model.Item) (*model.Item, error) {
	const q = `
INSERT INTO items (id, household_id, name, quantity, unit, expiration_date, added_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING ` + itemColumns
	var exp *time.Time
	if it.ExpirationDate != nil {
		exp = &it.ExpirationDate.Time
	}
	stored, err := scanItem(r.db.Pool.QueryRow(ctx, q,
		it.ID, it.HouseholdID, it.Name, it.Quantity, it.Unit, exp, it.AddedAt.Time))
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// Update applies the supplied fields and returns the stored record.
func (r *ItemRepo) Update(ctx context.Context, householdID, id string, p model.ItemPatch) (*model.Item, error) {
	args := []any{householdID, id}
	set := make([]string, 0, 5)
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if p.Name != nil {
		add("name", *p.Name)
	}
	if p.Quantity != nil {
		add("quantity", *p.Quantity)
	}
	if p.Unit != nil {
		add("unit", *p.Unit)
	}
	if p.ExpirationDate != nil {
		add("expiration_date", p.ExpirationDate.Time)
	}
	set = append(set, "updated_at=now()")

	q := fmt.Sprintf(`UPDATE items SET %s WHERE household_id=$1 AND id=$2 RETURNING %s`,
		strings.Join(set, ", "), itemColumns)
	it, err := scanItem(r.db.Pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return it, nil
}

// Delete removes an item within the household scope.
func (r *ItemRepo) Delete(ctx context.Context, householdID, id string) error {
	const q = `DELETE FROM items WHERE household_id=$1 AND id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, householdID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
