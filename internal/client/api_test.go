package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pantrylab/pantry/internal/errs"
	"github.com/pantrylab/pantry/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) (*APIClient, *Session, *int32) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	var redirects int32
	sess := NewSession(func() { redirects++ }, nil)
	sess.SetToken("tok-1")
	return NewAPIClient(srv.URL, sess, nil), sess, &redirects
}

func TestAPIClient_ListItems_OK(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		require.Equal(t, "/api/v1/items", r.URL.Path)
		require.Equal(t, "milk", r.URL.Query().Get("search"))
		require.Equal(t, "expiration_date", r.URL.Query().Get("sort_by"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{"id": "1", "name": "Milk", "quantity": 2, "added_at": "2025-10-14"},
			},
			"total": 1, "page": 1, "page_size": 20, "total_pages": 1,
		})
	}))

	page, err := c.ListItems(context.Background(), ListParams{
		Search: "milk", SortBy: model.SortByExpiration, SortOrder: model.SortAsc,
	})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	require.Equal(t, "Milk", page.Items[0].Name)
}

func TestAPIClient_ListItems_EmptyIsNotAnError(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items": [], "total": 0, "page": 1, "page_size": 20, "total_pages": 0}`))
	}))

	page, err := c.ListItems(context.Background(), ListParams{})
	require.NoError(t, err)
	require.Empty(t, page.Items)
}

func TestAPIClient_ListItems_MissingItemsIsMalformed(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"total": 0}`))
	}))

	_, err := c.ListItems(context.Background(), ListParams{})
	require.ErrorIs(t, err, errs.ErrMalformedResponse, "absent items must never coerce to empty")
}

func TestAPIClient_ListItems_NonSequenceItemsIsMalformed(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items": 42, "total": 0}`))
	}))

	_, err := c.ListItems(context.Background(), ListParams{})
	require.ErrorIs(t, err, errs.ErrMalformedResponse)
}

func TestAPIClient_AuthFailureInvalidatesSession(t *testing.T) {
	t.Parallel()
	c, sess, redirects := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "token expired"}`))
	}))

	_, err := c.ListItems(context.Background(), ListParams{})
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	_, ok := sess.Token()
	require.False(t, ok, "token cleared")
	require.EqualValues(t, 1, *redirects)
}

func TestAPIClient_NotFoundPassesThrough(t *testing.T) {
	t.Parallel()
	c, sess, redirects := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "not found"}`))
	}))

	_, err := c.GetItem(context.Background(), "ghost")
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, ok := sess.Token()
	require.True(t, ok, "non-auth errors leave the session intact")
	require.EqualValues(t, 0, *redirects)
}

func TestAPIClient_CreateItem(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var in model.ItemInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		require.Equal(t, "Milk", in.Name)
		require.Equal(t, 2, in.Quantity)

		_ = json.NewEncoder(w).Encode(model.Item{
			ID: "srv-1", Name: in.Name, Quantity: in.Quantity, AddedAt: model.MustDate("2025-10-14"),
		})
	}))

	it, err := c.CreateItem(context.Background(), model.ItemInput{Name: "Milk", Quantity: 2})
	require.NoError(t, err)
	require.Equal(t, "srv-1", it.ID)
}

func TestAPIClient_UpdateValidationRejection(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error": "quantity must be >= 1"}`))
	}))

	qty := 0
	_, err := c.UpdateItem(context.Background(), "1", model.ItemPatch{Quantity: &qty})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestAPIClient_DeleteItem(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/v1/items/1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.DeleteItem(context.Background(), "1"))
}

func TestAPIClient_Login(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"), "login carries no bearer token")
		_, _ = w.Write([]byte(`{"access_token": "tok-2", "user_id": "u1", "household_id": "h1"}`))
	}))

	res, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	require.Equal(t, "tok-2", res.AccessToken)
	require.Equal(t, "h1", res.HouseholdID)
}

func TestAPIClient_Login_MissingTokenIsMalformed(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"user_id": "u1"}`))
	}))

	_, err := c.Login(context.Background(), "alice", "secret")
	require.ErrorIs(t, err, errs.ErrMalformedResponse)
}

func TestAPIClient_RateLimited(t *testing.T) {
	t.Parallel()
	c, _, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "rate limited"}`))
	}))

	_, err := c.Login(context.Background(), "alice", "secret")
	require.ErrorIs(t, err, errs.ErrRateLimited)
}
