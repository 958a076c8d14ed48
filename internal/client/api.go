package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pantrylab/pantry/internal/errs"
	"github.com/pantrylab/pantry/internal/model"
)

// defaultTimeout bounds every remote call; expiry surfaces as a transport
// error, never as an authentication failure.
const defaultTimeout = 15 * time.Second

// APIClient talks JSON over HTTP to the pantry collection service.
// Authenticated calls are routed through the Session guard.
type APIClient struct {
	base    string
	httpc   *http.Client
	session *Session
	log     *zap.Logger
}

var _ Remote = (*APIClient)(nil)

// NewAPIClient constructs a client for the service at base URL.
func NewAPIClient(base string, session *Session, log *zap.Logger) *APIClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &APIClient{
		base:    strings.TrimRight(base, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
		session: session,
		log:     log,
	}
}

// --- auth (no credential required) ---

type registerResponse struct {
	UserID      string `json:"user_id"`
	HouseholdID string `json:"household_id"`
}

// Register creates an account and returns its user id.
func (c *APIClient) Register(ctx context.Context, username, password string) (string, error) {
	var out registerResponse
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, "", http.MethodPost, "/api/v1/auth/register", nil, body, &out); err != nil {
		return "", err
	}
	return out.UserID, nil
}

// LoginResult is the payload of a successful login.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	HouseholdID string    `json:"household_id"`
}

// Login authenticates and returns the issued token. The caller decides
// whether to install it into the session.
func (c *APIClient) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, "", http.MethodPost, "/api/v1/auth/login", nil, body, &out); err != nil {
		return LoginResult{}, err
	}
	if out.AccessToken == "" {
		return LoginResult{}, fmt.Errorf("%w: login response missing access_token", errs.ErrMalformedResponse)
	}
	return out, nil
}

// --- items ---

// itemPageWire distinguishes an absent items field from an empty one:
// a reply without a sequence is a contract violation, not an empty state.
type itemPageWire struct {
	Items      *[]model.Item `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// ListItems fetches one page of items with strict envelope validation.
func (c *APIClient) ListItems(ctx context.Context, p ListParams) (model.ItemPage, error) {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.SortBy != "" {
		q.Set("sort_by", string(p.SortBy))
	}
	if p.SortOrder != "" {
		q.Set("sort_order", string(p.SortOrder))
	}
	if p.ExpiringSoon {
		q.Set("expiring_soon", "true")
	}

	var w itemPageWire
	err := c.session.Do(ctx, func(ctx context.Context, token string) error {
		return c.do(ctx, token, http.MethodGet, "/api/v1/items", q, nil, &w)
	})
	if err != nil {
		return model.ItemPage{}, err
	}
	if w.Items == nil {
		return model.ItemPage{}, fmt.Errorf("%w: list response missing items", errs.ErrMalformedResponse)
	}
	return model.ItemPage{
		Items:      *w.Items,
		Total:      w.Total,
		Page:       w.Page,
		PageSize:   w.PageSize,
		TotalPages: w.TotalPages,
	}, nil
}

// GetItem fetches a single item by id.
func (c *APIClient) GetItem(ctx context.Context, id string) (model.Item, error) {
	var out model.Item
	err := c.session.Do(ctx, func(ctx context.Context, token string) error {
		return c.do(ctx, token, http.MethodGet, "/api/v1/items/"+url.PathEscape(id), nil, nil, &out)
	})
	return out, err
}

// CreateItem stores a new item and returns the canonical record.
func (c *APIClient) CreateItem(ctx context.Context, in model.ItemInput) (model.Item, error) {
	var out model.Item
	err := c.session.Do(ctx, func(ctx context.Context, token string) error {
		return c.do(ctx, token, http.MethodPost, "/api/v1/items", nil, in, &out)
	})
	return out, err
}

// UpdateItem applies a partial update and returns the canonical record.
func (c *APIClient) UpdateItem(ctx context.Context, id string, patch model.ItemPatch) (model.Item, error) {
	var out model.Item
	err := c.session.Do(ctx, func(ctx context.Context, token string) error {
		return c.do(ctx, token, http.MethodPatch, "/api/v1/items/"+url.PathEscape(id), nil, patch, &out)
	})
	return out, err
}

// DeleteItem removes an item.
func (c *APIClient) DeleteItem(ctx context.Context, id string) error {
	return c.session.Do(ctx, func(ctx context.Context, token string) error {
		return c.do(ctx, token, http.MethodDelete, "/api/v1/items/"+url.PathEscape(id), nil, nil, nil)
	})
}

// --- transport ---

type apiError struct {
	Error string `json:"error"`
}

func (c *APIClient) do(ctx context.Context, token, method, path string, q url.Values, body, out any) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("http",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		return c.errorFor(method, path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, errs.ErrMalformedResponse, err)
	}
	return nil
}

// errorFor maps HTTP status codes onto the error taxonomy. Authentication
// failures become errs.ErrUnauthorized for the session guard; everything
// else passes through as its own category.
func (c *APIClient) errorFor(method, path string, resp *http.Response) error {
	var ae apiError
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&ae)
	msg := ae.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	var kind error
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		kind = errs.ErrUnauthorized
	case http.StatusNotFound:
		kind = errs.ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = errs.ErrValidation
	case http.StatusTooManyRequests:
		kind = errs.ErrRateLimited
	default:
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, msg)
	}
	return fmt.Errorf("%s %s: %w: %s", method, path, kind, msg)
}
