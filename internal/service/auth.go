// Package service contains application services for authentication and items.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/pantrylab/pantry/internal/crypto"
	"github.com/pantrylab/pantry/internal/errs"
	"github.com/pantrylab/pantry/internal/limiter"
	"github.com/pantrylab/pantry/internal/model"
	"github.com/pantrylab/pantry/internal/repository"
)

// AccessClaims is the JWT payload: subject is the user id, hh the
// household (collection scope) every item call is bound to.
type AccessClaims struct {
	jwt.RegisteredClaims
	HouseholdID string `json:"hh"`
}

// AuthService defines authentication operations.
type AuthService interface {
	// Register creates a new user with its own household.
	Register(ctx context.Context, username, password string) (userID, householdID string, err error)
	// LoginWithIP applies rate-limiting and authenticates the user.
	LoginWithIP(ctx context.Context, username, password, ip string) (model.Tokens, model.User, error)
}

type AuthServiceImpl struct {
	users     repository.UserRepository
	signKey   []byte
	accessTTL time.Duration
	lim       limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, signKey: signKey, accessTTL: accessTTL, lim: lim}
}

// Register creates a new user record with a per-user salt and a fresh household.
func (s *AuthServiceImpl) Register(ctx context.Context, username, password string) (string, string, error) {
	if username == "" || password == "" {
		return "", "", fmt.Errorf("%w: empty username/password", errs.ErrValidation)
	}
	uid, err := uuid.NewV4()
	if err != nil {
		return "", "", err
	}
	hh, err := uuid.NewV4()
	if err != nil {
		return "", "", err
	}
	saltAuth, err := pkgcrypto.NewSalt()
	if err != nil {
		return "", "", err
	}

	u := &model.User{
		ID:          uid,
		Username:    username,
		PwdHash:     pkgcrypto.HashPassword([]byte(password), saltAuth),
		SaltAuth:    saltAuth,
		HouseholdID: hh,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return "", "", err
	}
	return uid.String(), hh.String(), nil
}

// LoginWithIP authenticates with rate limiting by (username, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, username, password, ip string) (model.Tokens, model.User, error) {
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, username, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), u.SaltAuth, u.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, username, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// hide user existence on wrong password or lookup error alike
		return model.Tokens{}, model.User{}, errs.ErrUnauthorized
	}

	// Success: reset counters (best-effort).
	_ = s.lim.Success(ctx, username, ipHash)

	tok, err := s.issueAccessToken(u)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return tok, *u, nil
}

// issueAccessToken creates a signed HS256 JWT carrying the household scope.
func (s *AuthServiceImpl) issueAccessToken(u *model.User) (model.Tokens, error) {
	now := time.Now()
	exp := now.Add(s.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		HouseholdID: u.HouseholdID.String(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	return model.Tokens{AccessToken: signed, ExpiresAt: exp}, nil
}
