// Package service implements the identity provider: account passwords and
// the session tokens the dashboard routes authenticate with.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/walletpilot/pilot/internal/model"
	"github.com/walletpilot/pilot/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrNotRefreshToken    = errors.New("not a refresh token")
)

const (
	accessTokenTTL  = time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

// Principal is the authenticated account behind a session token.
type Principal struct {
	AccountID string
	Email     string
	Plan      string
}

type AuthService struct {
	store     *store.Store
	jwtSecret []byte
}

func NewAuthService(st *store.Store, jwtSecret string) *AuthService {
	return &AuthService{
		store:     st,
		jwtSecret: []byte(jwtSecret),
	}
}

// CreateAccount registers a new account with a bcrypt-hashed password.
func (s *AuthService) CreateAccount(ctx context.Context, email, password, name, company string) (*model.Account, error) {
	if _, err := s.store.GetAccountByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acct := &model.Account{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Company:      company,
		Plan:         model.PlanFree,
		IsActive:     true,
	}
	if err := s.store.CreateAccount(ctx, acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// SignIn verifies email and password and returns the account. Unknown
// emails and bad passwords are indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*model.Account, error) {
	acct, err := s.store.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !acct.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.store.UpdateAccountLastLogin(ctx, acct.ID); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	return acct, nil
}

// IssueTokens creates the access and refresh token pair for an account.
func (s *AuthService) IssueTokens(ctx context.Context, acct *model.Account) (access, refresh string, err error) {
	access, err = s.signToken(acct, "access", accessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.signToken(acct, "refresh", refreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// ValidateToken verifies an access token and resolves its account.
func (s *AuthService) ValidateToken(ctx context.Context, tokenStr string) (*Principal, error) {
	claims, err := s.parseToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != "access" {
		return nil, ErrInvalidCredentials
	}
	return &Principal{
		AccountID: claims.Subject,
		Email:     claims.Email,
		Plan:      claims.Plan,
	}, nil
}

// Refresh exchanges a refresh token for a fresh token pair. The account is
// re-read so plan changes and deactivations take effect.
func (s *AuthService) Refresh(ctx context.Context, tokenStr string) (access, refresh string, err error) {
	claims, err := s.parseToken(tokenStr)
	if err != nil {
		return "", "", err
	}
	if claims.TokenType != "refresh" {
		return "", "", ErrNotRefreshToken
	}

	acct, err := s.store.GetAccount(ctx, claims.Subject)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}
	if !acct.IsActive {
		return "", "", ErrInvalidCredentials
	}
	return s.IssueTokens(ctx, acct)
}

func (s *AuthService) signToken(acct *model.Account, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Email:     acct.Email,
		Plan:      acct.Plan,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   acct.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "pilot",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) parseToken(tokenStr string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

type sessionClaims struct {
	Email     string `json:"email"`
	Plan      string `json:"plan"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}
