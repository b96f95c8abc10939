package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/FACorreiaa/host-ledger/internal/domain/common"
)

var ErrAuthDisabled = errors.New("authentication is not configured")

// HostSubject is the token subject of the single host account
const HostSubject = "host"

const tokenIssuer = "host-ledger"

// TokenPair is an issued access token
type TokenPair struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// TokenManager signs HS256 access tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager creates a token manager; ttl defaults to 12h
func NewTokenManager(secret []byte, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenManager{secret: secret, ttl: ttl, now: time.Now}
}

// Generate signs a token for subject
func (m *TokenManager) Generate(subject string) (*TokenPair, error) {
	if len(m.secret) == 0 {
		return nil, ErrAuthDisabled
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    tokenIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &TokenPair{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expiresAt}, nil
}

// AuthService authenticates the host against a bcrypt password hash
type AuthService struct {
	passwordHash []byte
	tokens       *TokenManager
	logger       *slog.Logger
}

func NewAuthService(passwordHash string, tokens *TokenManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		passwordHash: []byte(passwordHash),
		tokens:       tokens,
		logger:       logger.With(slog.String("component", "auth")),
	}
}

// Login checks the password and issues an access token
func (s *AuthService) Login(_ context.Context, password string) (*TokenPair, error) {
	if len(s.passwordHash) == 0 || s.tokens == nil {
		return nil, ErrAuthDisabled
	}

	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.logger.Warn("login rejected")
			return nil, common.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}

	pair, err := s.tokens.Generate(HostSubject)
	if err != nil {
		return nil, err
	}
	s.logger.Info("host logged in", "expires_at", pair.ExpiresAt)
	return pair, nil
}
