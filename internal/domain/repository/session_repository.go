package repository

import (
	"context"
	"time"
)

// Session is the server side record behind an access token.
type Session struct {
	UserID    string
	SessionID string
	Name      string
	Email     string
	Role      string
	CreatedAt time.Time
}

type SessionRepository interface {
	Save(ctx context.Context, s Session, ttl time.Duration) error
	// Get returns ErrNotFound when no live session exists for userID.
	Get(ctx context.Context, userID string) (*Session, error)
	// Patch updates the given fields of an existing session and keeps its TTL.
	// Missing sessions are ignored.
	Patch(ctx context.Context, userID string, fields map[string]string) error
	Delete(ctx context.Context, userID string) error
}

// TokenKind namespaces one-time tokens.
type TokenKind string

const (
	TokenVerifyEmail   TokenKind = "email:verify"
	TokenResetPassword TokenKind = "pwd:reset"
)

type TokenRepository interface {
	Put(ctx context.Context, kind TokenKind, token, userID string, ttl time.Duration) error
	// Take returns the user bound to token and invalidates it; ErrNotFound when unknown or expired.
	Take(ctx context.Context, kind TokenKind, token string) (string, error)
}
