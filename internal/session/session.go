package session

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound covers both unknown and expired session ids; callers treat
// them the same.
var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        string    `json:"id"`
	UserID    int       `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store maps opaque session ids to authenticated-user context for the
// auth transport.
type Store interface {
	Create(ctx context.Context, userID int, ttl time.Duration) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Destroy(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
