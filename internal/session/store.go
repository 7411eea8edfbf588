package session

import "context"

// Store maps a sender identifier to its dialogue state. Get never returns a
// nil session without an error: unknown or expired senders get New().
type Store interface {
	Get(ctx context.Context, sender string) (*Session, error)
	Put(ctx context.Context, sender string, s *Session) error
	Reset(ctx context.Context, sender string) error
}
