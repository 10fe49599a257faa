package verification

import (
	"context"
	"time"
)

// Store persists pending verification codes and verified-email markers.
// Both entries are TTL-bound; a missing key means the code or window expired.
type Store interface {
	SaveCode(ctx context.Context, email, code string, ttl time.Duration) error
	GetCode(ctx context.Context, email string) (string, bool, error)
	DeleteCode(ctx context.Context, email string) error
	MarkVerified(ctx context.Context, email string, window time.Duration) error
	IsVerified(ctx context.Context, email string) (bool, error)
}
