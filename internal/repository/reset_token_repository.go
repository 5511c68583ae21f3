package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/Maverics-Seneca/auth-service/pkg/errors"
)

const resetTokenPrefix = "auth:reset:"

// ErrResetStoreUnavailable is returned when no Redis client is configured.
var ErrResetStoreUnavailable = errors.New("password reset store unavailable")

// ResetTokenRepository keeps single-use password reset tokens in Redis.
type ResetTokenRepository struct {
	client *redis.Client
}

// NewResetTokenRepository constructs the repository.
func NewResetTokenRepository(client *redis.Client) *ResetTokenRepository {
	return &ResetTokenRepository{client: client}
}

// Save stores token for userID until ttl elapses.
func (r *ResetTokenRepository) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	if r.client == nil {
		return ErrResetStoreUnavailable
	}
	if err := r.client.Set(ctx, resetTokenPrefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

// Consume atomically reads and deletes token, returning the user it was
// issued for. Unknown or expired tokens yield ErrTokenExpired.
func (r *ResetTokenRepository) Consume(ctx context.Context, token string) (string, error) {
	if r.client == nil {
		return "", ErrResetStoreUnavailable
	}
	userID, err := r.client.GetDel(ctx, resetTokenPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", appErrors.ErrTokenExpired
		}
		return "", fmt.Errorf("consume reset token: %w", err)
	}
	return userID, nil
}
