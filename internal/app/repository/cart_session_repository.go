package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lfk/lfk-backend/internal/app/model"
	"github.com/lfk/lfk-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// CartSessionRepository persists one cart session per user. Load returns an
// empty session for a user without one.
type CartSessionRepository interface {
	Load(ctx context.Context, userID uint) (*model.CartSession, error)
	Save(ctx context.Context, session *model.CartSession) error
	Delete(ctx context.Context, userID uint) error
}

// SessionStore is the subset of *redis.Client the repository uses.
type SessionStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisCartSessionRepository struct {
	store SessionStore
	ttl   time.Duration
}

// NewRedisCartSessionRepository stores sessions as JSON with a sliding TTL
// refreshed on every save.
func NewRedisCartSessionRepository(store SessionStore, ttl time.Duration) CartSessionRepository {
	return &redisCartSessionRepository{store: store, ttl: ttl}
}

func cartSessionKey(userID uint) string {
	return fmt.Sprintf("cart:session:%d", userID)
}

func (r *redisCartSessionRepository) Load(ctx context.Context, userID uint) (*model.CartSession, error) {
	key := cartSessionKey(userID)
	raw, err := r.store.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		logger.Debug("No cart session in redis", map[string]interface{}{
			"user_id": userID,
		})
		return &model.CartSession{UserID: userID}, nil
	}
	if err != nil {
		logger.Error("Failed to load cart session", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	var session model.CartSession
	if err := json.Unmarshal(raw, &session); err != nil {
		logger.Warn("Discarding unreadable cart session", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return &model.CartSession{UserID: userID}, nil
	}
	session.UserID = userID
	return &session, nil
}

func (r *redisCartSessionRepository) Save(ctx context.Context, session *model.CartSession) error {
	session.UpdatedAt = time.Now()
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode cart session: %w", err)
	}

	if err := r.store.Set(ctx, cartSessionKey(session.UserID), raw, r.ttl).Err(); err != nil {
		logger.Error("Failed to save cart session", err, map[string]interface{}{
			"user_id": session.UserID,
		})
		return err
	}

	logger.Debug("Cart session saved", map[string]interface{}{
		"user_id": session.UserID,
		"items":   len(session.Cart.Items),
		"ttl":     r.ttl.String(),
	})
	return nil
}

func (r *redisCartSessionRepository) Delete(ctx context.Context, userID uint) error {
	if err := r.store.Del(ctx, cartSessionKey(userID)).Err(); err != nil {
		logger.Error("Failed to delete cart session", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}
	return nil
}

type memoryCartSessionRepository struct {
	mu       sync.Mutex
	sessions map[uint][]byte
}

// NewMemoryCartSessionRepository keeps sessions in process memory. Sessions
// are stored encoded so callers never share state with the repository.
func NewMemoryCartSessionRepository() CartSessionRepository {
	return &memoryCartSessionRepository{sessions: make(map[uint][]byte)}
}

func (r *memoryCartSessionRepository) Load(ctx context.Context, userID uint) (*model.CartSession, error) {
	r.mu.Lock()
	raw, ok := r.sessions[userID]
	r.mu.Unlock()
	if !ok {
		return &model.CartSession{UserID: userID}, nil
	}

	var session model.CartSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode cart session: %w", err)
	}
	return &session, nil
}

func (r *memoryCartSessionRepository) Save(ctx context.Context, session *model.CartSession) error {
	session.UpdatedAt = time.Now()
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode cart session: %w", err)
	}

	r.mu.Lock()
	r.sessions[session.UserID] = raw
	r.mu.Unlock()
	return nil
}

func (r *memoryCartSessionRepository) Delete(ctx context.Context, userID uint) error {
	r.mu.Lock()
	delete(r.sessions, userID)
	r.mu.Unlock()
	return nil
}
