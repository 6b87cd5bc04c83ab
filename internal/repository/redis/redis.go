package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found or expired")

type SessionData struct {
	ClientID  uint64    `json:"client_id"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionRepository keeps the set of live session tokens. A token that is
// not registered here is treated as logged out.
type SessionRepository struct {
	client *redis.Client
	now    func() time.Time
}

func NewSessionRepository(client *redis.Client) *SessionRepository {
	return &SessionRepository{
		client: client,
		now:    time.Now,
	}
}

// tokens are stored hashed, key format "session:token:{sha256}"
func sessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "session:token:" + hex.EncodeToString(sum[:])
}

func clientKey(clientID uint64) string {
	return fmt.Sprintf("session:client:%d", clientID)
}

func (r *SessionRepository) Register(ctx context.Context, token string, clientID uint64, ttl time.Duration) error {
	now := r.now()
	jsonData, err := json.Marshal(SessionData{
		ClientID:  clientID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	key := sessionKey(token)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, jsonData, ttl)
	pipe.SAdd(ctx, clientKey(clientID), key)
	pipe.Expire(ctx, clientKey(clientID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session in Redis: %w", err)
	}

	return nil
}

// Lookup returns the session registered for token.
func (r *SessionRepository) Lookup(ctx context.Context, token string) (SessionData, error) {
	val, err := r.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return SessionData{}, ErrSessionNotFound
		}
		return SessionData{}, fmt.Errorf("failed to get session from Redis: %w", err)
	}

	var data SessionData
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return SessionData{}, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	return data, nil
}

func (r *SessionRepository) IsActive(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, sessionKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to validate session: %w", err)
	}
	return n > 0, nil
}

func (r *SessionRepository) Revoke(ctx context.Context, token string) error {
	key := sessionKey(token)

	data, err := r.Lookup(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, clientKey(data.ClientID), key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}

// RevokeAll drops every session of a client, used after a password reset.
func (r *SessionRepository) RevokeAll(ctx context.Context, clientID uint64) error {
	keys, err := r.client.SMembers(ctx, clientKey(clientID)).Result()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	keys = append(keys, clientKey(clientID))
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}

	return nil
}
