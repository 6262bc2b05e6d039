package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/lintaskurir/lintaskurir/internal/shared"
)

// TokenStore keeps bearer tokens in Redis, token -> actor JSON with TTL.
type TokenStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTokenStore constructs the store.
func NewTokenStore(client *redis.Client, ttl time.Duration) *TokenStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenStore{client: client, ttl: ttl}
}

// Issue generates a fresh token for the actor.
func (s *TokenStore) Issue(ctx context.Context, actor shared.Actor) (string, error) {
	token := uuid.NewString()
	data, err := json.Marshal(actor)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, tokenKey(token), data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store token: %w", err)
	}
	return token, nil
}

// Resolve maps a bearer token back to its actor.
func (s *TokenStore) Resolve(ctx context.Context, token string) (*shared.Actor, error) {
	if token == "" {
		return nil, fmt.Errorf("auth: empty token: %w", shared.ErrInvalidCredentials)
	}
	payload, err := s.client.Get(ctx, tokenKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("auth: unknown token: %w", shared.ErrInvalidCredentials)
		}
		return nil, err
	}
	var actor shared.Actor
	if err := json.Unmarshal(payload, &actor); err != nil {
		return nil, err
	}
	if !actor.Role.IsValid() {
		return nil, fmt.Errorf("auth: token carries unknown role: %w", shared.ErrInvalidCredentials)
	}
	return &actor, nil
}

// Revoke deletes a token, ending the session.
func (s *TokenStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, tokenKey(token)).Err()
}

func tokenKey(token string) string {
	return "token:" + token
}
