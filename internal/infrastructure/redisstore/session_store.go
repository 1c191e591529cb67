package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/civic-report/internal/domain/repository"
)

func SessionKey(userID string) string {
	return "user:session:" + userID
}

// SessionStore keeps sessions as redis hashes keyed by user id.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func (s *SessionStore) Save(ctx context.Context, sess repository.Session, ttl time.Duration) error {
	key := SessionKey(sess.UserID)
	created := sess.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]any{
		"user_id":    sess.UserID,
		"sid":        sess.SessionID,
		"name":       sess.Name,
		"email":      sess.Email,
		"role":       sess.Role,
		"created_at": created.UTC().Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *SessionStore) Get(ctx context.Context, userID string) (*repository.Session, error) {
	data, err := s.rdb.HGetAll(ctx, SessionKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, repository.ErrNotFound
	}
	sess := &repository.Session{
		UserID:    data["user_id"],
		SessionID: data["sid"],
		Name:      data["name"],
		Email:     data["email"],
		Role:      data["role"],
	}
	if t, err := time.Parse(time.RFC3339Nano, data["created_at"]); err == nil {
		sess.CreatedAt = t
	}
	return sess, nil
}

func (s *SessionStore) Patch(ctx context.Context, userID string, fields map[string]string) error {
	key := SessionKey(userID)
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil || n == 0 {
		return err
	}
	values := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		values[k] = v
	}
	values["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	// HSET does not touch the TTL of an existing key
	return s.rdb.HSet(ctx, key, values).Err()
}

func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, SessionKey(userID)).Err()
}

// TokenStore maps one-time tokens to user ids.
type TokenStore struct {
	rdb *redis.Client
}

func NewTokenStore(rdb *redis.Client) *TokenStore {
	return &TokenStore{rdb: rdb}
}

func tokenKey(kind repository.TokenKind, token string) string {
	return string(kind) + ":token:" + token
}

func (s *TokenStore) Put(ctx context.Context, kind repository.TokenKind, token, userID string, ttl time.Duration) error {
	return s.rdb.Set(ctx, tokenKey(kind, token), userID, ttl).Err()
}

func (s *TokenStore) Take(ctx context.Context, kind repository.TokenKind, token string) (string, error) {
	uid, err := s.rdb.GetDel(ctx, tokenKey(kind, token)).Result()
	if errors.Is(err, redis.Nil) || (err == nil && uid == "") {
		return "", repository.ErrNotFound
	}
	return uid, err
}

var (
	_ repository.SessionRepository = (*SessionStore)(nil)
	_ repository.TokenRepository   = (*TokenStore)(nil)
)
