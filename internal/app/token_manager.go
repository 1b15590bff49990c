package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/dezhurka/internal/models"
)

const (
	timeFormat     = "2006-01-02 15:04:05"
	sessionKeyTpl  = "session:%s" // session:${token}
	chatKeyTpl     = "chat:%d"    // chat:${chatID}
	tokenPrefix    = "sk-dzh-"
	tokenRandBytes = 12
)

// TokenManager keeps capability tokens and verified chats in redis.
// Both expire on their own; nothing here is ever swept.
type TokenManager struct {
	redis *redis.Client
}

func NewTokenManager(redis *redis.Client) *TokenManager {
	return &TokenManager{redis: redis}
}

func generateToken() (string, error) {
	randomBytes := make([]byte, tokenRandBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

func (tm *TokenManager) Issue(ctx context.Context, ttl time.Duration) (*models.SessionToken, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := time.Now().UTC()
	key := fmt.Sprintf(sessionKeyTpl, token)

	pipe := tm.redis.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"request_count":         0,
		"created_dttm_utc":      now.Format(timeFormat),
		"last_request_dttm_utc": now.Format(timeFormat),
	})
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	return &models.SessionToken{
		Token:       token,
		CreatedTime: now,
		ExpiresTime: now.Add(ttl),
	}, nil
}

// Touch reports whether token is live and bumps its request counter.
func (tm *TokenManager) Touch(ctx context.Context, token string) (bool, error) {
	key := fmt.Sprintf(sessionKeyTpl, token)

	exists, err := tm.redis.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token: %w", err)
	}
	if exists == 0 {
		return false, nil
	}

	pipe := tm.redis.Pipeline()
	pipe.HIncrBy(ctx, key, "request_count", 1)
	pipe.HSet(ctx, key, "last_request_dttm_utc", time.Now().UTC().Format(timeFormat))
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to update token stats: %w", err)
	}

	return true, nil
}

func (tm *TokenManager) RequestCount(ctx context.Context, token string) (int, error) {
	key := fmt.Sprintf(sessionKeyTpl, token)
	raw, err := tm.redis.HGet(ctx, key, "request_count").Result()
	if err == redis.Nil {
		return 0, fmt.Errorf("token not found")
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(raw)
}

func (tm *TokenManager) Revoke(ctx context.Context, token string) error {
	return tm.redis.Del(ctx, fmt.Sprintf(sessionKeyTpl, token)).Err()
}

func (tm *TokenManager) VerifyChat(ctx context.Context, chatID int64, ttl time.Duration) error {
	key := fmt.Sprintf(chatKeyTpl, chatID)
	return tm.redis.Set(ctx, key, time.Now().UTC().Format(timeFormat), ttl).Err()
}

func (tm *TokenManager) ChatVerified(ctx context.Context, chatID int64) (bool, error) {
	n, err := tm.redis.Exists(ctx, fmt.Sprintf(chatKeyTpl, chatID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check chat %d: %w", chatID, err)
	}
	return n > 0, nil
}

func (tm *TokenManager) ForgetChat(ctx context.Context, chatID int64) error {
	return tm.redis.Del(ctx, fmt.Sprintf(chatKeyTpl, chatID)).Err()
}

func (tm *TokenManager) Close() error {
	if tm.redis != nil {
		return tm.redis.Close()
	}
	return nil
}
