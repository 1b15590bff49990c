// internal/app/auth.go
package app

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"
	"golang.org/x/crypto/bcrypt"

	"github.com/shrimpsizemoose/dezhurka/internal/models"
)

var (
	ErrWrongPasscode = errors.New("invite code is wrong")
	ErrUnauthorized  = errors.New("unauthorized")
)

// Auth trades the shared passcode for a capability token. With auth
// disabled every check passes.
type Auth struct {
	enabled      bool
	passcode     string
	passcodeHash []byte
	tokenHeader  string
	ttl          time.Duration
	tokens       *TokenManager
}

func NewAuth(config *Config) (*Auth, error) {
	if !config.Server.EnableAuth {
		return &Auth{enabled: false}, nil
	}

	opt, err := redis.ParseURL(config.Auth.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewAuthWithClient(config, client), nil
}

// NewAuthWithClient builds an enabled Auth on an existing redis client.
func NewAuthWithClient(config *Config, client *redis.Client) *Auth {
	a := &Auth{
		enabled:     true,
		passcode:    config.Auth.Passcode,
		tokenHeader: config.Auth.TokenHeader,
		ttl:         config.SessionLifetime(),
		tokens:      NewTokenManager(client),
	}
	if config.Auth.PasscodeHash != "" {
		a.passcodeHash = []byte(config.Auth.PasscodeHash)
	}
	if a.tokenHeader == "" {
		a.tokenHeader = defaultTokenHeader
	}
	return a
}

func (a *Auth) Enabled() bool {
	return a.enabled
}

func (a *Auth) Close() error {
	if a.tokens != nil {
		return a.tokens.Close()
	}
	return nil
}

// CheckPasscode compares code to the bcrypt hash when configured, else to the plain passcode.
func (a *Auth) CheckPasscode(code string) bool {
	code = strings.TrimSpace(code)
	if code == "" {
		return false
	}
	if len(a.passcodeHash) > 0 {
		return bcrypt.CompareHashAndPassword(a.passcodeHash, []byte(code)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(a.passcode)) == 1
}

// Login issues a token for a correct passcode. With auth disabled it returns
// an empty token and no error.
func (a *Auth) Login(ctx context.Context, code string) (*models.SessionToken, error) {
	if !a.enabled {
		return &models.SessionToken{}, nil
	}
	if !a.CheckPasscode(code) {
		return nil, ErrWrongPasscode
	}
	return a.tokens.Issue(ctx, a.ttl)
}

func (a *Auth) Logout(ctx context.Context, token string) error {
	if !a.enabled {
		return nil
	}
	return a.tokens.Revoke(ctx, token)
}

func (a *Auth) ValidateToken(ctx context.Context, token string) error {
	if !a.enabled {
		return nil
	}
	if token == "" {
		return ErrUnauthorized
	}

	ok, err := a.tokens.Touch(ctx, token)
	if err != nil {
		logger.Debug.Printf("Redis error: %v", err)
		return fmt.Errorf("redis error: %w", err)
	}
	if !ok {
		logger.Debug.Printf("Token not found: %s", token)
		return ErrUnauthorized
	}
	return nil
}

// TokenFromRequest extracts the bearer token from the configured header.
func (a *Auth) TokenFromRequest(r *http.Request) (string, error) {
	authHeader := r.Header.Get(a.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", fmt.Errorf("Invalid authorization header format")
	}
	return strings.TrimPrefix(authHeader, "Bearer "), nil
}

func (a *Auth) ValidateRequest(r *http.Request) error {
	if !a.enabled {
		return nil
	}
	token, err := a.TokenFromRequest(r)
	if err != nil {
		return ErrUnauthorized
	}
	return a.ValidateToken(r.Context(), token)
}

// LoginChat marks a chat as verified for one session lifetime.
func (a *Auth) LoginChat(ctx context.Context, chatID int64, code string) error {
	if !a.enabled {
		return nil
	}
	if !a.CheckPasscode(code) {
		return ErrWrongPasscode
	}
	return a.tokens.VerifyChat(ctx, chatID, a.ttl)
}

func (a *Auth) ChatAllowed(ctx context.Context, chatID int64) (bool, error) {
	if !a.enabled {
		return true, nil
	}
	return a.tokens.ChatVerified(ctx, chatID)
}

func (a *Auth) LogoutChat(ctx context.Context, chatID int64) error {
	if !a.enabled {
		return nil
	}
	return a.tokens.ForgetChat(ctx, chatID)
}
