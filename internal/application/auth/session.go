package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"kh-travel-backend/internal/pkg/apperrors"
	"kh-travel-backend/internal/pkg/constants"
	"kh-travel-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Cookie and Redis layout shared with the OAuth front-end that writes sessions.
const (
	SessionCookieName  = "kh.sid"
	SessionKeyPrefix   = "session:"
	UserSessionsPrefix = "user_sessions:"
)

var ErrNotAuthenticated = fmt.Errorf("not authenticated: %w", apperrors.ErrUnauthorized)

// SessionUser is the authenticated caller as seen by handlers.
type SessionUser struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
}

func (u *SessionUser) IsAdmin() bool {
	return u != nil && u.Role == constants.Admin
}

// SessionRequest carries the raw credentials of one request.
type SessionRequest struct {
	Cookie        string
	Authorization string
}

// Provider resolves the current user. A nil user with a nil error means anonymous.
type Provider interface {
	Session(ctx context.Context, req SessionRequest) (*SessionUser, error)
}

// ParseSessionCookie strips the signed-cookie framing "s:<id>.<sig>".
func ParseSessionCookie(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "s:") {
		parts := strings.SplitN(raw[2:], ".", 2)
		return parts[0]
	}
	return raw
}

// RedisSessionProvider reads sessions stored as {"user": {...}} under session:<id>.
type RedisSessionProvider struct {
	Rdb *redis.Client
}

func (p *RedisSessionProvider) Session(ctx context.Context, req SessionRequest) (*SessionUser, error) {
	id := ParseSessionCookie(req.Cookie)
	if id == "" || p.Rdb == nil {
		return nil, nil
	}
	b, err := p.Rdb.Get(ctx, SessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, nil
	}
	user, err := VerifyUser(data["user"])
	if err != nil {
		return nil, nil
	}
	return user, nil
}

// Destroy deletes the session key and unlinks it from the user's session set.
func (p *RedisSessionProvider) Destroy(ctx context.Context, cookie string, user *SessionUser) error {
	id := ParseSessionCookie(cookie)
	if id == "" || p.Rdb == nil {
		return nil
	}
	pipe := p.Rdb.TxPipeline()
	pipe.Del(ctx, SessionKeyPrefix+id)
	if user != nil {
		pipe.SRem(ctx, UserSessionsPrefix+user.UserID.String(), id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

// ChainProvider asks each provider in order and returns the first user found.
type ChainProvider []Provider

func (c ChainProvider) Session(ctx context.Context, req SessionRequest) (*SessionUser, error) {
	var firstErr error
	for _, p := range c {
		user, err := p.Session(ctx, req)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if user != nil {
			return user, nil
		}
	}
	return nil, firstErr
}

// VerifyUser normalizes a stored session user. Both "user_id" and "id" are
// accepted, as are "name" and "fullname"; unknown roles fall back to user.
func VerifyUser(raw interface{}) (*SessionUser, error) {
	m, ok := raw.(map[string]interface{})
	if !ok || m == nil {
		return nil, ErrNotAuthenticated
	}
	idStr := str(m["user_id"])
	if idStr == "" {
		idStr = str(m["id"])
	}
	id, err := uuid.Parse(idStr)
	if err != nil || id == uuid.Nil {
		return nil, ErrNotAuthenticated
	}
	role := str(m["role"])
	if !constants.IsValidRole(role) {
		role = constants.User
	}
	name := str(m["name"])
	if name == "" {
		name = str(m["fullname"])
	}
	email := strings.TrimSpace(str(m["email"]))
	if !validation.IsValidEmail(email) {
		email = ""
	}
	return &SessionUser{
		UserID: id,
		Role:   role,
		Email:  email,
		Name:   name,
	}, nil
}

func str(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
