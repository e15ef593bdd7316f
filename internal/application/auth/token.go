package auth

import (
	"context"
	"strings"

	"kh-travel-backend/internal/pkg/constants"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Claims of the HS256 bearer tokens minted by the front-end.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenProvider authenticates "Authorization: Bearer <jwt>" requests.
type TokenProvider struct {
	Secret []byte
}

func (p *TokenProvider) Session(_ context.Context, req SessionRequest) (*SessionUser, error) {
	raw, ok := bearer(req.Authorization)
	if !ok || len(p.Secret) == 0 {
		return nil, nil
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return p.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		log.Debug().Err(err).Msg("bearer token rejected")
		return nil, nil
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil || id == uuid.Nil {
		return nil, nil
	}
	role := claims.Role
	if !constants.IsValidRole(role) {
		role = constants.User
	}
	return &SessionUser{UserID: id, Role: role, Email: claims.Email, Name: claims.Name}, nil
}

func bearer(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}
