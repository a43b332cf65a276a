// Package identity answers "who am I" from the bearer credential. The
// token is parsed without verification: signature checks are the
// server's job, the client only needs its own subject for the
// user-scoped notification topic and display.
package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSubject = errors.New("identity: token has no subject")

// Identity is the authenticated user as far as the client cares.
type Identity struct {
	UserID string
	Name   string
}

// FromToken extracts the identity from a bearer JWT.
func FromToken(token string) (*Identity, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("identity: parse token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrNoSubject
	}

	id := &Identity{UserID: sub}
	if name, ok := claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}
