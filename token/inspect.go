package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotAToken is returned when the input is not a parseable JWT.
var ErrNotAToken = errors.New("not a jwt")

// Claims is the unverified metadata carried by an access token. Zero
// values mean the claim was absent.
//
// Claims instances are intended to be treated as read-only snapshots of the token body.
type Claims struct {
	Subject   string
	Issuer    string
	Audience  []string
	IssuedAt  int64 // unix seconds
	ExpiresAt int64 // unix seconds
	TokenID   string
}

// Inspect parses raw as a JWT without verifying its signature and returns
// the registered claims. The result carries no trust: use it for display
// and local bookkeeping only.
func Inspect(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrNotAToken
	}

	parser := jwt.NewParser()
	var registered jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(raw, &registered); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrNotAToken, err)
	}

	c := Claims{
		Subject:  registered.Subject,
		Issuer:   registered.Issuer,
		Audience: registered.Audience,
		TokenID:  registered.ID,
	}
	if registered.IssuedAt != nil {
		c.IssuedAt = registered.IssuedAt.Unix()
	}
	if registered.ExpiresAt != nil {
		c.ExpiresAt = registered.ExpiresAt.Unix()
	}
	return c, nil
}
