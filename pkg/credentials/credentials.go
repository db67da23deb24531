// Package credentials exposes the bearer token a caller presents to the
// storefront services, plus the session key derived from it.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/solecart/pkg/config"
)

var (
	ErrMissing = errors.New("credential missing")
	ErrExpired = errors.New("credential expired")
)

var signingMethod = jwt.SigningMethodHS256

// subjectClaims lists the claims checked, in order, for the session key.
var subjectClaims = []string{"sub", "id", "userId", "_id"}

// Credential is a bearer token whose signature has been verified, plus the
// fields read from it. Expiry is left for callers to judge.
type Credential struct {
	Token     string
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an exp claim in the past.
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Store yields the caller's current credential.
type Store interface {
	Credential(ctx context.Context) (Credential, error)
}

// Parse verifies the token's HS256 signature with the shared secret, and its
// issuer when one is configured, then reads subject and expiry. Expired
// tokens still parse; Check rejects them.
func Parse(cfg config.JWTConfig, token string) (Credential, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Credential{}, ErrMissing
	}
	if cfg.Secret == "" {
		return Credential{}, errors.New("jwt secret is required")
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != signingMethod {
				return nil, fmt.Errorf("unexpected signing method %s", t.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Credential{}, fmt.Errorf("verify token: %w", err)
	}
	if cfg.Issuer != "" {
		iss, err := claims.GetIssuer()
		if err != nil || iss != cfg.Issuer {
			return Credential{}, errors.New("token issuer mismatch")
		}
	}

	cred := Credential{Token: token}
	for _, name := range subjectClaims {
		if v, ok := claims[name].(string); ok && strings.TrimSpace(v) != "" {
			cred.Subject = strings.TrimSpace(v)
			break
		}
	}
	if cred.Subject == "" {
		return Credential{}, errors.New("token has no subject claim")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Credential{}, fmt.Errorf("parse exp claim: %w", err)
	}
	if exp != nil {
		cred.ExpiresAt = exp.Time
	}
	return cred, nil
}

// Check returns the credential when present and unexpired at now.
func Check(ctx context.Context, store Store, now time.Time) (Credential, error) {
	if store == nil {
		return Credential{}, ErrMissing
	}
	cred, err := store.Credential(ctx)
	if err != nil {
		return Credential{}, err
	}
	if strings.TrimSpace(cred.Token) == "" {
		return Credential{}, ErrMissing
	}
	if cred.Expired(now) {
		return Credential{}, ErrExpired
	}
	return cred, nil
}
