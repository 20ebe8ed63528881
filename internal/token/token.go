// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PetNova Contributors

// Package token issues and validates signed, time-bounded bearer tokens.
//
// Tokens are HS256 JWTs carrying the registered claims sub, iss, aud, iat,
// nbf, exp and jti plus a private role claim. Validation needs nothing but
// the token and the signing key; there is no revocation list, so expiry is
// the only way a token stops being valid.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// MinKeyLength is the minimum HS256 signing key length in bytes.
const MinKeyLength = 32

// Rejection reasons. Validate wraps exactly one of these.
var (
	ErrMalformed     = errors.New("token malformed")
	ErrBadSignature  = errors.New("token signature invalid")
	ErrExpired       = errors.New("token expired")
	ErrNotYetValid   = errors.New("token not valid yet")
	ErrWrongIssuer   = errors.New("token issuer mismatch")
	ErrWrongAudience = errors.New("token audience mismatch")
)

// Config holds the signing parameters. NewService copies it; later changes
// to the caller's value have no effect.
type Config struct {
	SigningKey []byte
	Issuer     string
	Audience   string
	Lifetime   time.Duration
}

// Validate checks that every field is usable.
func (c Config) Validate() error {
	if len(c.SigningKey) < MinKeyLength {
		return oops.Code("TOKEN_INVALID_CONFIG").
			With("field", "signing_key").
			With("min_length", MinKeyLength).
			Errorf("signing key must be at least %d bytes", MinKeyLength)
	}
	if c.Issuer == "" {
		return oops.Code("TOKEN_INVALID_CONFIG").With("field", "issuer").Errorf("issuer is required")
	}
	if c.Audience == "" {
		return oops.Code("TOKEN_INVALID_CONFIG").With("field", "audience").Errorf("audience is required")
	}
	if c.Lifetime <= 0 {
		return oops.Code("TOKEN_INVALID_CONFIG").With("field", "lifetime").Errorf("lifetime must be positive")
	}
	return nil
}

// Identity is the subject a token is issued for.
type Identity struct {
	UserID string
	Role   string
}

// Claims are the decoded contents of a valid token.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *Claims) UserID() string { return c.Subject }

// Service issues and validates tokens.
type Service struct {
	key      []byte
	issuer   string
	audience string
	lifetime time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service from cfg.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Service{
		key:      append([]byte(nil), cfg.SigningKey...),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		lifetime: cfg.Lifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s, nil
}

// Lifetime returns how long issued tokens stay valid.
func (s *Service) Lifetime() time.Duration { return s.lifetime }

// Issue signs a token for id. It returns the token and its expiry.
func (s *Service) Issue(id Identity) (string, time.Time, error) {
	if id.UserID == "" {
		return "", time.Time{}, oops.Code("TOKEN_INVALID_IDENTITY").Errorf("user id is required")
	}

	now := s.now().Truncate(time.Second)
	expiresAt := now.Add(s.lifetime)

	claims := Claims{
		Role: id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   id.UserID,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, oops.Code("TOKEN_SIGN_FAILED").With("user_id", id.UserID).Wrap(err)
	}
	return signed, expiresAt, nil
}

// Validate verifies the token's signature, issuer, audience and lifetime
// and returns its claims. A rejection wraps one of the Err* reasons.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, reject(ErrMalformed, "TOKEN_MALFORMED", errors.New("empty token"))
	}

	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if claims.Subject == "" {
		return nil, reject(ErrMalformed, "TOKEN_MALFORMED", errors.New("missing subject"))
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return reject(ErrMalformed, "TOKEN_MALFORMED", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return reject(ErrBadSignature, "TOKEN_BAD_SIGNATURE", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return reject(ErrExpired, "TOKEN_EXPIRED", err)
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return reject(ErrNotYetValid, "TOKEN_NOT_YET_VALID", err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return reject(ErrWrongIssuer, "TOKEN_WRONG_ISSUER", err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return reject(ErrWrongAudience, "TOKEN_WRONG_AUDIENCE", err)
	default:
		return reject(ErrMalformed, "TOKEN_MALFORMED", err)
	}
}

func reject(reason error, code string, cause error) error {
	return oops.Code(code).With("reason", Reason(reason)).Wrap(errors.Join(reason, cause))
}

// Reason returns a stable label for a Validate error, for logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrNotYetValid):
		return "not_yet_valid"
	case errors.Is(err, ErrWrongIssuer):
		return "wrong_issuer"
	case errors.Is(err, ErrWrongAudience):
		return "wrong_audience"
	default:
		return "unknown"
	}
}
