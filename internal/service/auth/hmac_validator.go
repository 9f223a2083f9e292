package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/phrazzld/duecall/internal/config"
	"github.com/phrazzld/duecall/internal/platform/logger"
)

const defaultClockSkew = 2 * time.Minute

// hmacValidator validates HS256 tokens signed with the configured secret.
type hmacValidator struct {
	signingKey []byte
	timeFunc   func() time.Time
	clockSkew  time.Duration
}

var _ TokenValidator = (*hmacValidator)(nil)

// NewTokenValidator creates a validator for HMAC-SHA256 signed tokens.
func NewTokenValidator(cfg config.AuthConfig) (TokenValidator, error) {
	return newHMACValidator(cfg.JWTSecret, time.Now)
}

func newHMACValidator(secret string, timeFunc func() time.Time) (*hmacValidator, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 characters")
	}

	return &hmacValidator{
		signingKey: []byte(secret),
		timeFunc:   timeFunc,
		clockSkew:  defaultClockSkew,
	}, nil
}

// ValidateToken parses the token and maps jwt errors to the package sentinels.
// A token without an expiry or subject is rejected.
func (v *hmacValidator) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)

	if tokenString == "" {
		return nil, ErrMissingToken
	}

	now := v.timeFunc()
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time {
			return now
		}),
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.signingKey, nil
		},
		parserOpts...)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("token validation failed: token expired", "error", err)
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug("token validation failed: token not yet valid", "error", err)
			return nil, ErrTokenNotYetValid
		case errors.Is(err, jwt.ErrTokenMalformed):
			log.Debug("token validation failed: malformed token", "error", err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			log.Debug("token validation failed: invalid signature", "error", err)
		default:
			log.Debug("token validation failed: other validation error",
				"error", err,
				"error_type", fmt.Sprintf("%T", err))
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		log.Debug("token validation failed: invalid claims")
		return nil, ErrInvalidToken
	}

	out := &Claims{
		Subject: claims.Subject,
		ID:      claims.ID,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}

	log.Debug("token validated successfully",
		"subject", out.Subject,
		"token_id", out.ID,
		"expiry", out.ExpiresAt)

	return out, nil
}
