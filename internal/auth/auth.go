// Package auth issues and verifies the HS256 bearer tokens that gate the
// HTTP API. Access is tiered: a higher tier includes every lower one.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/amecontrol/sigtapload/internal/model"
)

type contextKey string

const (
	subjectKey contextKey = "subject"
	tierKey    contextKey = "tier"
)

// TierAdmin is the tier allowed to import procedure codes.
const TierAdmin = 5

// Claims are the token claims. Subject carries the user identity.
type Claims struct {
	jwt.RegisteredClaims
	Tier int    `json:"tier"`
	Name string `json:"name,omitempty"`
}

// JWTConfig configures token verification.
type JWTConfig struct {
	Issuer     string
	SigningKey []byte
}

// Issue signs a token for subject at tier, valid for ttl.
func Issue(cfg JWTConfig, subject string, tier int, ttl time.Duration) (string, error) {
	if len(cfg.SigningKey) == 0 {
		return "", errors.New("signing key is empty")
	}
	if subject == "" {
		return "", errors.New("subject is empty")
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Tier: tier,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// JWTMiddleware rejects requests without a valid bearer token and stores
// the subject and tier on the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return cfg.SigningKey, nil
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), claims, keyFunc, opts...)
			if err != nil || !token.Valid || claims.Subject == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, subjectKey, claims.Subject)
			ctx = context.WithValue(ctx, tierKey, claims.Tier)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// RequireTier rejects requests whose token tier is below min.
func RequireTier(min int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if TierFromContext(c.Request().Context()) < min {
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("requires access tier %d", min))
			}
			return next(c)
		}
	}
}

// IdentityFromContext returns the authenticated subject, or "".
func IdentityFromContext(ctx context.Context) model.Identity {
	sub, _ := ctx.Value(subjectKey).(string)
	return model.Identity(sub)
}

// TierFromContext returns the authenticated tier, or 0.
func TierFromContext(ctx context.Context) int {
	tier, _ := ctx.Value(tierKey).(int)
	return tier
}
