package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testConfig = JWTConfig{
	Issuer:     "sigtapload-test",
	SigningKey: []byte("test-secret-key-for-unit-tests-only"),
}

func runMiddleware(t *testing.T, mw echo.MiddlewareFunc, header string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen echo.Context
	err := mw(func(c echo.Context) error {
		seen = c
		return c.String(http.StatusOK, "ok")
	})(c)
	return seen, err
}

func assertHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected %d, got %d", code, httpErr.Code)
	}
}

func TestIssueAndVerify(t *testing.T) {
	token, err := Issue(testConfig, "maria", TierAdmin, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	c, err := runMiddleware(t, JWTMiddleware(testConfig), "Bearer "+token)
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	ctx := c.Request().Context()
	if got := IdentityFromContext(ctx); got != "maria" {
		t.Errorf("identity = %q, want maria", got)
	}
	if got := TierFromContext(ctx); got != TierAdmin {
		t.Errorf("tier = %d, want %d", got, TierAdmin)
	}
}

func TestIssue_Rejects(t *testing.T) {
	if _, err := Issue(JWTConfig{}, "x", 1, time.Hour); err == nil {
		t.Error("expected error for empty signing key")
	}
	if _, err := Issue(testConfig, "", 1, time.Hour); err == nil {
		t.Error("expected error for empty subject")
	}
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	expired, err := Issue(testConfig, "maria", TierAdmin, -time.Minute)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	otherIssuer, err := Issue(JWTConfig{Issuer: "someone-else", SigningKey: testConfig.SigningKey}, "maria", TierAdmin, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	wrongKey, err := Issue(JWTConfig{Issuer: testConfig.Issuer, SigningKey: []byte("another-key")}, "maria", TierAdmin, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "maria", Issuer: testConfig.Issuer},
		Tier:             TierAdmin,
	}).SignedString(testConfig.SigningKey)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no bearer prefix", "Token abc123"},
		{"empty token", "Bearer "},
		{"garbage", "Bearer not-a-jwt"},
		{"expired", "Bearer " + expired},
		{"wrong issuer", "Bearer " + otherIssuer},
		{"wrong key", "Bearer " + wrongKey},
		{"no expiry", "Bearer " + noExpiry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runMiddleware(t, JWTMiddleware(testConfig), tt.header)
			assertHTTPError(t, err, http.StatusUnauthorized)
		})
	}
}

func TestRequireTier(t *testing.T) {
	tests := []struct {
		name    string
		tier    int
		wantErr bool
	}{
		{"below", TierAdmin - 1, true},
		{"exact", TierAdmin, false},
		{"above", TierAdmin + 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := Issue(testConfig, "u", tt.tier, time.Hour)
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			chain := func(next echo.HandlerFunc) echo.HandlerFunc {
				return JWTMiddleware(testConfig)(RequireTier(TierAdmin)(next))
			}
			_, err = runMiddleware(t, chain, "Bearer "+token)
			if tt.wantErr {
				assertHTTPError(t, err, http.StatusForbidden)
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
