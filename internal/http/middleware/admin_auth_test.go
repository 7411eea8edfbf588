package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func serveAdmin(t *testing.T, secret, authHeader string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/admin/catalog", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	called := false
	AdminJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := AdminClaimsFromContext(r.Context())
		if !ok {
			t.Fatalf("expected admin claims in context")
		}
		if claims.Subject != "ops" {
			t.Fatalf("expected subject ops, got %q", claims.Subject)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec, called
}

func TestAdminJWTRejects(t *testing.T) {
	expired := signedAdminToken(t, "secret", jwt.SigningMethodHS256, time.Now().Add(-time.Minute))
	noExpiry := signedAdminToken(t, "secret", jwt.SigningMethodHS256, time.Time{})
	hs512 := signedAdminToken(t, "secret", jwt.SigningMethodHS512, time.Now().Add(time.Minute))

	tests := []struct {
		name   string
		secret string
		header string
	}{
		{name: "auth disabled", secret: "", header: "Bearer " + signedAdminToken(t, "anything", jwt.SigningMethodHS256, time.Now().Add(time.Minute))},
		{name: "missing header", secret: "secret"},
		{name: "not bearer", secret: "secret", header: "Basic abc"},
		{name: "wrong secret", secret: "secret", header: "Bearer " + signedAdminToken(t, "wrong", jwt.SigningMethodHS256, time.Now().Add(time.Minute))},
		{name: "expired", secret: "secret", header: "Bearer " + expired},
		{name: "no expiry", secret: "secret", header: "Bearer " + noExpiry},
		{name: "other algorithm", secret: "secret", header: "Bearer " + hs512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, called := serveAdmin(t, tt.secret, tt.header)
			if called {
				t.Fatalf("handler must not run")
			}
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
			}
		})
	}
}

func TestAdminJWTValidToken(t *testing.T) {
	rec, called := serveAdmin(t, "secret", "Bearer "+signedAdminToken(t, "secret", jwt.SigningMethodHS256, time.Now().Add(5*time.Minute)))
	if !called {
		t.Fatalf("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func signedAdminToken(t *testing.T, secret string, method jwt.SigningMethod, expires time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "ops"}
	if !expires.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expires)
	}
	signed, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
