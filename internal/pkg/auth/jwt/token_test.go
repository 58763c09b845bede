package jwt

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestGenerateAndParseToken(t *testing.T) {
	tok, err := GenerateToken(&Payload{Operator: "ops", Role: RoleAdmin}, testSecret, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	payload, err := ParseToken(tok, testSecret)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if payload.Operator != "ops" || payload.Role != RoleAdmin || payload.Issuer != TokenIssuer {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestParseTokenRejects(t *testing.T) {
	good, _ := GenerateToken(&Payload{Role: RoleAdmin}, testSecret, time.Minute)
	expired, _ := GenerateToken(&Payload{Role: RoleAdmin}, testSecret, -time.Minute)

	if _, err := ParseToken(good, "other-secret"); err == nil {
		t.Error("expected wrong secret to fail")
	}
	if _, err := ParseToken(expired, testSecret); err == nil {
		t.Error("expected expired token to fail")
	}
	if _, err := ParseToken("not-a-token", testSecret); err == nil {
		t.Error("expected garbage to fail")
	}
}

func TestRequireAdmin(t *testing.T) {
	admin, _ := GenerateToken(&Payload{Operator: "ops", Role: RoleAdmin}, testSecret, time.Minute)
	viewer, _ := GenerateToken(&Payload{Operator: "bob", Role: "viewer"}, testSecret, time.Minute)

	var seen *Payload
	h := RequireAdmin(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetPayloadFromContext(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + admin, http.StatusUnauthorized},
		{"garbage", "Bearer abc", http.StatusUnauthorized},
		{"wrong role", "Bearer " + viewer, http.StatusUnauthorized},
		{"admin", "Bearer " + admin, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			r := httptest.NewRequest(http.MethodPost, "/api/sessions/kick", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusNoContent && (seen == nil || seen.Operator != "ops") {
				t.Fatalf("payload not injected: %+v", seen)
			}
		})
	}
}
