package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHeadersMiddlewareSetsDefaults(t *testing.T) {
	h := Headers{Enable: true}
	rr := httptest.NewRecorder()
	h.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("unexpected nosniff header: %q", got)
	}
	if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("unexpected frame options: %q", got)
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS must not be set on plaintext requests")
	}
}

func TestHeadersMiddlewareHSTSOnTLS(t *testing.T) {
	h := Headers{Enable: true, EnableHSTS: true, HSTSIncludeSubdomains: true}
	req := httptest.NewRequest(http.MethodGet, "https://shop.example/", nil)
	req.TLS = &tls.ConnectionState{}
	rr := httptest.NewRecorder()
	h.Middleware(okHandler()).ServeHTTP(rr, req)

	value := rr.Header().Get("Strict-Transport-Security")
	if !strings.Contains(value, "max-age=31536000") || !strings.Contains(value, "includeSubDomains") {
		t.Fatalf("unexpected HSTS value: %q", value)
	}
}

func TestHeadersMiddlewareDisabled(t *testing.T) {
	h := Headers{}
	rr := httptest.NewRecorder()
	h.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Header().Get("X-Content-Type-Options") != "" {
		t.Fatal("headers must not be set when disabled")
	}
}

func TestBodyLimitRejectsOversizedPayload(t *testing.T) {
	b := BodyLimit{Max: 8}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("this payload is too big"))
	rr := httptest.NewRecorder()
	b.Middleware(okHandler()).ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestBodyLimitAllowsSmallPayload(t *testing.T) {
	b := BodyLimit{Max: 64}
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		seen = string(buf[:n])
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"qty":2}`))
	rr := httptest.NewRecorder()
	b.Middleware(next).ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if seen != `{"qty":2}` {
		t.Fatalf("body not preserved for handler: %q", seen)
	}
}

func TestCSRFSkipsSafeMethodsAndBearer(t *testing.T) {
	c := CSRF{}
	mw := c.Middleware(okHandler())

	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("GET must bypass csrf, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rr = httptest.NewRecorder()
	mw.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("bearer requests must bypass csrf, got %d", rr.Code)
	}
}

func TestCSRFRequiresMatchingToken(t *testing.T) {
	c := CSRF{}
	mw := c.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without token, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-CSRF-Token", "abc123")
	req.AddCookie(&http.Cookie{Name: "X-CSRF-Token", Value: "abc123"})
	rr = httptest.NewRecorder()
	mw.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected matching token to pass, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-CSRF-Token", "abc123")
	req.AddCookie(&http.Cookie{Name: "X-CSRF-Token", Value: "zzz999"})
	rr = httptest.NewRecorder()
	mw.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected mismatch to fail, got %d", rr.Code)
	}
}

func TestCSRFAppliesOnlyToSessionCookieRequests(t *testing.T) {
	c := CSRF{SessionCookie: "of_access"}
	mw := c.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	mw.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("requests without the session cookie must pass, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: "of_access", Value: "jwt"})
	rr = httptest.NewRecorder()
	mw.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("session-cookie requests need a csrf token, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: "of_access", Value: "jwt"})
	req.Header.Set("X-CSRF-Token", "abc123")
	req.AddCookie(&http.Cookie{Name: "X-CSRF-Token", Value: "abc123"})
	rr = httptest.NewRecorder()
	mw.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("matching token with session cookie must pass, got %d", rr.Code)
	}
}
