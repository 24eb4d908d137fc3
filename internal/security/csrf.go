package security

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/orgofarm-labs/backend-orgofarm/internal/common"
)

// CSRF guards cookie-authenticated mutations with a double-submit token.
// Requests carrying a Bearer token bypass the check since they are not
// vulnerable to cross-site cookie replay. When SessionCookie is set, the
// check applies only to requests that present that cookie, so anonymous
// flows and webhook callers stay unaffected.
type CSRF struct {
	Header        string
	SessionCookie string
}

// Middleware enforces the token match on state-changing methods.
func (c CSRF) Middleware(next http.Handler) http.Handler {
	headerName := strings.TrimSpace(c.Header)
	if headerName == "" {
		headerName = "X-CSRF-Token"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
			next.ServeHTTP(w, r)
			return
		}

		auth := strings.TrimSpace(r.Header.Get("Authorization"))
		if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		if c.SessionCookie != "" {
			if sess, err := r.Cookie(c.SessionCookie); err != nil || strings.TrimSpace(sess.Value) == "" {
				next.ServeHTTP(w, r)
				return
			}
		}

		token := strings.TrimSpace(r.Header.Get(headerName))
		if token == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF_REQUIRED", "missing csrf token", nil)
			return
		}

		cookie, err := r.Cookie(headerName)
		if err != nil || strings.TrimSpace(cookie.Value) == "" {
			common.JSONError(w, http.StatusForbidden, "CSRF_REQUIRED", "missing csrf cookie", nil)
			return
		}

		if !tokensEqual(token, cookie.Value) {
			common.JSONError(w, http.StatusForbidden, "CSRF_INVALID", "csrf token mismatch", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func tokensEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
