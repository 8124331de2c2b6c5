package http

import (
	"crypto/subtle"
	"net/http"
)

// basicAuth checks HTTP Basic credentials in constant time. It is a no-op
// when no password is configured.
func basicAuth(user, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if password == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, p, ok := r.BasicAuth()
			userOK := subtle.ConstantTimeCompare([]byte(u), []byte(user)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(p), []byte(password)) == 1
			if !ok || !userOK || !passOK {
				w.Header().Set("WWW-Authenticate", `Basic realm="salesdash", charset="UTF-8"`)
				writeError(w, http.StatusUnauthorized, "인증이 필요합니다.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
