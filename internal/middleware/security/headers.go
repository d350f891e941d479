package security

import (
	"net/http"
	"strconv"
	"time"
)

// APIHeaders are the headers set on every API response.
var APIHeaders = map[string]string{
	"Cache-Control":                "no-store",
	"X-Content-Type-Options":       "nosniff",
	"X-Frame-Options":              "DENY",
	"Referrer-Policy":              "no-referrer",
	"Cross-Origin-Resource-Policy": "same-origin",
}

// DefaultHSTS is the Strict-Transport-Security lifetime for TLS requests.
const DefaultHSTS = 365 * 24 * time.Hour

// Headers sets headers on every response, plus Strict-Transport-Security
// (including subdomains) on TLS requests when hsts is positive.
func Headers(headers map[string]string, hsts time.Duration) func(http.Handler) http.Handler {
	var sts string
	if hsts > 0 {
		sts = "max-age=" + strconv.FormatInt(int64(hsts/time.Second), 10) + "; includeSubDomains"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k, v := range headers {
				h.Set(k, v)
			}
			if sts != "" && r.TLS != nil {
				h.Set("Strict-Transport-Security", sts)
			}
			next.ServeHTTP(w, r)
		})
	}
}
