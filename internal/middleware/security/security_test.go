package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/shopping", nil))

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "script-src 'self' https://unpkg.com")
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/static/style.css", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=31536000")
}

func TestClassify(t *testing.T) {
	d := NewDetector(nil)

	cases := []struct {
		name       string
		method     string
		target     string
		agent      string
		suspicious bool
		block      bool
	}{
		{"plain page", http.MethodGet, "/plan?month=2025-03", "Mozilla/5.0", false, false},
		{"curl is fine", http.MethodGet, "/healthz", "curl/8.0", false, false},
		{"probe", http.MethodGet, "/wp-admin/", "Mozilla/5.0", true, false},
		{"scanner", http.MethodGet, "/", "sqlmap/1.7", true, false},
		{"traversal in query", http.MethodGet, "/recipes?file=../../etc/passwd", "", true, true},
		{"trace method", http.MethodTrace, "/", "", true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, nil)
			req.Header.Set("User-Agent", tc.agent)
			suspicious, block := d.Classify(req)
			assert.Equal(t, tc.suspicious, suspicious)
			assert.Equal(t, tc.block, block)
		})
	}
}

func TestDetectorMiddlewareBlocks(t *testing.T) {
	d := NewDetector(nil)
	called := false
	h := d.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x?p=%2e%2e/secret", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/.env", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)

	m := d.GetMetrics()
	assert.EqualValues(t, 2, m.SuspiciousRequests)
	assert.EqualValues(t, 1, m.BlockedRequests)
}

func TestExtractClientIP(t *testing.T) {
	d := NewDetector(nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:4567"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.1.2.3")
	assert.Equal(t, "203.0.113.9", d.ExtractClientIP(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "198.51.100.4", d.ExtractClientIP(req), "untrusted peers cannot spoof")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:1"
	req.Header.Set("X-Real-IP", "garbage")
	assert.Equal(t, "127.0.0.1", d.ExtractClientIP(req))
	assert.EqualValues(t, 1, d.GetMetrics().InvalidIPAttempts)

	require.Error(t, d.AddTrustedProxy("not-a-cidr"))
}
