package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean string", "GET /api/videos", "GET /api/videos"},
		{"newline injection", "foo\nbar", "foo bar"},
		{"carriage return", "foo\rbar", "foo bar"},
		{"null byte", "foo\x00bar", "foobar"},
		{"ansi escape", "foo\x1b[31mbar", "foo[31mbar"},
		{"tab preserved", "foo\tbar", "foo\tbar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeLogField(tt.input); got != tt.want {
				t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestShouldSkip(t *testing.T) {
	config := DefaultLoggingConfig()
	config.SkipPaths = []string{"/internal"}

	tests := []struct {
		path string
		want bool
	}{
		{"/api/videos", false},
		{"/internal/debug", true},
		{"/hls/abc/360p/segment_00001.ts", true},
		{"/hls/abc/index.m3u8", true},
		{"/admin/style.css", true},
		{"/uploads/video.mp4", false},
	}

	for _, tt := range tests {
		if got := shouldSkip(tt.path, config); got != tt.want {
			t.Errorf("shouldSkip(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.5:1234", "10.0.0.5"},
		{"x-forwarded-for single", map[string]string{"X-Forwarded-For": "1.2.3.4"}, "10.0.0.5:1234", "1.2.3.4"},
		{"x-forwarded-for chain", map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, "10.0.0.5:1234", "1.2.3.4"},
		{"x-real-ip", map[string]string{"X-Real-IP": "9.9.9.9"}, "10.0.0.5:1234", "9.9.9.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := getClientIP(r); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/videos", "/api/videos"},
		{"/api/videos/550e8400-e29b-41d4-a716-446655440000", "/api/videos/{id}"},
		{"/uploads/550e8400-e29b-41d4-a716-446655440000.mp4", "/uploads/{file}"},
		{"/api/photo-groups/550e8400-e29b-41d4-a716-446655440000/photos", "/api/photo-groups/{id}/photos"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestMetricsMiddlewarePassthrough(t *testing.T) {
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected status passthrough, got %d", rec.Code)
	}
}

func TestRequireAuthPlainToken(t *testing.T) {
	handler := RequireAuth(AuthConfig{Token: "secret"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		value  string
		want   int
	}{
		{"missing token", "", "", http.StatusUnauthorized},
		{"wrong token", "X-Admin-Token", "nope", http.StatusUnauthorized},
		{"valid header token", "X-Admin-Token", "secret", http.StatusNoContent},
		{"valid bearer token", "Authorization", "Bearer secret", http.StatusNoContent},
		{"malformed bearer", "Authorization", "Basic secret", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/videos", nil)
			if tt.header != "" {
				r.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, r)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestRequireAuthBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	config := AuthConfig{TokenHash: string(hash)}

	if !config.Verify("secret") {
		t.Error("Expected hashed token to verify")
	}
	if config.Verify("wrong") {
		t.Error("Expected wrong token to fail")
	}
}

func TestRequireAuthDisabled(t *testing.T) {
	handler := RequireAuth(AuthConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/videos", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected open access with no credential, got %d", rec.Code)
	}
}

func TestCompressionCompressesJSON(t *testing.T) {
	payload := strings.Repeat(`{"key":"value"},`, 200)
	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/playlist", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Expected gzip encoding, got %q", rec.Header().Get("Content-Encoding"))
	}

	zr, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if string(decoded) != payload {
		t.Error("Decompressed body does not match original")
	}
}

func TestCompressionSkipsSmallResponses(t *testing.T) {
	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if rec.Header().Get("Content-Encoding") == "gzip" {
		t.Error("Small responses should not be compressed")
	}
}

func TestCompressionSkipsRangeRequests(t *testing.T) {
	payload := strings.Repeat("x", 4096)
	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(payload))
	}))

	r := httptest.NewRequest(http.MethodGet, "/uploads/a.mp4", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	r.Header.Set("Range", "bytes=0-1023")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if rec.Header().Get("Content-Encoding") == "gzip" {
		t.Error("Range requests should not be compressed")
	}
}

func TestCompressionSkipsMediaTypes(t *testing.T) {
	payload := strings.Repeat("x", 4096)
	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte(payload))
	}))

	r := httptest.NewRequest(http.MethodGet, "/uploads/a.mp4", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	if rec.Header().Get("Content-Encoding") == "gzip" {
		t.Error("Video payloads should not be compressed")
	}
}
