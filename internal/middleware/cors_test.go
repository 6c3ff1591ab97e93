package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/atag/internal/middleware"
)

const frontendOrigin = "http://localhost:5173"

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func corsRequest(method, target, origin string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Origin", origin)
	return req
}

func TestCORSHandler_AllowedOrigin(t *testing.T) {
	h := middleware.NewCORSHandler([]string{frontendOrigin})(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, corsRequest(http.MethodGet, "/tags/0190a1b2-0000-7000-8000-000000000001/entities/export", frontendOrigin))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, frontendOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

// Preflight header names arrive lowercased per the Fetch standard, which is
// also how rs/cors compares them.
func TestCORSHandler_PreflightWithUserHeader(t *testing.T) {
	h := middleware.NewCORSHandler([]string{frontendOrigin})(okHandler)

	req := corsRequest(http.MethodOptions, "/entities/Order/100/tags", frontendOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type,x-user-id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, frontendOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPost, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Headers"))
}

func TestCORSHandler_PreflightWithUnknownHeader(t *testing.T) {
	h := middleware.NewCORSHandler([]string{frontendOrigin})(okHandler)

	req := corsRequest(http.MethodOptions, "/tags", frontendOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "x-not-allowed")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

// A disallowed origin still gets the response; the browser blocks it because
// the allow-origin header is missing.
func TestCORSHandler_DisallowedOrigin(t *testing.T) {
	h := middleware.NewCORSHandler([]string{frontendOrigin})(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, corsRequest(http.MethodGet, "/tags", "http://evil.example.com"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
