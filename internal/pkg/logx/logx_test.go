package logx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"203.0.113.77:5123", "203.0.113.0"},
		{"198.51.100.9", "198.51.100.0"},
		{"[::1]:80", "127.0.0.1"},
		{"[2001:db8:85a3:8d3:1319:8a2e:370:7348]:443", "2001:db8:85a3:8d3::"},
		{"2001:db8::1", "2001:db8::"},
		{"::ffff:192.0.2.128", "192.0.2.0"},
		{"not-an-ip", "unknown_ip"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, anonymizeIP(tt.in), tt.in)
	}
}

func TestJSONOutputInProduction(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, &buf, false)

	Error(errors.New("disk full"), "append failed", "room_id", "r1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "append failed", line["message"])
	assert.Equal(t, "r1", line["room_id"])
	assert.Equal(t, "disk full", line["error"])
}

func TestOddFieldsAreIgnored(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, &buf, false)

	Info("hello", "dangling")

	assert.Contains(t, buf.String(), "odd number of fields")
	assert.Contains(t, buf.String(), "hello")
}

func TestRequestLoggerOmitsQueryString(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, &buf, false)

	r := chi.NewRouter()
	r.Use(RequestLogger())
	r.Get("/rooms/{id}", func(w http.ResponseWriter, r *http.Request) {
		FromRequest(r).Info().Msg("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rooms/r1?token=secret", nil))

	assert.NotContains(t, buf.String(), "secret")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var inner, access map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &inner))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &access))

	assert.Equal(t, "http", inner["component"])
	assert.Equal(t, "/rooms/r1", inner["request_path"])

	assert.Equal(t, "warn", access["level"])
	assert.Equal(t, float64(http.StatusTeapot), access["status"])
	assert.Equal(t, "/rooms/{id}", access["route"])
}

func TestHealthChecksLogAtDebug(t *testing.T) {
	var buf bytes.Buffer
	initLogger(&buf, &buf, false)

	h := RequestLogger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	// production level is info, so the debug line is dropped
	assert.Empty(t, buf.String())
}
