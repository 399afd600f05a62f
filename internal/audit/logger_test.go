package audit

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientIP(t *testing.T) {
	t.Run("first forwarded address", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", nil)
		r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
		assert.Equal(t, "203.0.113.9", ClientIP(r))
	})

	t.Run("real ip header", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", nil)
		r.Header.Set("X-Real-IP", "198.51.100.7")
		assert.Equal(t, "198.51.100.7", ClientIP(r))
	})

	t.Run("remote addr without port", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/", nil)
		r.RemoteAddr = "192.0.2.1:5555"
		assert.Equal(t, "192.0.2.1", ClientIP(r))
	})
}

func TestLogFromRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	r := httptest.NewRequest("POST", "/api/send-invite", nil)
	r.RemoteAddr = "192.0.2.1:5555"
	r = r.WithContext(logger.WithContext(r.Context()))

	LogFromRequest(r, Event{
		Type:       EventInviteSent,
		AdminEmail: "admin@example.com",
		Details:    map[string]interface{}{"language": "en", "attempt": 1},
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "invite_sent", entry["event_type"])
	assert.Equal(t, "admin@example.com", entry["admin_email"])
	assert.Equal(t, "192.0.2.1", entry["ip"])
	assert.Equal(t, "en", entry["language"])
}
