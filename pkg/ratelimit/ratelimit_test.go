package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginRateLimiter_AllowWithinLimit(t *testing.T) {
	rl := NewLoginRateLimiter(3, time.Minute)
	t.Cleanup(rl.Close)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4"), "deneme %d limit içinde olmalı", i+1)
	}
	assert.False(t, rl.Allow("1.2.3.4"), "4. deneme reddedilmeli")
}

func TestLoginRateLimiter_PerIPIsolation(t *testing.T) {
	rl := NewLoginRateLimiter(1, time.Minute)
	t.Cleanup(rl.Close)

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))

	// Farklı IP'nin kendi bucket'ı var
	assert.True(t, rl.Allow("2.2.2.2"))
}

func TestLoginRateLimiter_WindowExpiry(t *testing.T) {
	rl := NewLoginRateLimiter(1, 30*time.Millisecond)
	t.Cleanup(rl.Close)

	require.True(t, rl.Allow("1.2.3.4"))
	require.False(t, rl.Allow("1.2.3.4"))

	time.Sleep(50 * time.Millisecond)

	assert.True(t, rl.Allow("1.2.3.4"), "window dolunca sayaç sıfırlanmalı")
}

func TestLoginRateLimiter_Reset(t *testing.T) {
	rl := NewLoginRateLimiter(1, time.Minute)
	t.Cleanup(rl.Close)

	require.True(t, rl.Allow("1.2.3.4"))
	require.False(t, rl.Allow("1.2.3.4"))

	// Başarılı login sonrası caller Reset çağırır
	rl.Reset("1.2.3.4")

	assert.True(t, rl.Allow("1.2.3.4"))
}

func TestLoginRateLimiter_RetryAfterSeconds(t *testing.T) {
	rl := NewLoginRateLimiter(1, time.Minute)
	t.Cleanup(rl.Close)

	assert.Equal(t, 0, rl.RetryAfterSeconds("bilinmeyen"), "bucket yoksa 0 dönmeli")

	rl.Allow("1.2.3.4")
	rl.Allow("1.2.3.4")

	seconds := rl.RetryAfterSeconds("1.2.3.4")
	assert.Greater(t, seconds, 0)
	assert.LessOrEqual(t, seconds, 61)
}

func TestExtractIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "X-Forwarded-For tek IP",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5"},
			want:       "203.0.113.5",
		},
		{
			name:       "X-Forwarded-For proxy zinciri — ilk IP client",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.2, 10.0.0.3"},
			want:       "203.0.113.5",
		},
		{
			name:       "X-Real-IP fallback",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "X-Forwarded-For X-Real-IP'den öncelikli",
			remoteAddr: "10.0.0.1:1234",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.5",
				"X-Real-IP":       "203.0.113.9",
			},
			want: "203.0.113.5",
		},
		{
			name:       "doğrudan bağlantı — RemoteAddr'dan host",
			remoteAddr: "192.168.1.10:54321",
			want:       "192.168.1.10",
		},
		{
			name:       "RemoteAddr port'suz",
			remoteAddr: "192.168.1.10",
			want:       "192.168.1.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ExtractIP(r))
		})
	}
}

func TestFormatRetryMessage(t *testing.T) {
	assert.Equal(t, "45 second(s)", FormatRetryMessage(45))
	assert.Equal(t, "1 minute(s)", FormatRetryMessage(60))
	assert.Equal(t, "2 minute(s)", FormatRetryMessage(120))
	assert.Equal(t, "2 minute(s)", FormatRetryMessage(150))
}
