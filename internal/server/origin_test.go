package server

import (
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func TestNormalizeOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   string
		ok     bool
	}{
		{origin: "http://Example.COM", want: "http://example.com", ok: true},
		{origin: "HTTPS://chat.example:8443/path", want: "https://chat.example:8443", ok: true},
		{origin: "example.com", ok: false},
		{origin: "://missing-scheme", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			got, ok := normalizeOrigin(tt.origin)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestOriginPolicy(t *testing.T) {
	log := logs.GetLoggerFromLevel(slog.LevelDebug)

	check := func(policy *originPolicy, origin string) bool {
		r := httptest.NewRequest("GET", "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return policy.check(r)
	}

	t.Run("wildcard admits everyone", func(t *testing.T) {
		policy := newOriginPolicy(log, []string{"*"})
		require.True(t, check(policy, ""))
		require.True(t, check(policy, "http://anything.example"))
	})

	t.Run("explicit list", func(t *testing.T) {
		policy := newOriginPolicy(log, []string{" http://Allowed.example ", "not-an-origin", ""})
		require.True(t, check(policy, "http://allowed.example"))
		require.False(t, check(policy, "http://other.example"))
		require.False(t, check(policy, ""))
		require.False(t, check(policy, "garbage"))
	})

	t.Run("empty list rejects browsers", func(t *testing.T) {
		policy := newOriginPolicy(log, nil)
		require.False(t, check(policy, "http://allowed.example"))
	})
}
