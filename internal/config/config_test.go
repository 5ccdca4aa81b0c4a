package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("EXDB_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "EXDB", cfg.AppName)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, 7*24*time.Hour, cfg.HallstaffTimeAhead)
	require.Equal(t, 31*24*time.Hour, cfg.RequesterTimeAhead)
	require.Equal(t, 3, cfg.DashboardDisplayLimit)
	require.Equal(t, 16, cfg.DigestHour)
	require.Equal(t, 5*time.Minute, cfg.DigestWindow)
	require.True(t, cfg.UsesInsecureSecret())
	require.False(t, cfg.LDAP.Enabled())
	require.Len(t, cfg.LDAP.Groups, 3)
}

func TestLoadLocalOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt:\n  secret: s3cret\ndashboard:\n  display_limit: 5\ntime_zone: America/Chicago\n"), 0o600))
	t.Setenv("EXDB_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "s3cret", cfg.JWTSecret)
	require.Equal(t, 5, cfg.DashboardDisplayLimit)
	require.False(t, cfg.UsesInsecureSecret())
	require.Equal(t, "America/Chicago", cfg.Location().String())
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown transport", "EXDB_MAIL_TRANSPORT", "pigeon"},
		{"unknown time zone", "EXDB_TIME_ZONE", "Mars/Olympus_Mons"},
		{"digest hour out of range", "EXDB_EMAIL_DIGEST_HOUR", "24"},
		{"bad duration", "EXDB_DASHBOARD_CACHE_TTL", "soon"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("EXDB_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoadReadsHTTPSettings(t *testing.T) {
	t.Setenv("EXDB_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	require.Empty(t, cfg.ProxyHeader)
	require.Equal(t, "*", cfg.AllowOrigins)

	t.Setenv("EXDB_HTTP_PROXY_HEADER", "X-Forwarded-For")
	t.Setenv("EXDB_HTTP_ALLOW_ORIGINS", "https://exdb.example.edu")

	cfg, err = Load()
	require.NoError(t, err)
	require.Equal(t, "X-Forwarded-For", cfg.ProxyHeader)
	require.Equal(t, "https://exdb.example.edu", cfg.AllowOrigins)
}
