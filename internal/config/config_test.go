package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCreds(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	cert := filepath.Join(dir, "cert.pem")
	key := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(cert, []byte("cert"), 0o600))
	require.NoError(t, os.WriteFile(key, []byte("key"), 0o600))
	return cert, key
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "drop", cfg.Backpressure)
	assert.Equal(t, 54*time.Second, cfg.PingPeriod)
	assert.Equal(t, int64(16<<20), cfg.ReadLimit)
	assert.False(t, cfg.ResetPhotosOnShooting)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr())
}

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("CONFIG_ENV", "missing")
	t.Setenv("STAGEHAND_PORT", "4000")
	t.Setenv("STAGEHAND_STATIC_PATH", "/srv/clients")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse([]string{"--backpressure", "kick", "--reset_photos_on_shooting"}))

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port, "env beats default")
	assert.Equal(t, "/srv/clients", cfg.StaticPath)
	assert.Equal(t, "kick", cfg.Backpressure, "explicit flag wins")
	assert.True(t, cfg.ResetPhotosOnShooting, "underscored flag names are normalized")

	require.NoError(t, fs.Parse([]string{"--port", "5000"}))
	cfg, err = Load(fs)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Port, "explicit flag beats env")
}

func TestValidate(t *testing.T) {
	cert, key := writeCreds(t)
	base := Config{
		Port:         3000,
		TLSCert:      cert,
		TLSKey:       key,
		Backpressure: "drop",
		SendBuffer:   64,
		LogLevel:     "info",
	}

	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantErr   bool
		wantCreds bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Port = 70000 }, wantErr: true},
		{name: "no cert", mutate: func(c *Config) { c.TLSCert = "" }, wantErr: true, wantCreds: true},
		{name: "missing key file", mutate: func(c *Config) { c.TLSKey = filepath.Join(t.TempDir(), "nope.pem") }, wantErr: true, wantCreds: true},
		{name: "bad policy", mutate: func(c *Config) { c.Backpressure = "block" }, wantErr: true},
		{name: "bad buffer", mutate: func(c *Config) { c.SendBuffer = 0 }, wantErr: true},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantCreds {
				assert.ErrorIs(t, err, ErrMissingCredentials)
			}
		})
	}
}
