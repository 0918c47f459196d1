package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Database.Driver)
	require.True(t, cfg.Database.AutoMigrate)
	require.Equal(t, "mock", cfg.Gateway.Mode)
	require.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	require.Empty(t, cfg.Auth.ProtectedRoutes)
	require.Equal(t, "INFO", cfg.Log.Level)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payments.yaml")
	yaml := `
server:
  addr: ":9000"
database:
  driver: sqlite
  dsn: "file:payments.db"
gateway:
  mode: http
  endpoint: "http://bank.local/transfers"
  timeout: 3s
  mock:
    declined_accounts: ["000111"]
auth:
  jwt_secret: "file-secret"
  protected_routes: ["/api/payment/bank-transfer"]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("PAYMENTS_AUTH_JWT_SECRET", "env-secret")
	t.Setenv("PAYMENTS_LOG_LEVEL", "DEBUG")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, "file:payments.db", cfg.Database.DSN)
	require.Equal(t, "http", cfg.Gateway.Mode)
	require.Equal(t, "http://bank.local/transfers", cfg.Gateway.Endpoint)
	require.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
	require.Equal(t, []string{"000111"}, cfg.Gateway.Mock.DeclinedAccounts)
	require.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	require.Equal(t, []string{"/api/payment/bank-transfer"}, cfg.Auth.ProtectedRoutes)
	require.Equal(t, "DEBUG", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	var tests = []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown server mode", env: map[string]string{"PAYMENTS_SERVER_MODE": "turbo"}},
		{name: "unknown driver", env: map[string]string{"PAYMENTS_DATABASE_DRIVER": "oracle"}},
		{name: "sql without dsn", env: map[string]string{"PAYMENTS_DATABASE_DRIVER": "postgres"}},
		{name: "unknown gateway mode", env: map[string]string{"PAYMENTS_GATEWAY_MODE": "carrier-pigeon"}},
		{name: "zero timeout", env: map[string]string{"PAYMENTS_GATEWAY_TIMEOUT": "0s"}},
		{name: "protected routes without secret", env: map[string]string{"PAYMENTS_AUTH_PROTECTED_ROUTES": "/api/payment/bank-transfer"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
