package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/egaotan/solana-router/program"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "router.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.App.Listen)
	require.Equal(t, 5*time.Second, cfg.App.ShutdownTimeout)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, program.Router, cfg.Router.ProgramId)
	require.Equal(t, DefaultCustodySeed, cfg.Router.CustodySeed)
	require.True(t, cfg.Sandbox.Enabled)
	require.Equal(t, uint64(100_000_000_000), cfg.Sandbox.PayerFunding)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
app:
  listen: "127.0.0.1:9000"
  shutdown_timeout: 2s
log:
  level: debug
database:
  driver: mysql
  dsn: "user:pass@tcp(localhost:3306)/router?charset=utf8"
router:
  program_id: SwaPpA9LAaLfeLi3a68M4DjnLqgtticKg6CnyNwgAC8
  default_mode: tob
sandbox:
  enabled: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.App.Listen)
	require.Equal(t, 2*time.Second, cfg.App.ShutdownTimeout)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "mysql", cfg.Database.Driver)
	require.Equal(t, program.TokenSwap, cfg.Router.ProgramId)
	require.Equal(t, "tob", cfg.Router.DefaultMode)
	require.False(t, cfg.Sandbox.Enabled)
	require.Equal(t, "solana-router", cfg.App.Name)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("ROUTER_DATABASE_DSN", "file:test.db")
	t.Setenv("ROUTER_APP_LISTEN", ":9999")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "file:test.db", cfg.Database.DSN)
	require.Equal(t, ":9999", cfg.App.Listen)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	cases := map[string]string{
		"bad key":    "router:\n  program_id: not-a-key\n",
		"bad driver": "database:\n  driver: postgres\n",
		"bad level":  "log:\n  level: loud\n",
		"bad mode":   "router:\n  default_mode: fast\n",
		"long seed":  "router:\n  custody_seed: this-seed-is-far-longer-than-thirty-two-bytes\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			require.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Database.DSN = ""
	require.Error(t, cfg.Validate())
}
