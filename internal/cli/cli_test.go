package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/sieve/internal/model"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseObservations(t *testing.T) {
	got, err := parseObservations([]string{"caliber=9x19", "magazine_capacity = 17"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "caliber", got[0].Name)
	assert.Equal(t, "9x19", got[0].Value.String())
	assert.True(t, got[1].Value.IsNumber())

	_, err = parseObservations([]string{"caliber"})
	assert.True(t, model.IsValidation(err))
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SIEVE_SERVER_ADDR", ":9999")
	t.Setenv("SIEVE_PREDICTOR_TIMEOUT", "3s")

	initConfig()
	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 3*time.Second, cfg.Predictor.Timeout)
	assert.Equal(t, model.DefaultConfig().Server.ReadHeaderTimeout, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, "http", cfg.Predictor.Provider)
}

func TestCommands_ImportCheckIdentifyExport(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	db := filepath.Join(home, "kb.db")
	seed := filepath.Join("..", "kbfile", "testdata", "weapons.yaml")

	out, err := run(t, "--db", db, "kb", "import", seed)
	require.NoError(t, err)
	assert.Contains(t, out, "4 classes")

	out, err = run(t, "--db", db, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "every class is configured")

	out, err = run(t, "--db", db, "identify", "caliber=9x19", "magazine_capacity=17")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Glock 17")

	out, err = run(t, "--db", db, "identify", "action=selective-fire", "--trace")
	require.NoError(t, err)
	assert.Contains(t, out, "eliminated Glock 17, M1911")
	assert.Contains(t, out, "2 candidates remain")

	out, err = run(t, "--db", db, "kb", "export")
	require.NoError(t, err)
	assert.Contains(t, out, "name: AKM")

	_, err = run(t, "--db", db, "identify", "weight=3")
	assert.True(t, model.IsValidation(err))
}
