package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	appHandle = nil
	cfgFile, logLevel, ledgerReason, positionsAll = "", "", "", false
	t.Cleanup(func() { appHandle = nil })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "version: dev")
	assert.Nil(t, appHandle)
}

func TestLedgerCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	ledgerPath := filepath.Join(dir, "ledger.jsonl")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  level: error\nstorage:\n  ledger_path: "+ledgerPath+"\n"), 0o644))

	addr := "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

	out, err := execute(t, "--config", cfgPath, "ledger", "add", addr, "--reason", "rug")
	require.NoError(t, err)
	assert.Equal(t, addr+": ledgered\n", out)

	out, err = execute(t, "--config", cfgPath, "ledger", "check", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "reason=rug")

	raw, err := os.ReadFile(ledgerPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), addr)
}

func TestLedgerCheck_RequiresAddress(t *testing.T) {
	_, err := execute(t, "ledger", "check")
	assert.Error(t, err)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "ledger", "check", "x")
	assert.Error(t, err)
}
