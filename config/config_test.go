package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeTemp(t, `{"credential_path": "/tmp/creds.json"}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultInstance, cfg.Instance)
	assert.Equal(t, defaultThreads, cfg.Threads)
	assert.Equal(t, defaultBatchSize, cfg.BatchSize)
	assert.True(t, cfg.WriteDuringStartup)
	assert.Equal(t, "/tmp/creds.json", cfg.CredentialPath)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeTemp(t, `{"threads": 4, "batch_size": 1, "write_during_startup": false, "timeout": "5s"}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Threads)
	assert.Equal(t, 1, cfg.BatchSize)
	assert.False(t, cfg.WriteDuringStartup)
	assert.Equal(t, "5s", cfg.Timeout.String())
}

func TestLoad_RejectsUnknownField(t *testing.T) {
	path := writeTemp(t, `{"not_a_real_field": true}`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.json")
	assert.Error(t, err)
}

func TestValidate_RejectsNonPositiveThreads(t *testing.T) {
	cfg := defaults()
	cfg.Threads = 0
	assert.Error(t, cfg.Validate())
}

func TestAccountsSelectorConfig_RoundTrips(t *testing.T) {
	path := writeTemp(t, `{"accounts_selector": {"accounts": ["*"]}, "transaction_selector": {"mentions": ["all_votes"]}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, cfg.AccountsSelector.Accounts)
	assert.Equal(t, []string{"all_votes"}, cfg.TransactionSelector.Mentions)
}
