package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("REPORTS_SHEET_TAB", "")
	t.Setenv("GOOGLE_SHEET_TAB", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "gpt", cfg.Extraction.Provider)
	assert.Equal(t, "gpt-4o-2024-08-06", cfg.Extraction.OpenAIModel)
	assert.Equal(t, 180*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, "uuid", cfg.ReportIDMode)
	assert.Empty(t, cfg.Reports.Tab, "empty tab resolves to the first tab")
	assert.Empty(t, cfg.Bookings.Tab)
	assert.Empty(t, cfg.Extraction.OpenAIAPIKey, "missing key is reported at request time, not at start")
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("OPENAI_API_KEY", " sk-test ")
	t.Setenv("EXTRACT_TIMEOUT", "45s")
	t.Setenv("REPORT_ID_MODE", "legacy")
	t.Setenv("REPORTS_SPREADSHEET_ID", "sheet-123")
	t.Setenv("REPORTS_SHEET_TAB", "Reports")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")
	t.Setenv("CORS_ORIGINS", "https://portal.example.com, http://localhost:3000,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "sk-test", cfg.Extraction.OpenAIAPIKey)
	assert.Equal(t, 45*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, "legacy", cfg.ReportIDMode)
	assert.True(t, cfg.Reports.Enabled())
	assert.Equal(t, "Reports", cfg.Reports.Tab)
	assert.False(t, cfg.Bookings.Enabled())
	assert.Equal(t, int64(-100200), cfg.TelegramChatID)
	assert.Equal(t, []string{"https://portal.example.com", "http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoad_InvalidIDMode(t *testing.T) {
	t.Setenv("REPORT_ID_MODE", "random")
	_, err := Load()
	assert.ErrorContains(t, err, "REPORT_ID_MODE")
}

func TestSheetConfig_CredentialsJSON(t *testing.T) {
	raw := []byte(`{"type":"service_account"}`)

	t.Run("inline base64 wins", func(t *testing.T) {
		s := SheetConfig{
			CredentialsBase64: base64.StdEncoding.EncodeToString(raw),
			CredentialsFile:   "/does/not/exist.json",
		}
		got, err := s.CredentialsJSON()
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	})

	t.Run("file path", func(t *testing.T) {
		p := filepath.Join(t.TempDir(), "creds.json")
		require.NoError(t, os.WriteFile(p, raw, 0o600))
		got, err := SheetConfig{CredentialsFile: p}.CredentialsJSON()
		require.NoError(t, err)
		assert.Equal(t, raw, got)
	})

	t.Run("bad base64", func(t *testing.T) {
		_, err := SheetConfig{CredentialsBase64: "%%%"}.CredentialsJSON()
		assert.Error(t, err)
	})

	t.Run("nothing configured", func(t *testing.T) {
		_, err := SheetConfig{}.CredentialsJSON()
		assert.ErrorIs(t, err, ErrNoCredentials)
	})
}
