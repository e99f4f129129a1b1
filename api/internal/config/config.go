package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrNoCredentials is returned when neither inline nor file credentials are configured.
var ErrNoCredentials = errors.New("no google credentials configured")

type Config struct {
	Port        string
	LogLevel    string
	CORSOrigins []string

	Extraction ExtractionConfig
	Reports    SheetConfig
	Bookings   SheetConfig

	// ReportIDMode: "uuid" (default) or "legacy" (2-digit ids compatible with old sheets).
	ReportIDMode string

	DatabaseURL string

	TelegramBotToken string
	TelegramChatID   int64

	Patient  Credential
	Hospital Credential
}

type ExtractionConfig struct {
	Provider string

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiModel   string

	Temperature    float64
	PromptDir      string
	Timeout        time.Duration
	PersistTimeout time.Duration
}

// SheetConfig addresses one spreadsheet and the credentials used to reach it.
type SheetConfig struct {
	SpreadsheetID     string
	Tab               string
	CredentialsBase64 string
	CredentialsFile   string
}

type Credential struct {
	Login    string
	Password string
}

// CredentialsJSON returns the service-account JSON. Inline base64 wins over the file path.
func (s SheetConfig) CredentialsJSON() ([]byte, error) {
	if b64 := strings.TrimSpace(s.CredentialsBase64); b64 != "" {
		b, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("decode base64 credentials: %w", err)
		}
		return b, nil
	}
	if p := strings.TrimSpace(s.CredentialsFile); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return b, nil
	}
	return nil, ErrNoCredentials
}

func (s SheetConfig) Enabled() bool {
	return strings.TrimSpace(s.SpreadsheetID) != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8000")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_origins", "http://localhost:3000")

	v.SetDefault("extraction_provider", "gpt")
	v.SetDefault("openai_model", "gpt-4o-2024-08-06")
	v.SetDefault("openai_base_url", "https://api.openai.com/v1")
	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("extract_temperature", 0.3)
	v.SetDefault("extract_timeout", 180*time.Second)
	v.SetDefault("persist_timeout", 30*time.Second)

	v.SetDefault("report_id_mode", "uuid")

	v.SetDefault("patient_login", "user")
	v.SetDefault("patient_password", "12")
	v.SetDefault("hospital_login", "hos")
	v.SetDefault("hospital_password", "12")
}

// envKeys are bound explicitly so values set only in the environment are seen by viper.
var envKeys = []string{
	"port", "log_level", "cors_origins",
	"extraction_provider", "openai_api_key", "openai_model", "openai_base_url",
	"gemini_api_key", "gemini_model", "extract_temperature", "extract_timeout", "persist_timeout",
	"prompt_dir", "report_id_mode",
	"reports_spreadsheet_id", "reports_sheet_tab", "reports_credentials_base64", "reports_credentials_file",
	"google_sheet_id", "google_sheet_tab", "google_credentials_base64", "google_credentials_file",
	"database_url", "telegram_bot_token", "telegram_chat_id",
	"patient_login", "patient_password", "hospital_login", "hospital_password",
}

// Load reads defaults, an optional CONFIG_FILE and the environment, in that order of precedence.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	for _, k := range envKeys {
		_ = v.BindEnv(k, strings.ToUpper(k))
	}

	if f := strings.TrimSpace(os.Getenv("CONFIG_FILE")); f != "" {
		v.SetConfigFile(f)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", f, err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:        strings.TrimSpace(v.GetString("port")),
		LogLevel:    v.GetString("log_level"),
		CORSOrigins: splitList(v.GetString("cors_origins")),

		Extraction: ExtractionConfig{
			Provider:       strings.ToLower(strings.TrimSpace(v.GetString("extraction_provider"))),
			OpenAIAPIKey:   strings.TrimSpace(v.GetString("openai_api_key")),
			OpenAIModel:    v.GetString("openai_model"),
			OpenAIBaseURL:  strings.TrimRight(v.GetString("openai_base_url"), "/"),
			GeminiAPIKey:   strings.TrimSpace(v.GetString("gemini_api_key")),
			GeminiModel:    v.GetString("gemini_model"),
			Temperature:    v.GetFloat64("extract_temperature"),
			PromptDir:      v.GetString("prompt_dir"),
			Timeout:        v.GetDuration("extract_timeout"),
			PersistTimeout: v.GetDuration("persist_timeout"),
		},

		Reports: SheetConfig{
			SpreadsheetID:     v.GetString("reports_spreadsheet_id"),
			Tab:               v.GetString("reports_sheet_tab"),
			CredentialsBase64: v.GetString("reports_credentials_base64"),
			CredentialsFile:   v.GetString("reports_credentials_file"),
		},
		Bookings: SheetConfig{
			SpreadsheetID:     v.GetString("google_sheet_id"),
			Tab:               v.GetString("google_sheet_tab"),
			CredentialsBase64: v.GetString("google_credentials_base64"),
			CredentialsFile:   v.GetString("google_credentials_file"),
		},

		ReportIDMode: strings.ToLower(strings.TrimSpace(v.GetString("report_id_mode"))),
		DatabaseURL:  strings.TrimSpace(v.GetString("database_url")),

		TelegramBotToken: strings.TrimSpace(v.GetString("telegram_bot_token")),
		TelegramChatID:   v.GetInt64("telegram_chat_id"),

		Patient:  Credential{Login: v.GetString("patient_login"), Password: v.GetString("patient_password")},
		Hospital: Credential{Login: v.GetString("hospital_login"), Password: v.GetString("hospital_password")},
	}

	if cfg.Port == "" {
		cfg.Port = "8000"
	}
	switch cfg.ReportIDMode {
	case "uuid", "legacy":
	default:
		return nil, fmt.Errorf("invalid REPORT_ID_MODE %q: use uuid|legacy", cfg.ReportIDMode)
	}
	if cfg.Extraction.Timeout <= 0 {
		return nil, fmt.Errorf("EXTRACT_TIMEOUT must be > 0")
	}
	if cfg.Extraction.PersistTimeout <= 0 {
		return nil, fmt.Errorf("PERSIST_TIMEOUT must be > 0")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
