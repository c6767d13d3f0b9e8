package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	cfg, err := Load("crmlens-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q", cfg.Profile)
	}
	if cfg.Service.Name != "crmlens-api" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.CRM.DefaultRowLimit != 1000 || cfg.CRM.MaxRowLimit != 5000 {
		t.Fatalf("CRM limits = %d/%d", cfg.CRM.DefaultRowLimit, cfg.CRM.MaxRowLimit)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
	if cfg.Sessions.RetentionAge != 90*24*time.Hour {
		t.Fatalf("Sessions.RetentionAge = %v", cfg.Sessions.RetentionAge)
	}
	if cfg.Filings.MaxItems != 5 || cfg.Filings.DocumentMaxChars != 120000 {
		t.Fatalf("Filings = %+v", cfg.Filings)
	}
	if cfg.News.FeedURL == "" {
		t.Fatal("News.FeedURL should have a default")
	}
	if cfg.LLM.OllamaEndpoint == "" || cfg.LLM.OpenAIModel == "" {
		t.Fatalf("LLM = %+v", cfg.LLM)
	}
}

func TestLoadProdProfileHardensDefaults(t *testing.T) {
	cfg, err := Load("crmlens-api", mapLookup(map[string]string{"CRMLENS_PROFILE": "prod"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if !cfg.ObjectStore.UseSSL {
		t.Fatal("ObjectStore.UseSSL should default to true in prod")
	}
	if cfg.ObjectStore.AutoCreateBucket {
		t.Fatal("ObjectStore.AutoCreateBucket should default to false in prod")
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	cfg, err := Load("crmlens-api", mapLookup(map[string]string{
		"CRMLENS_PROFILE":                     "test",
		"CRMLENS_SERVICE_NAME":                "crmlens-custom",
		"CRMLENS_HTTP_ADDR":                   ":9999",
		"CRMLENS_HTTP_READ_TIMEOUT":           "2s",
		"CRMLENS_CRM_DB_PATH":                 "/tmp/crm.duckdb",
		"CRMLENS_CRM_DEFAULT_ROW_LIMIT":       "250",
		"CRMLENS_CRM_MAX_ROW_LIMIT":           "500",
		"CRMLENS_CRM_PREVIEW_ROWS":            "25",
		"CRMLENS_SESSIONS_DSN":                "postgres://example",
		"CRMLENS_SESSIONS_MAX_OPEN_CONNS":     "42",
		"CRMLENS_SESSIONS_RETENTION_AGE":      "720h",
		"CRMLENS_SESSIONS_RETENTION_INTERVAL": "30m",
		"CRMLENS_OBJECTSTORE_ENDPOINT":        "s3.example.com",
		"CRMLENS_OBJECTSTORE_BUCKET":          "crmlens-prod",
		"CRMLENS_OLLAMA_ENDPOINT":             "http://ollama:11434",
		"CRMLENS_OLLAMA_MODEL":                "llama3:70b",
		"CRMLENS_OPENAI_API_KEY":              "sk-test",
		"CRMLENS_LLM_TIMEOUT":                 "45s",
		"CRMLENS_FILINGS_USER_AGENT":          "crmlens admin@example.com",
		"CRMLENS_FILINGS_MAX_ITEMS":           "3",
		"CRMLENS_NEWS_MAX_ITEMS":              "7",
		"CRMLENS_LOG_LEVEL":                   "error",
		"CRMLENS_AUTH_REQUIRED":               "true",
		"CRMLENS_AUTH_STATIC_KEYS":            "k1:alice:reader",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Service.Name != "crmlens-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" || cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP = %+v", cfg.HTTP)
	}
	if cfg.CRM.DatabasePath != "/tmp/crm.duckdb" || cfg.CRM.DefaultRowLimit != 250 || cfg.CRM.MaxRowLimit != 500 || cfg.CRM.PreviewRows != 25 {
		t.Fatalf("CRM = %+v", cfg.CRM)
	}
	if cfg.Sessions.DSN != "postgres://example" || cfg.Sessions.MaxOpenConns != 42 {
		t.Fatalf("Sessions = %+v", cfg.Sessions)
	}
	if cfg.Sessions.RetentionAge != 720*time.Hour || cfg.Sessions.RetentionInterval != 30*time.Minute {
		t.Fatalf("Sessions retention = %v/%v", cfg.Sessions.RetentionAge, cfg.Sessions.RetentionInterval)
	}
	if cfg.ObjectStore.Endpoint != "s3.example.com" || cfg.ObjectStore.Bucket != "crmlens-prod" {
		t.Fatalf("ObjectStore = %+v", cfg.ObjectStore)
	}
	if cfg.LLM.OllamaEndpoint != "http://ollama:11434" || cfg.LLM.OllamaModel != "llama3:70b" {
		t.Fatalf("LLM = %+v", cfg.LLM)
	}
	if cfg.LLM.OpenAIAPIKey != "sk-test" || cfg.LLM.Timeout != 45*time.Second {
		t.Fatalf("LLM = %+v", cfg.LLM)
	}
	if cfg.Filings.UserAgent != "crmlens admin@example.com" || cfg.Filings.MaxItems != 3 {
		t.Fatalf("Filings = %+v", cfg.Filings)
	}
	if cfg.News.MaxItems != 7 {
		t.Fatalf("News = %+v", cfg.News)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Auth.Required || cfg.Auth.StaticKeys != "k1:alice:reader" {
		t.Fatalf("Auth = %+v", cfg.Auth)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"invalid profile", map[string]string{"CRMLENS_PROFILE": "staging"}},
		{"invalid duration", map[string]string{"CRMLENS_HTTP_READ_TIMEOUT": "soon"}},
		{"invalid bool", map[string]string{"CRMLENS_AUTH_REQUIRED": "yep"}},
		{"invalid int", map[string]string{"CRMLENS_CRM_PREVIEW_ROWS": "many"}},
		{"invalid log level", map[string]string{"CRMLENS_LOG_LEVEL": "loud"}},
		{"zero row limit", map[string]string{"CRMLENS_CRM_DEFAULT_ROW_LIMIT": "0"}},
		{"max below default", map[string]string{"CRMLENS_CRM_MAX_ROW_LIMIT": "10"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load("crmlens-api", mapLookup(tc.env)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadRequiresLookup(t *testing.T) {
	if _, err := Load("crmlens-api", nil); err == nil {
		t.Fatal("expected error")
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
