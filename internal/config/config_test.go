package config

import (
	"strings"
	"testing"
	"time"
)

// clearEnv unsets everything Load reads so tests are hermetic.
func clearEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"BOT_TOKEN", "OPERATORS_GROUP_ID", "ADMIN_IDS", "TELEGRAM_API_BASE",
		"SEND_TIMEOUT", "WEBHOOK_SECRET", "WEBHOOK_PATH", "PUBLIC_URL",
		"WA_PRIMARY", "WA_SECONDARY", "PORT", "READ_TIMEOUT",
		"READ_HEADER_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT",
		"MAX_HEADER_BYTES", "GIN_MODE", "LOG_LEVEL", "LOG_PRETTY",
		"DB_PATH", "UPDATE_DEDUP_TTL", "RATE_RPS", "RATE_BURST",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_EXPORTER_OTLP_INSECURE", "OTEL_SERVICE_NAME",
		"OTEL_TRACES_SAMPLER_ARG",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OPERATORS_GROUP_ID", "-500")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "10000" || cfg.DBPath != "doloni.db" {
		t.Errorf("defaults wrong: port=%q db=%q", cfg.Port, cfg.DBPath)
	}
	if cfg.WebhookPath != "/webhook" || cfg.WebhookSecret != "change-me" {
		t.Errorf("webhook defaults wrong: %q %q", cfg.WebhookPath, cfg.WebhookSecret)
	}
	if cfg.SendTimeout != 10*time.Second {
		t.Errorf("SendTimeout = %v", cfg.SendTimeout)
	}
	if cfg.WebhookURL() != "" {
		t.Errorf("no public URL should mean no webhook URL, got %q", cfg.WebhookURL())
	}
	if len(cfg.OperatorIDs) != 0 {
		t.Errorf("OperatorIDs = %v", cfg.OperatorIDs)
	}
}

func TestLoad_MissingTokenFails(t *testing.T) {
	clearEnv(t)
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "BOT_TOKEN") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_MissingGroupFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "OPERATORS_GROUP_ID") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_OperatorsAndGroup(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OPERATORS_GROUP_ID", "-1001234567890")
	t.Setenv("ADMIN_IDS", "100, 101, junk, ,102")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OperatorsGroupID != -1001234567890 {
		t.Errorf("group = %d", cfg.OperatorsGroupID)
	}
	if len(cfg.OperatorIDs) != 3 {
		t.Fatalf("OperatorIDs = %v", cfg.OperatorIDs)
	}
	ops := cfg.Operators()
	for _, want := range []int64{100, 101, 102} {
		if _, ok := ops[want]; !ok {
			t.Errorf("operator %d missing from set", want)
		}
	}
}

func TestLoad_WebhookURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OPERATORS_GROUP_ID", "-500")
	t.Setenv("PUBLIC_URL", "https://bot.example/")
	t.Setenv("WEBHOOK_PATH", "hook")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WebhookURL() != "https://bot.example/hook" {
		t.Errorf("WebhookURL = %q", cfg.WebhookURL())
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		key, val, wantErr string
	}{
		{"LOG_LEVEL", "noisy", "LOG_LEVEL"},
		{"READ_TIMEOUT", "-1s", "timeouts"},
		{"SEND_TIMEOUT", "-1s", "SEND_TIMEOUT"},
		{"RATE_BURST", "0", "RATE_BURST"},
		{"OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
		{"UPDATE_DEDUP_TTL", "-1h", "UPDATE_DEDUP_TTL"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("BOT_TOKEN", "123:abc")
			t.Setenv("OPERATORS_GROUP_ID", "-500")
			t.Setenv(tc.key, tc.val)
			if _, err := Load(); err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want mention of %s", err, tc.wantErr)
			}
		})
	}
}

func TestLoad_NormalizesGinModeAndWarnAlias(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("OPERATORS_GROUP_ID", "-500")
	t.Setenv("GIN_MODE", "strange")
	t.Setenv("LOG_LEVEL", "WARNING")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q", cfg.GinMode)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}
