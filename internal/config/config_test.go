package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/unisonobot/unisono/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

const minimalConfig = `
telegram:
  token: "123456789:test-token"
  admin_chat_id: 42
`

func TestLoadConfig_Minimal(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Telegram.Token != "123456789:test-token" {
		t.Errorf("unexpected token: %q", cfg.Telegram.Token)
	}
	if cfg.Telegram.AdminChatID != 42 {
		t.Errorf("unexpected admin chat id: %d", cfg.Telegram.AdminChatID)
	}

	// Everything else comes from defaults.
	if cfg.Logger.Level != "info" {
		t.Errorf("expected default log level info, got %q", cfg.Logger.Level)
	}
	if cfg.Database.Path != "unisono.db" {
		t.Errorf("expected default database path, got %q", cfg.Database.Path)
	}
	if cfg.Engine.MinVoiceDuration() != 5*time.Second {
		t.Errorf("expected default minimum voice duration 5s, got %s", cfg.Engine.MinVoiceDuration())
	}
	if cfg.Engine.DevMode {
		t.Error("dev mode must default to off")
	}
	if cfg.Gemini.Enabled {
		t.Error("gemini must default to disabled")
	}
	if cfg.Messages.Welcome == "" || cfg.Messages.NoCandidates == "" || cfg.Messages.Match == "" {
		t.Error("default user-facing messages must not be empty")
	}
	if cfg.Messages.WelcomeVoice != "" {
		t.Errorf("welcome voice must default to unset, got %q", cfg.Messages.WelcomeVoice)
	}

	task, ok := cfg.Scheduler.Tasks["sql_maintenance"]
	if !ok {
		t.Fatal("expected default sql_maintenance task")
	}
	if !task.Enabled || task.Schedule == "" {
		t.Errorf("unexpected sql_maintenance defaults: %+v", task)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
  json: true
telegram:
  token: "123456789:test-token"
  admin_chat_id: 42
engine:
  min_voice_duration_seconds: 12
  dev_mode: true
database:
  path: /tmp/other.db
messages:
  welcome_voice: "file-abc123"
`)

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Logger.Level != "debug" || !cfg.Logger.JSON {
		t.Errorf("logger overrides not applied: %+v", cfg.Logger)
	}
	if cfg.Engine.MinVoiceDuration() != 12*time.Second {
		t.Errorf("expected 12s minimum, got %s", cfg.Engine.MinVoiceDuration())
	}
	if !cfg.Engine.DevMode {
		t.Error("dev mode override not applied")
	}
	if cfg.Database.Path != "/tmp/other.db" {
		t.Errorf("database path override not applied: %q", cfg.Database.Path)
	}
	if cfg.Messages.WelcomeVoice != "file-abc123" {
		t.Errorf("welcome voice override not applied: %q", cfg.Messages.WelcomeVoice)
	}
}

func TestLoadConfig_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing token",
			content: `
telegram:
  admin_chat_id: 42
`,
		},
		{
			name: "missing admin chat",
			content: `
telegram:
  token: "123456789:test-token"
`,
		},
		{
			name: "bad log level",
			content: minimalConfig + `
logger:
  level: loud
`,
		},
		{
			name: "negative voice duration",
			content: minimalConfig + `
engine:
  min_voice_duration_seconds: -1
`,
		},
		{
			name: "gemini enabled without key",
			content: minimalConfig + `
gemini:
  enabled: true
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := config.LoadConfig(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}
