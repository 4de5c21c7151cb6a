package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"pptx-translator/internal/types"
)

func newManager(t *testing.T, dir string) *ConfigManager {
	t.Helper()
	cm, err := NewConfigManager(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("NewConfigManager failed: %v", err)
	}
	cm.SetEnvFile(filepath.Join(dir, ".env"))
	return cm
}

func TestNewConfigManager(t *testing.T) {
	t.Run("with custom path", func(t *testing.T) {
		cm, err := NewConfigManager("/tmp/pptx-config.json")
		if err != nil {
			t.Fatalf("NewConfigManager failed: %v", err)
		}
		if cm.GetConfigPath() != "/tmp/pptx-config.json" {
			t.Errorf("unexpected config path %s", cm.GetConfigPath())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		cm, err := NewConfigManager("")
		if err != nil {
			t.Fatalf("NewConfigManager failed: %v", err)
		}
		if filepath.Base(cm.GetConfigPath()) != DefaultConfigFileName {
			t.Errorf("unexpected default path %s", cm.GetConfigPath())
		}
	})
}

func TestConfigManager_LoadSave(t *testing.T) {
	dir := t.TempDir()

	t.Run("Load with non-existent file uses defaults", func(t *testing.T) {
		cm := newManager(t, dir)
		if err := cm.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		cfg := cm.GetConfig()
		if cfg.OpenAIModel != DefaultModel || cfg.TargetLanguage != DefaultTargetLanguage {
			t.Errorf("defaults not applied: %+v", cfg)
		}
		if cfg.InterBatchDelayMs != DefaultInterBatchMs || cfg.Concurrency != 1 {
			t.Errorf("dispatch defaults not applied: %+v", cfg)
		}
	})

	t.Run("Save then Load round trips", func(t *testing.T) {
		cm := newManager(t, dir)
		cm.SetConfig(&types.Config{
			OpenAIAPIKey:   "test-api-key",
			OpenAIModel:    "gpt-4o",
			TargetLanguage: "Arabic",
			Concurrency:    4,
		})
		if err := cm.Save(); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		info, err := os.Stat(cm.GetConfigPath())
		if err != nil {
			t.Fatalf("config file was not created: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("config permissions = %v, want 0600", info.Mode().Perm())
		}

		loaded := newManager(t, dir)
		if err := loaded.Load(); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		cfg := loaded.GetConfig()
		if cfg.OpenAIAPIKey != "test-api-key" || cfg.OpenAIModel != "gpt-4o" || cfg.TargetLanguage != "Arabic" || cfg.Concurrency != 4 {
			t.Errorf("loaded config mismatch: %+v", cfg)
		}
		if cfg.BatchMaxChars != DefaultBatchMaxChars {
			t.Errorf("missing fields should be defaulted, got %d", cfg.BatchMaxChars)
		}
	})

	t.Run("Load with invalid JSON uses defaults", func(t *testing.T) {
		bad := t.TempDir()
		if err := os.WriteFile(filepath.Join(bad, "config.json"), []byte("invalid json"), 0644); err != nil {
			t.Fatal(err)
		}
		cm := newManager(t, bad)
		if err := cm.Load(); !types.IsCode(err, types.ErrConfig) {
			t.Errorf("invalid JSON should be reported as a config error, got %v", err)
		}
		if cm.GetConfig().OpenAIModel != DefaultModel {
			t.Errorf("expected default model, got %s", cm.GetConfig().OpenAIModel)
		}
	})
}

func TestConfigManager_EnvFile(t *testing.T) {
	dir := t.TempDir()
	env := "OPENAI_API_KEY=dotenv-key\nOPENAI_BASE_URL=http://localhost:8080/v1\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvOpenAIAPIKey, "")
	t.Setenv(EnvOpenAIBaseURL, "")
	t.Setenv(EnvOpenAIModel, "")

	cm := newManager(t, dir)
	if err := cm.Load(); err != nil {
		t.Fatal(err)
	}
	if got := cm.GetAPIKey(); got != "dotenv-key" {
		t.Errorf("GetAPIKey() = %q, want dotenv-key", got)
	}
	if got := cm.GetBaseURL(); got != "http://localhost:8080/v1" {
		t.Errorf("GetBaseURL() = %q", got)
	}

	t.Setenv(EnvOpenAIAPIKey, "process-key")
	if got := cm.GetAPIKey(); got != "process-key" {
		t.Errorf("process env should win over .env, got %q", got)
	}
}

func TestConfigManager_GetAPIKey(t *testing.T) {
	dir := t.TempDir()

	t.Run("config file value wins", func(t *testing.T) {
		t.Setenv(EnvOpenAIAPIKey, "env-api-key")
		cm := newManager(t, dir)
		cm.SetConfig(&types.Config{OpenAIAPIKey: "config-api-key"})
		if got := cm.GetAPIKey(); got != "config-api-key" {
			t.Errorf("expected config-api-key, got %q", got)
		}
	})

	t.Run("falls back to environment variable", func(t *testing.T) {
		t.Setenv(EnvOpenAIAPIKey, "env-api-key")
		cm := newManager(t, dir)
		cm.SetConfig(&types.Config{})
		if got := cm.GetAPIKey(); got != "env-api-key" {
			t.Errorf("expected env-api-key, got %q", got)
		}
	})
}

func TestConfigManager_Resolved(t *testing.T) {
	t.Setenv(EnvOpenAIModel, "gpt-4.1-mini")
	t.Setenv(EnvOpenAIBaseURL, "")
	cm := newManager(t, t.TempDir())
	cm.SetConfig(&types.Config{OpenAIAPIKey: "k", OpenAIModel: "gpt-4o"})

	r := cm.Resolved()
	if r.OpenAIModel != "gpt-4.1-mini" {
		t.Errorf("model override not applied: %s", r.OpenAIModel)
	}
	if r.OpenAIBaseURL != DefaultBaseURL {
		t.Errorf("base URL = %s", r.OpenAIBaseURL)
	}
	if cm.GetConfig().OpenAIModel != "gpt-4o" {
		t.Error("Resolved must not mutate the stored config")
	}
}

func TestConfigManager_SetAPIKey(t *testing.T) {
	dir := t.TempDir()
	cm := newManager(t, filepath.Join(dir, "nested"))
	if err := cm.SetAPIKey("new-api-key"); err != nil {
		t.Fatalf("SetAPIKey failed: %v", err)
	}

	data, err := os.ReadFile(cm.GetConfigPath())
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	var saved types.Config
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("failed to parse saved config: %v", err)
	}
	if saved.OpenAIAPIKey != "new-api-key" {
		t.Errorf("saved API key = %q", saved.OpenAIAPIKey)
	}
}
