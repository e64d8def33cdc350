package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	yaml := `
api:
  base_url: https://service.example.com/api/v1
  language: es-MX
account:
  email: user@example.com
  password: hunter2
socket:
  url: wss://ws.example.com
  max_reconnects: 7
proxies:
  all://: http://proxy.example:8080
  wss://: socks5://socks.example:1080
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.BaseURL != "https://service.example.com/api/v1" {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Account.Email != "user@example.com" {
		t.Errorf("Account.Email = %q", cfg.Account.Email)
	}
	if cfg.Socket.MaxReconnects != 7 {
		t.Errorf("Socket.MaxReconnects = %d, want 7", cfg.Socket.MaxReconnects)
	}
	if cfg.Proxies["wss://"] != "socks5://socks.example:1080" {
		t.Errorf("Proxies[wss://] = %q", cfg.Proxies["wss://"])
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_ACCOUNT_PASSWORD", "secret123")

	yaml := `
account:
  email: user@example.com
  password: ${TEST_ACCOUNT_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Account.Password != "secret123" {
		t.Errorf("Account.Password = %q, want %q", cfg.Account.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
account:
  sid: stored-sid
recorder:
  enabled: true
  database:
    host: localhost
    name: chat_archive
    user: archive
    password: archivepass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("API.BaseURL = %q, want default %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.API.Timeout != DefaultAPITimeout {
		t.Errorf("API.Timeout = %v, want default %v", cfg.API.Timeout, DefaultAPITimeout)
	}
	if cfg.Socket.URL != DefaultSocketURL {
		t.Errorf("Socket.URL = %q, want default %q", cfg.Socket.URL, DefaultSocketURL)
	}
	if cfg.Socket.BackoffBase != DefaultBackoffBase {
		t.Errorf("Socket.BackoffBase = %v, want default %v", cfg.Socket.BackoffBase, DefaultBackoffBase)
	}
	if cfg.Recorder.Database.Port != DefaultDBPort {
		t.Errorf("Recorder.Database.Port = %d, want default %d", cfg.Recorder.Database.Port, DefaultDBPort)
	}
	if cfg.Recorder.BatchSize != DefaultBatchSize {
		t.Errorf("Recorder.BatchSize = %d, want default %d", cfg.Recorder.BatchSize, DefaultBatchSize)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *AppConfig {
		cfg := &AppConfig{
			Account: AccountConfig{Email: "user@example.com", Password: "hunter2"},
			Socket: SocketConfig{
				BackoffBase: time.Second,
				BackoffMax:  30 * time.Second,
			},
		}
		cfg.applyDefaults()
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("sid only", func(t *testing.T) {
		cfg := valid()
		cfg.Account = AccountConfig{SID: "stored-sid"}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("no credentials", func(t *testing.T) {
		cfg := valid()
		cfg.Account = AccountConfig{}
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error")
		}
	})

	t.Run("email without password", func(t *testing.T) {
		cfg := valid()
		cfg.Account = AccountConfig{Email: "user@example.com", SID: "s"}
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error")
		}
	})

	t.Run("bad proxy class", func(t *testing.T) {
		cfg := valid()
		cfg.Proxies = ProxiesConfig{"ftp://": "http://proxy.example:8080"}
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error")
		}
	})

	t.Run("backoff inversion", func(t *testing.T) {
		cfg := valid()
		cfg.Socket.BackoffBase = time.Minute
		cfg.Socket.BackoffMax = time.Second
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error")
		}
	})

	t.Run("recorder missing host", func(t *testing.T) {
		cfg := valid()
		cfg.Recorder = RecorderConfig{Enabled: true, BatchSize: 1, BufferSize: 1}
		cfg.Recorder.Database = DBConfig{Name: "a", User: "b", Password: "c", MaxConns: 1}
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error")
		}
	})
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}
