package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/twliu-dorian/zk-agreement-example/internal/keystore"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

// isolate points config discovery at an empty home directory.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvConfigPath, "")
	t.Setenv(EnvProfile, "")
	SetLoaded(nil)
	t.Cleanup(func() { SetLoaded(nil) })
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "escrow.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultEffective(t *testing.T) {
	d := DefaultEffective()
	if d.KeystoreBackend != keystore.BackendFile {
		t.Errorf("default keystore_backend: got %q", d.KeystoreBackend)
	}
	if d.MaxAttempts != 5 {
		t.Errorf("default max_attempts: got %d, want 5", d.MaxAttempts)
	}
	if d.CommitmentAlgo != "sha256" {
		t.Errorf("default commitment_algo: got %q", d.CommitmentAlgo)
	}
	if d.NotifyTimeout != 10*time.Second {
		t.Errorf("default notify_timeout: got %s", d.NotifyTimeout)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestResolvedPaths(t *testing.T) {
	c := DefaultEffective()
	c.StateDir = "/var/lib/escrow"
	if got := c.ResolvedKeystorePath(); got != filepath.Join("/var/lib/escrow", keystore.DefaultFileName) {
		t.Errorf("file keystore path: got %q", got)
	}
	c.KeystoreBackend = keystore.BackendBadger
	if got := c.ResolvedKeystorePath(); got != "/var/lib/escrow/keys" {
		t.Errorf("badger keystore path: got %q", got)
	}
	c.KeystorePath = "/srv/keys"
	if got := c.ResolvedKeystorePath(); got != "/srv/keys" {
		t.Errorf("explicit keystore path: got %q", got)
	}
	if got := c.RecordsDir(); got != "/var/lib/escrow/records" {
		t.Errorf("records dir: got %q", got)
	}
}

func TestLoad_NoFile(t *testing.T) {
	isolate(t)
	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg == nil || Get() != cfg {
		t.Fatal("Load() did not store the config")
	}
	if cfg.StateDir != ".escrow" {
		t.Errorf("state_dir: got %q, want default", cfg.StateDir)
	}
}

func TestLoad_ExplicitPath_NotFound(t *testing.T) {
	isolate(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"), "")
	if err != nil {
		t.Fatalf("Load(nonexistent): %v", err)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("max_attempts: got %d, want default", cfg.MaxAttempts)
	}
}

func TestLoad_ExplicitPath_ValidYAML(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `keystore_backend: badger
keystore_path: /srv/escrow/keys
state_dir: /srv/escrow
audit_log: /var/log/escrow.jsonl
notify_url: https://escrow.example.com/api
notify_timeout: 30s
max_attempts: 0
commitment_algo: BLAKE3
`)

	cfg, err := Load(path, "")
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	want := EffectiveConfig{
		KeystoreBackend: keystore.BackendBadger,
		KeystorePath:    "/srv/escrow/keys",
		StateDir:        "/srv/escrow",
		AuditLog:        "/var/log/escrow.jsonl",
		NotifyURL:       "https://escrow.example.com/api",
		NotifyTimeout:   30 * time.Second,
		MaxAttempts:     0,
		CommitmentAlgo:  "blake3",
	}
	if *cfg != want {
		t.Errorf("config:\n got %+v\nwant %+v", *cfg, want)
	}
}

func TestLoad_ProfileOverride(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `audit_log: /var/log/default.jsonl
state_dir: /srv/escrow
profiles:
  prod:
    audit_log: /var/log/escrow-prod.jsonl
    max_attempts: 3
  dev:
    keystore_backend: memory
`)

	cfg, err := Load(path, "prod")
	if err != nil {
		t.Fatalf("Load(prod): %v", err)
	}
	if cfg.AuditLog != "/var/log/escrow-prod.jsonl" {
		t.Errorf("prod audit_log: got %q", cfg.AuditLog)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("prod max_attempts: got %d", cfg.MaxAttempts)
	}

	cfg, err = Load(path, "dev")
	if err != nil {
		t.Fatalf("Load(dev): %v", err)
	}
	if cfg.KeystoreBackend != keystore.BackendMemory {
		t.Errorf("dev keystore_backend: got %q", cfg.KeystoreBackend)
	}
	if cfg.AuditLog != "/var/log/default.jsonl" || cfg.StateDir != "/srv/escrow" {
		t.Errorf("dev did not inherit base keys: %+v", cfg)
	}

	if _, err := Load(path, "staging"); !errors.Is(err, util.ErrInvalidRequest) {
		t.Errorf("unknown profile: got %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `audit_log: /var/log/file.jsonl
max_attempts: 2
profiles:
  ci:
    notify_url: http://file-profile
`)
	t.Setenv(EnvConfigPath, path)
	t.Setenv(EnvProfile, "ci")
	t.Setenv("ESCROW_AUDIT_LOG", "/tmp/env.jsonl")
	t.Setenv("ESCROW_MAX_ATTEMPTS", "9")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.AuditLog != "/tmp/env.jsonl" {
		t.Errorf("audit_log: got %q, want env value", cfg.AuditLog)
	}
	if cfg.MaxAttempts != 9 {
		t.Errorf("max_attempts: got %d, want env value", cfg.MaxAttempts)
	}
	if cfg.NotifyURL != "http://file-profile" {
		t.Errorf("notify_url: got %q, want profile value", cfg.NotifyURL)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"backend", "keystore_backend: etcd\n", util.ErrInvalidRequest},
		{"algo", "commitment_algo: md5\n", util.ErrUnsupportedAlgorithm},
		{"attempts", "max_attempts: -1\n", util.ErrInvalidRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			if _, err := Load(writeConfig(t, tc.content), ""); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}

	t.Run("malformed yaml", func(t *testing.T) {
		isolate(t)
		if _, err := Load(writeConfig(t, "state_dir: [unterminated\n"), ""); err == nil {
			t.Error("expected error")
		}
	})
}

func TestGet_SetLoaded(t *testing.T) {
	SetLoaded(nil)
	if Get() != nil {
		t.Error("Get() should be nil after SetLoaded(nil)")
	}
	c := &EffectiveConfig{StateDir: "test"}
	SetLoaded(c)
	if Get() != c {
		t.Error("Get() should return set config")
	}
	SetLoaded(nil)
}
