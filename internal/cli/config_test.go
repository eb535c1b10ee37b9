package cli

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/twliu-dorian/zk-agreement-example/internal/config"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

func TestConfigCmd_FileAndFlags(t *testing.T) {
	e := newCLIEnv(t)
	cfgPath := e.path("escrow.yaml")
	content := []byte(`max_attempts: 3
commitment_algo: sha3-256
notify_url: http://from-file
profiles:
  prod:
    audit_log: /var/log/escrow-prod.jsonl
`)
	if err := os.WriteFile(cfgPath, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out := e.mustRun(t, "config", "--json", "--config", cfgPath, "--profile", "prod", "--notify-url", "http://from-flag")
	var cfg config.EffectiveConfig
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("config --json: %v\n%s", err, out)
	}
	if cfg.MaxAttempts != 3 || cfg.CommitmentAlgo != "sha3-256" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.AuditLog != "/var/log/escrow-prod.jsonl" {
		t.Errorf("profile audit_log: got %q", cfg.AuditLog)
	}
	if cfg.NotifyURL != "http://from-flag" {
		t.Errorf("flag should win over file: got %q", cfg.NotifyURL)
	}
	if cfg.StateDir != e.stateDir {
		t.Errorf("state_dir flag: got %q", cfg.StateDir)
	}
}

func TestConfigCmd_EnvBelowFlags(t *testing.T) {
	e := newCLIEnv(t)
	t.Setenv("ESCROW_NOTIFY_URL", "http://from-env")

	out := e.mustRun(t, "config", "--json")
	var cfg config.EffectiveConfig
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.NotifyURL != "http://from-env" {
		t.Errorf("env notify_url: got %q", cfg.NotifyURL)
	}

	out = e.mustRun(t, "config", "--json", "--notify-url", "http://from-flag")
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.NotifyURL != "http://from-flag" {
		t.Errorf("flag notify_url: got %q", cfg.NotifyURL)
	}
}

func TestConfigCmd_InvalidBackend(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run("config", "--keystore-backend", "etcd")
	if !errors.Is(err, util.ErrInvalidRequest) {
		t.Errorf("got %v, want ErrInvalidRequest", err)
	}
}
