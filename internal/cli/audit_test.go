package cli

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/twliu-dorian/zk-agreement-example/internal/audit"
)

func TestAuditLog_WorkflowAndExport(t *testing.T) {
	e := newCLIEnv(t)
	logPath := e.path("audit.jsonl")
	in := e.path("file.txt")
	os.WriteFile(in, []byte("hello"), 0o600)

	e.mustRun(t, "seal", "--audit-log", logPath, "--subject", "v1", "--in", in, "--artifact", "file.txt")
	secret := strings.TrimSpace(e.mustRun(t, "show-secret", "--audit-log", logPath, "--subject", "v1"))
	if _, err := e.run("reveal", "--audit-log", logPath, "--subject", "v1", "--artifact", "file.txt", "--secret", secret, "--out", e.path("out.txt")); err == nil {
		t.Fatal("reveal of a sealed record succeeded")
	}

	raw, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), secret) {
		t.Fatal("audit log contains the master secret")
	}

	out := e.mustRun(t, "audit", "export", "--audit-log", logPath, "--subject", "v1")
	var entries []audit.Entry
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	ops := make([]string, len(entries))
	for i, en := range entries {
		ops[i] = en.Operation
	}
	if got := strings.Join(ops, ","); got != "seal,show-secret,reveal" {
		t.Fatalf("operations = %s", got)
	}
	if entries[0].Commitment == "" || entries[0].Status != "SEALED" || !entries[0].Success {
		t.Errorf("seal entry = %+v", entries[0])
	}
	if entries[2].Success || !strings.Contains(entries[2].Error, "not authorized") {
		t.Errorf("reveal entry = %+v", entries[2])
	}

	out = e.mustRun(t, "audit", "export", "--log", logPath, "--failures", "--format", "csv")
	rows := strings.Split(strings.TrimSpace(out), "\n")
	if len(rows) != 2 || !strings.Contains(rows[1], "reveal") {
		t.Errorf("failures CSV:\n%s", out)
	}
}

func TestAuditExport_RequiresLog(t *testing.T) {
	e := newCLIEnv(t)
	if _, err := e.run("audit", "export"); err == nil {
		t.Error("expected error without an audit log path")
	}
	if _, err := e.run("audit", "export", "--log", e.path("a.jsonl"), "--format", "xml"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
