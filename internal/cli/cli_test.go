package cli

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/twliu-dorian/zk-agreement-example/internal/config"
	"github.com/twliu-dorian/zk-agreement-example/internal/escrow"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

// cliEnv is an isolated working area: its own HOME and state directory.
type cliEnv struct {
	dir      string
	stateDir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", filepath.Join(dir, "home"))
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv(config.EnvProfile, "")
	t.Setenv("ESCROW_AUDIT_LOG", "")
	t.Setenv("ESCROW_NOTIFY_URL", "")
	t.Cleanup(func() { config.SetLoaded(nil) })
	return &cliEnv{dir: dir, stateDir: filepath.Join(dir, "state")}
}

func (e *cliEnv) path(name string) string {
	return filepath.Join(e.dir, name)
}

// run executes the CLI and returns what it wrote to stdout.
func (e *cliEnv) run(args ...string) (string, error) {
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(args, "--state-dir", e.stateDir))
	err := root.Execute()
	return out.String(), err
}

func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := e.run(args...)
	if err != nil {
		t.Fatalf("%s: %v", args[0], err)
	}
	return out
}

// escrowed seals "hello" as file.txt for subject v1, publishes the
// commitment and initializes the escrow.
func (e *cliEnv) escrowed(t *testing.T) {
	t.Helper()
	in := e.path("file.txt")
	if err := os.WriteFile(in, []byte("hello"), 0o600); err != nil {
		t.Fatal(err)
	}
	e.mustRun(t, "seal", "--subject", "v1", "--in", in, "--artifact", "file.txt", "--out", e.path("file.txt.enc"))
	e.mustRun(t, "publish-commitment", "--subject", "v1", "--artifact", "file.txt", "--out", e.path("commitment.txt"))
	e.mustRun(t, "init-escrow", "--subject", "v1", "--artifact", "file.txt", "--commitment", e.path("commitment.txt"), "--counterparty", "buyer")
}

func TestWorkflow_SealToReveal(t *testing.T) {
	e := newCLIEnv(t)
	e.escrowed(t)

	e.mustRun(t, "show-secret", "--subject", "v1", "--out", e.path("secret.hex"))
	e.mustRun(t, "disclose", "--subject", "v1", "--artifact", "file.txt", "--secret-file", e.path("secret.hex"))

	// Not yet verified: the right secret is still refused.
	_, err := e.run("reveal", "--subject", "v1", "--artifact", "file.txt", "--secret-file", e.path("secret.hex"), "--out", e.path("early.txt"))
	if util.ExitCodeForError(err) != util.ExitNotAuthorized {
		t.Fatalf("reveal before verify: got %v (exit %d)", err, util.ExitCodeForError(err))
	}
	if _, statErr := os.Stat(e.path("early.txt")); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("plaintext written for an unauthorized reveal")
	}

	out := e.mustRun(t, "verify", "--subject", "v1", "--artifact", "file.txt")
	if !strings.Contains(out, string(escrow.StatusVerifiedSuccess)) {
		t.Errorf("verify output:\n%s", out)
	}

	e.mustRun(t, "reveal", "--subject", "v1", "--artifact", "file.txt", "--secret-file", e.path("secret.hex"), "--out", e.path("revealed.txt"))
	got, err := os.ReadFile(e.path("revealed.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Errorf("revealed %q, want hello", got)
	}
}

func TestWorkflow_CommitmentFileMatchesSecret(t *testing.T) {
	e := newCLIEnv(t)
	e.escrowed(t)

	secretHex := strings.TrimSpace(e.mustRun(t, "show-secret", "--subject", "v1"))
	secret, err := util.HexDecode(secretHex)
	if err != nil {
		t.Fatalf("show-secret printed %q: %v", secretHex, err)
	}
	raw, err := os.ReadFile(e.path("commitment.txt"))
	if err != nil {
		t.Fatal(err)
	}
	published, err := escrow.ParseCommitment(string(raw))
	if err != nil {
		t.Fatal(err)
	}
	if !escrow.Commit(secret).Equal(published) {
		t.Error("published commitment is not SHA-256 of the master secret")
	}
}

func TestWorkflow_WrongSecret(t *testing.T) {
	e := newCLIEnv(t)
	e.escrowed(t)

	wrong := strings.Repeat("00", 32)
	e.mustRun(t, "disclose", "--subject", "v1", "--artifact", "file.txt", "--secret", wrong)

	out, err := e.run("verify", "--subject", "v1", "--artifact", "file.txt")
	if !errors.Is(err, util.ErrCommitmentMismatch) || util.ExitCodeForError(err) != util.ExitVerifyFailed {
		t.Fatalf("verify: got %v", err)
	}
	if !strings.Contains(out, string(escrow.StatusVerifiedFailure)) {
		t.Errorf("verify output:\n%s", out)
	}

	_, err = e.run("reveal", "--subject", "v1", "--artifact", "file.txt", "--secret", wrong, "--out", e.path("x"))
	if !errors.Is(err, util.ErrNotAuthorized) {
		t.Errorf("reveal: got %v, want ErrNotAuthorized", err)
	}
}

func TestWorkflow_OutOfOrder(t *testing.T) {
	e := newCLIEnv(t)
	in := e.path("file.txt")
	os.WriteFile(in, []byte("hello"), 0o600)
	e.mustRun(t, "seal", "--subject", "v1", "--in", in, "--artifact", "file.txt")

	_, err := e.run("disclose", "--subject", "v1", "--artifact", "file.txt", "--secret", strings.Repeat("ab", 32))
	if util.ExitCodeForError(err) != util.ExitInvalidTransition {
		t.Errorf("disclose while sealed: got %v (exit %d)", err, util.ExitCodeForError(err))
	}
	if _, err := os.Stat(in + ".enc"); err != nil {
		t.Errorf("default container path not used: %v", err)
	}
}

func TestSealCmd_JSON(t *testing.T) {
	e := newCLIEnv(t)
	in := e.path("data.bin")
	os.WriteFile(in, []byte{1, 2, 3}, 0o600)

	out := e.mustRun(t, "seal", "--json", "--subject", "v1", "--in", in, "--commitment-algo", "blake3")
	var rec escrow.Record
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("seal --json output is not a record: %v\n%s", err, out)
	}
	if rec.Status != escrow.StatusSealed || rec.CommitmentAlgo != "blake3" {
		t.Errorf("record = %+v", rec)
	}
	if rec.ArtifactName != in || rec.ArtifactID != escrow.ArtifactID(in) {
		t.Errorf("artifact name should default to --in: %+v", rec)
	}

	container, err := os.ReadFile(in + ".enc")
	if err != nil {
		t.Fatal(err)
	}
	if len(container) != 32+3 {
		t.Errorf("container is %d bytes, want 35", len(container))
	}
}

func TestCmd_MissingFlags(t *testing.T) {
	e := newCLIEnv(t)
	tests := [][]string{
		{"seal", "--in", "x"},
		{"seal", "--subject", "v1"},
		{"publish-commitment", "--subject", "v1", "--artifact", "a"},
		{"init-escrow", "--subject", "v1", "--artifact", "a", "--commitment", "c"},
		{"disclose", "--subject", "v1", "--artifact", "a"},
		{"disclose", "--subject", "v1", "--artifact", "a", "--secret", "00", "--secret-file", "f"},
		{"reveal", "--subject", "v1", "--artifact", "a", "--secret", strings.Repeat("00", 32)},
		{"show-secret"},
	}
	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := e.run(args...)
			if util.ExitCodeForError(err) != util.ExitInvalidArgs {
				t.Errorf("got %v (exit %d), want exit %d", err, util.ExitCodeForError(err), util.ExitInvalidArgs)
			}
		})
	}
}

func TestShowSecretCmd_UnknownSubject(t *testing.T) {
	e := newCLIEnv(t)
	_, err := e.run("show-secret", "--subject", "nobody")
	if !errors.Is(err, util.ErrSubjectNotFound) {
		t.Errorf("got %v, want ErrSubjectNotFound", err)
	}
}

func TestStatusCmd(t *testing.T) {
	e := newCLIEnv(t)
	e.escrowed(t)

	out := e.mustRun(t, "status", "--subject", "v1", "--artifact", "file.txt", "--history")
	for _, want := range []string{"COMMITTED", "buyer", "artifact sealed", "commitment published"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}

	out = e.mustRun(t, "status", "--json")
	var list []escrow.Record
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("status --json: %v\n%s", err, out)
	}
	if len(list) != 1 || list[0].SubjectID != "v1" {
		t.Errorf("list = %+v", list)
	}

	out = e.mustRun(t, "status", "--subject", "someone-else")
	if !strings.Contains(out, "No escrow records") {
		t.Errorf("filtered status:\n%s", out)
	}

	if _, err := e.run("status", "--subject", "v1", "--artifact", "other.txt"); !errors.Is(err, util.ErrRecordNotFound) {
		t.Errorf("unknown artifact: got %v", err)
	}
}

func TestWorkflow_BadgerKeystore(t *testing.T) {
	e := newCLIEnv(t)
	in := e.path("file.txt")
	os.WriteFile(in, []byte("hello"), 0o600)

	e.mustRun(t, "seal", "--keystore-backend", "badger", "--subject", "v1", "--in", in, "--artifact", "file.txt")
	first := e.mustRun(t, "show-secret", "--keystore-backend", "badger", "--subject", "v1")
	second := e.mustRun(t, "show-secret", "--keystore-backend", "badger", "--subject", "v1")
	if first != second || len(strings.TrimSpace(first)) != 64 {
		t.Errorf("badger secret not stable: %q vs %q", first, second)
	}
	if _, err := os.Stat(filepath.Join(e.stateDir, "keys")); err != nil {
		t.Errorf("badger directory not created under state dir: %v", err)
	}
}

func TestSealCmd_ContainerDigest(t *testing.T) {
	e := newCLIEnv(t)
	in := e.path("other.txt")
	os.WriteFile(in, []byte("other"), 0o600)
	out := e.mustRun(t, "seal", "--subject", "v1", "--in", in, "--artifact", "other.txt")

	container, err := os.ReadFile(in + ".enc")
	if err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256(container)
	want := hex.EncodeToString(sum[:])
	if !strings.Contains(out, "Container SHA-256: "+want) {
		t.Errorf("seal output missing digest %s:\n%s", want, out)
	}

	out = e.mustRun(t, "status", "--subject", "v1", "--artifact", "other.txt")
	if !strings.Contains(out, "(sha256 "+want+")") {
		t.Errorf("status output missing digest:\n%s", out)
	}

	os.Remove(in + ".enc")
	out = e.mustRun(t, "status", "--subject", "v1", "--artifact", "other.txt")
	if !strings.Contains(out, "(sha256 missing)") {
		t.Errorf("status output for a missing container:\n%s", out)
	}
}

func TestSealCmd_ContainerWriteFails(t *testing.T) {
	e := newCLIEnv(t)
	in := e.path("file.txt")
	os.WriteFile(in, []byte("hello"), 0o600)

	_, err := e.run("seal", "--subject", "v1", "--in", in, "--artifact", "file.txt", "--out", e.path("no-such-dir/file.enc"))
	if err == nil || !strings.Contains(err.Error(), "run seal again") {
		t.Fatalf("got %v, want a container write error", err)
	}

	out := e.mustRun(t, "status", "--json", "--subject", "v1")
	var list []escrow.Record
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Status != escrow.StatusSealed {
		t.Fatalf("records after failed write = %+v", list)
	}

	e.mustRun(t, "seal", "--subject", "v1", "--in", in, "--artifact", "file.txt", "--out", e.path("file.enc"))
	if _, err := os.Stat(e.path("file.enc")); err != nil {
		t.Errorf("container after resealing: %v", err)
	}
}
