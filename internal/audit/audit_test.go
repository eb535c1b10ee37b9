package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestFileLogger_Log(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit.jsonl")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	e := &Entry{
		Operation:  OpSeal,
		Subject:    "v1",
		Artifact:   "file.txt",
		InputFile:  "file.txt",
		OutputFile: "file.txt.enc",
		Success:    true,
	}
	if err := logger.Log(e); err != nil {
		t.Fatal(err)
	}
	if err := logger.Log(&Entry{Operation: OpReveal, Subject: "v1", Error: "not authorized"}); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var got []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry Entry
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("line is not JSON: %v", err)
		}
		got = append(got, entry)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	if got[0].Timestamp == "" || got[0].Hostname == "" {
		t.Errorf("defaults not filled: %+v", got[0])
	}
	if got[1].Operation != OpReveal || got[1].Success {
		t.Errorf("second entry = %+v", got[1])
	}
}

func TestFileLogger_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := logger.Log(&Entry{Operation: OpDisclose, Subject: "v1", Success: true}); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	entries, err := ReadAuditLog(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != n {
		t.Errorf("expected %d entries, got %d", n, len(entries))
	}
}

func TestNopLogger_Log(t *testing.T) {
	var n NopLogger
	if err := n.Log(&Entry{Operation: OpVerify}); err != nil {
		t.Fatal(err)
	}
}
