package audit

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// ExportFilter filters audit entries for export.
type ExportFilter struct {
	Since     *time.Time // include only entries on or after
	Until     *time.Time // include only entries before
	Operation string     // exact operation name, or "" for all
	Subject   string     // exact subject id, or ""
	Artifact  string     // artifact name or id (substring match), or ""
	Failures  bool       // only unsuccessful entries
}

// Matches returns true if e should be included.
func (f *ExportFilter) Matches(e *Entry) bool {
	if f == nil {
		return true
	}
	if f.Operation != "" && e.Operation != f.Operation {
		return false
	}
	if f.Subject != "" && e.Subject != f.Subject {
		return false
	}
	if f.Artifact != "" && !strings.Contains(e.Artifact, f.Artifact) && !strings.Contains(e.ArtifactID, f.Artifact) {
		return false
	}
	if f.Failures && e.Success {
		return false
	}
	if f.Since != nil || f.Until != nil {
		t, err := time.Parse(time.RFC3339, e.Timestamp)
		if err != nil {
			return false
		}
		if f.Since != nil && t.Before(*f.Since) {
			return false
		}
		if f.Until != nil && !t.Before(*f.Until) {
			return false
		}
	}
	return true
}

// ReadAuditLog reads a JSON-lines audit log file and returns entries (optionally filtered).
// Malformed lines are skipped.
func ReadAuditLog(path string, filter *ExportFilter) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		if !filter.Matches(&e) {
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ExportJSON encodes entries as a JSON array.
func ExportJSON(entries []Entry, indent string) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	if indent != "" {
		return json.MarshalIndent(entries, "", indent)
	}
	return json.Marshal(entries)
}

var csvHeader = []string{
	"timestamp", "operation", "subject", "artifact", "artifact_id", "commitment",
	"status", "input_file", "output_file", "user", "hostname", "success", "error",
}

// ExportCSV encodes entries as CSV with a header row.
func ExportCSV(entries []Entry) ([]byte, error) {
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, e := range entries {
		row := []string{
			e.Timestamp,
			e.Operation,
			e.Subject,
			e.Artifact,
			e.ArtifactID,
			e.Commitment,
			e.Status,
			e.InputFile,
			e.OutputFile,
			e.User,
			e.Hostname,
			fmt.Sprint(e.Success),
			e.Error,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(buf.String()), nil
}
