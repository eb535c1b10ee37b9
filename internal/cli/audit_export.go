package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/twliu-dorian/zk-agreement-example/internal/audit"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit trail and export",
		Long:  "Parent command for audit log export. Use 'escrow audit export --format csv' to export the audit log.",
	}
	cmd.AddCommand(newAuditExportCmd())
	return cmd
}

func newAuditExportCmd() *cobra.Command {
	var (
		logPath   string
		format    string
		since     string
		until     string
		operation string
		subject   string
		artifact  string
		failures  bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export audit log to CSV or JSON",
		Long: "Read the audit log file and output filtered entries as CSV or JSON. Use --since and --until for\n" +
			"a date range (RFC3339 or 2006-01-02), and --operation, --subject, --artifact, --failures to filter.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if logPath == "" {
				logPath = effectiveAuditLogPath
			}
			if logPath == "" {
				return fmt.Errorf("%w: audit log path required: set --audit-log, --log, or ESCROW_AUDIT_LOG", util.ErrInvalidRequest)
			}

			filter := audit.ExportFilter{
				Operation: operation,
				Subject:   subject,
				Artifact:  artifact,
				Failures:  failures,
			}
			if since != "" {
				t, err := parseAuditTime(since)
				if err != nil {
					return fmt.Errorf("--since: %w", err)
				}
				filter.Since = &t
			}
			if until != "" {
				t, err := parseAuditTime(until)
				if err != nil {
					return fmt.Errorf("--until: %w", err)
				}
				filter.Until = &t
			}

			entries, err := audit.ReadAuditLog(logPath, &filter)
			if err != nil {
				return fmt.Errorf("read audit log: %w", err)
			}

			var out []byte
			switch format {
			case "csv":
				out, err = audit.ExportCSV(entries)
			case "json":
				out, err = audit.ExportJSON(entries, "  ")
			default:
				return fmt.Errorf("%w: unsupported format %q; use csv or json", util.ErrInvalidRequest, format)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&logPath, "log", "", "audit log file (default: --audit-log or ESCROW_AUDIT_LOG)")
	cmd.Flags().StringVar(&format, "format", "json", "output format: csv, json")
	cmd.Flags().StringVar(&since, "since", "", "include entries on or after this time (RFC3339 or 2006-01-02)")
	cmd.Flags().StringVar(&until, "until", "", "include entries before this time (RFC3339 or 2006-01-02)")
	cmd.Flags().StringVar(&operation, "operation", "", "filter by operation name (e.g. seal, reveal)")
	cmd.Flags().StringVar(&subject, "subject", "", "filter by subject id")
	cmd.Flags().StringVar(&artifact, "artifact", "", "filter by artifact name or id (substring match)")
	cmd.Flags().BoolVar(&failures, "failures", false, "only failed operations")

	return cmd
}

func parseAuditTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: invalid time %q (use RFC3339 or 2006-01-02)", util.ErrInvalidRequest, s)
}
