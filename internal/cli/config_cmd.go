package cli

import (
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show effective configuration and precedence",
		Long: "Show the effective configuration used by escrow.\n\n" +
			"Precedence (highest wins):\n" +
			"  1. CLI flags (e.g. --audit-log, --state-dir, --keystore-backend)\n" +
			"  2. Environment variables ESCROW_<KEY> (e.g. ESCROW_AUDIT_LOG, ESCROW_NOTIFY_URL)\n" +
			"  3. Profile overrides (from --profile or ESCROW_PROFILE)\n" +
			"  4. Config file (from --config, ESCROW_CONFIG, or ~/.escrow.yaml / ./.escrow.yaml)\n" +
			"  5. Built-in defaults\n\n" +
			"Config file keys: keystore_backend, keystore_path, state_dir, audit_log, notify_url,\n" +
			"notify_timeout, max_attempts, commitment_algo. Profiles override any of these under\n" +
			"the 'profiles' key (e.g. profiles.prod.audit_log).",
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)
			cfg := effectiveConfig()

			if printer.Mode == OutputJSON {
				return printer.JSON(cfg)
			}
			printer.Human("Effective configuration:")
			printer.Human("  keystore_backend:  %s", cfg.KeystoreBackend)
			printer.Human("  keystore_path:     %q", cfg.ResolvedKeystorePath())
			printer.Human("  state_dir:         %q", cfg.StateDir)
			printer.Human("  audit_log:         %q", cfg.AuditLog)
			printer.Human("  notify_url:        %q", cfg.NotifyURL)
			printer.Human("  notify_timeout:    %s", cfg.NotifyTimeout)
			printer.Human("  max_attempts:      %d", cfg.MaxAttempts)
			printer.Human("  commitment_algo:   %s", cfg.CommitmentAlgo)
			return nil
		},
	}
	return cmd
}
