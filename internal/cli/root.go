package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/twliu-dorian/zk-agreement-example/internal/config"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Global flag values shared across all commands.
var (
	flagJSON            bool
	flagQuiet           bool
	flagVerbose         bool
	flagConfig          string
	flagProfile         string
	flagAuditLog        string
	flagKeystore        string
	flagKeystoreBackend string
	flagStateDir        string
	flagNotifyURL       string
)

// effectiveAuditLogPath is resolved in PersistentPreRunE: CLI > env > config.
var effectiveAuditLogPath string

// NewRootCmd creates the top-level cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "escrow",
		Short: "Commit-reveal key escrow for sealed artifacts",
		Long: "escrow seals artifacts under keys derived from a per-subject master secret, publishes a\n" +
			"commitment to that secret, and releases the artifact only after a disclosed secret has been\n" +
			"verified against the commitment.",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if flagVerbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			if flagQuiet {
				zerolog.SetGlobalLevel(zerolog.ErrorLevel)
			}
			return loadEffectiveConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags available to every subcommand.
	pf := root.PersistentFlags()
	pf.BoolVar(&flagJSON, "json", false, "output results as JSON")
	pf.BoolVar(&flagQuiet, "quiet", false, "minimal output (errors only)")
	pf.BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	pf.StringVar(&flagConfig, "config", "", "config file (or ESCROW_CONFIG env; default ~/.escrow.yaml, ./.escrow.yaml)")
	pf.StringVar(&flagProfile, "profile", "", "config profile (or ESCROW_PROFILE env)")

	// Storage.
	pf.StringVar(&flagStateDir, "state-dir", "", "directory for protocol records and the default keystore")
	pf.StringVar(&flagKeystore, "keystore", "", "keystore location (file or directory, depending on backend)")
	pf.StringVar(&flagKeystoreBackend, "keystore-backend", "", "keystore backend: file, badger, memory")

	// Collaborators and audit trail.
	pf.StringVar(&flagNotifyURL, "notify-url", "", "base URL for event notifications (or ESCROW_NOTIFY_URL env)")
	pf.StringVar(&flagAuditLog, "audit-log", "", "append-only audit log file (or ESCROW_AUDIT_LOG env)")

	// Register subcommands.
	root.AddCommand(newSealCmd())
	root.AddCommand(newPublishCommitmentCmd())
	root.AddCommand(newInitEscrowCmd())
	root.AddCommand(newDiscloseCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newRevealCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newShowSecretCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newAuditCmd())
	root.AddCommand(newMenuCmd())

	return root
}

// loadEffectiveConfig layers CLI flags over the file/profile/env config and
// stores the result for config.Get.
func loadEffectiveConfig() error {
	loaded, err := config.Load(flagConfig, flagProfile)
	if err != nil {
		return err
	}
	cfg := *loaded
	if flagStateDir != "" {
		cfg.StateDir = flagStateDir
	}
	if flagKeystore != "" {
		cfg.KeystorePath = flagKeystore
	}
	if flagKeystoreBackend != "" {
		cfg.KeystoreBackend = flagKeystoreBackend
	}
	if flagNotifyURL != "" {
		cfg.NotifyURL = flagNotifyURL
	}
	if flagAuditLog != "" {
		cfg.AuditLog = flagAuditLog
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	config.SetLoaded(&cfg)

	effectiveAuditLogPath = cfg.AuditLog
	resetAuditLogger()
	return nil
}

// effectiveConfig returns the config resolved for this invocation.
func effectiveConfig() *config.EffectiveConfig {
	if c := config.Get(); c != nil {
		return c
	}
	c := config.DefaultEffective()
	return &c
}

// Execute runs the root command and exits with the correct code.
func Execute() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		NewPrinter(flagJSON, flagQuiet).Error(err, "command failed")
		os.Exit(util.ExitCodeForError(err))
	}
}
