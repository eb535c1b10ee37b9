package cli

import (
	"github.com/spf13/cobra"
	"github.com/twliu-dorian/zk-agreement-example/internal/audit"
	"github.com/twliu-dorian/zk-agreement-example/internal/escrow"
)

func newDiscloseCmd() *cobra.Command {
	var (
		subject    string
		artifact   string
		secretHex  string
		secretFile string
	)

	cmd := &cobra.Command{
		Use:   "disclose",
		Short: "Submit a candidate master secret for verification",
		Long: "Record the commitment hash of the candidate secret and move the record to DISCLOSED.\n" +
			"Only the hash is stored. Run verify afterwards.",
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)

			if err := requireFlags("subject", subject, "artifact", artifact); err != nil {
				return err
			}
			entry := audit.Entry{Operation: audit.OpDisclose, Subject: subject, Artifact: artifact, InputFile: secretFile}

			candidate, err := readCandidate(secretHex, secretFile)
			if err != nil {
				auditLog(entry, nil, err)
				return err
			}

			s, err := openSession(printer)
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := s.Disclose(cmd.Context(), escrow.DiscloseRequest{
				SubjectID:    subject,
				ArtifactName: artifact,
				Candidate:    candidate,
			})
			auditLog(entry, rec, err)
			if err != nil {
				return err
			}
			return printer.Record("Secret disclosed:", rec)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "subject id (required)")
	cmd.Flags().StringVar(&artifact, "artifact", "", "artifact name used at seal time (required)")
	cmd.Flags().StringVar(&secretHex, "secret", "", "candidate master secret (hex)")
	cmd.Flags().StringVar(&secretFile, "secret-file", "", "file holding the candidate master secret")

	return cmd
}
