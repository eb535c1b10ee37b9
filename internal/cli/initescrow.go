package cli

import (
	"github.com/spf13/cobra"
	"github.com/twliu-dorian/zk-agreement-example/internal/audit"
	"github.com/twliu-dorian/zk-agreement-example/internal/escrow"
)

func newInitEscrowCmd() *cobra.Command {
	var (
		subject        string
		artifact       string
		commitmentFile string
		counterparty   string
	)

	cmd := &cobra.Command{
		Use:   "init-escrow",
		Short: "Open the escrow contract against a published commitment",
		Long: "Read the commitment from --commitment (as published), check that it matches the sealed record,\n" +
			"and initialize the escrow contract with the counterparty.",
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)

			if err := requireFlags("subject", subject, "artifact", artifact, "commitment", commitmentFile, "counterparty", counterparty); err != nil {
				return err
			}
			entry := audit.Entry{Operation: audit.OpInitEscrow, Subject: subject, Artifact: artifact, InputFile: commitmentFile}

			raw, err := readInput(commitmentFile)
			if err != nil {
				auditLog(entry, nil, err)
				return err
			}
			commitment, err := escrow.ParseCommitment(string(raw))
			if err != nil {
				auditLog(entry, nil, err)
				return err
			}

			s, err := openSession(printer)
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := s.InitEscrow(cmd.Context(), escrow.InitRequest{
				SubjectID:    subject,
				ArtifactName: artifact,
				Commitment:   commitment,
				Counterparty: counterparty,
			})
			auditLog(entry, rec, err)
			if err != nil {
				return err
			}
			return printer.Record("Escrow initialized:", rec)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "subject id (required)")
	cmd.Flags().StringVar(&artifact, "artifact", "", "artifact name used at seal time (required)")
	cmd.Flags().StringVar(&commitmentFile, "commitment", "", "file holding the published commitment (required)")
	cmd.Flags().StringVar(&counterparty, "counterparty", "", "counterparty id (required)")

	return cmd
}
