package cli

import (
	"github.com/spf13/cobra"
	"github.com/twliu-dorian/zk-agreement-example/internal/audit"
	"github.com/twliu-dorian/zk-agreement-example/internal/escrow"
)

func newPublishCommitmentCmd() *cobra.Command {
	var (
		subject  string
		artifact string
		outFile  string
	)

	cmd := &cobra.Command{
		Use:   "publish-commitment",
		Short: "Publish the commitment to the subject's master secret",
		Long: "Write the hex commitment of the sealed record to --out and move the record to COMMITTED.\n" +
			"When a notification URL is configured, a commitment event is posted to <url>/commitments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)

			if err := requireFlags("subject", subject, "artifact", artifact, "out", outFile); err != nil {
				return err
			}

			s, err := openSession(printer)
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := s.PublishCommitment(cmd.Context(),
				escrow.PublishRequest{SubjectID: subject, ArtifactName: artifact},
				escrow.FilePublisher{Path: outFile})
			auditLog(audit.Entry{Operation: audit.OpPublishCommitment, Subject: subject, Artifact: artifact, OutputFile: outFile}, rec, err)
			if err != nil {
				return err
			}

			if printer.Mode == OutputJSON {
				return printer.Record("", rec)
			}
			printer.Human("Commitment written to %s", outFile)
			return printer.Record("Record:", rec)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "subject id (required)")
	cmd.Flags().StringVar(&artifact, "artifact", "", "artifact name used at seal time (required)")
	cmd.Flags().StringVar(&outFile, "out", "", "file to publish the commitment to (required)")

	return cmd
}
