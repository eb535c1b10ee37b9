package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/twliu-dorian/zk-agreement-example/internal/audit"
	"github.com/twliu-dorian/zk-agreement-example/internal/escrow"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

func newVerifyCmd() *cobra.Command {
	var (
		subject  string
		artifact string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the disclosed secret against the commitment",
		Long: "Compare the pending disclosure with the published commitment and ask the contract engine to\n" +
			"validate it. Exits 0 on VERIFIED_SUCCESS and 10 on VERIFIED_FAILURE.",
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)

			if err := requireFlags("subject", subject, "artifact", artifact); err != nil {
				return err
			}

			s, err := openSession(printer)
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := s.Verify(cmd.Context(), escrow.VerifyRequest{SubjectID: subject, ArtifactName: artifact})
			auditLog(audit.Entry{Operation: audit.OpVerify, Subject: subject, Artifact: artifact}, rec, err)
			if rec != nil {
				title := "Verification succeeded:"
				if err != nil {
					title = "Verification failed:"
				}
				if perr := printer.Record(title, rec); perr != nil && err == nil {
					return perr
				}
			}
			if errors.Is(err, util.ErrCommitmentMismatch) {
				return fmt.Errorf("disclosed secret does not match the commitment: %w", err)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "subject id (required)")
	cmd.Flags().StringVar(&artifact, "artifact", "", "artifact name used at seal time (required)")

	return cmd
}
