package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/twliu-dorian/zk-agreement-example/internal/audit"
	"github.com/twliu-dorian/zk-agreement-example/internal/escrow"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

func newRevealCmd() *cobra.Command {
	var (
		subject    string
		artifact   string
		secretHex  string
		secretFile string
		inFile     string
		outFile    string
	)

	cmd := &cobra.Command{
		Use:   "reveal",
		Short: "Decrypt a sealed artifact after successful verification",
		Long: "Open the sealed container with the key derived from the verified secret and write the\n" +
			"plaintext to --out. Fails with exit code 12 unless the record is VERIFIED_SUCCESS.\n" +
			"The container defaults to the path recorded at seal time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)

			if err := requireFlags("subject", subject, "artifact", artifact, "out", outFile); err != nil {
				return err
			}
			entry := audit.Entry{Operation: audit.OpReveal, Subject: subject, Artifact: artifact, OutputFile: outFile}

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

			rec, err := s.Status(cmd.Context(), subject, artifact)
			if err != nil {
				auditLog(entry, nil, err)
				return err
			}
			if inFile == "" {
				inFile = rec.ContainerPath
			}
			entry.InputFile = inFile
			if inFile == "" {
				err := fmt.Errorf("%w: --in is required (no container path recorded)", util.ErrInvalidRequest)
				auditLog(entry, rec, err)
				return err
			}

			container, err := readInput(inFile)
			if err != nil {
				auditLog(entry, rec, err)
				return err
			}
			plaintext, err := s.Reveal(cmd.Context(), escrow.RevealRequest{
				SubjectID:    subject,
				ArtifactName: artifact,
				Candidate:    candidate,
				Container:    container,
			})
			if err == nil {
				if werr := util.WriteFileAtomic(outFile, plaintext, 0o600); werr != nil {
					err = fmt.Errorf("write plaintext: %w", werr)
				}
			}
			auditLog(entry, rec, err)
			if err != nil {
				return err
			}

			if printer.Mode == OutputJSON {
				return printer.JSON(map[string]any{
					"subject_id":  rec.SubjectID,
					"artifact_id": rec.ArtifactID,
					"container":   inFile,
					"output":      outFile,
					"size":        len(plaintext),
				})
			}
			printer.Human("Revealed %s -> %s (%d bytes)", inFile, outFile, len(plaintext))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "subject id (required)")
	cmd.Flags().StringVar(&artifact, "artifact", "", "artifact name used at seal time (required)")
	cmd.Flags().StringVar(&secretHex, "secret", "", "verified master secret (hex)")
	cmd.Flags().StringVar(&secretFile, "secret-file", "", "file holding the verified master secret")
	cmd.Flags().StringVar(&inFile, "in", "", "sealed container (default: path recorded at seal time)")
	cmd.Flags().StringVar(&outFile, "out", "", "plaintext output path (required)")

	return cmd
}
