package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/twliu-dorian/zk-agreement-example/internal/audit"
	"github.com/twliu-dorian/zk-agreement-example/internal/escrow"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

func newSealCmd() *cobra.Command {
	var (
		subject  string
		inFile   string
		artifact string
		outFile  string
		algo     string
	)

	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Encrypt an artifact under a key derived from the subject's master secret",
		Long: "Seal reads --in, encrypts it with AES-256-GCM under a key derived from the subject's master\n" +
			"secret and the artifact name, and writes the container (nonce || tag || ciphertext) to --out.\n" +
			"The artifact name defaults to the --in path and must be repeated verbatim in later commands.\n" +
			"The master secret is created on first use.",
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)

			if err := requireFlags("subject", subject, "in", inFile); err != nil {
				return err
			}
			if artifact == "" {
				artifact = inFile
			}
			if outFile == "" {
				outFile = inFile + ".enc"
			}
			if algo == "" {
				algo = effectiveConfig().CommitmentAlgo
			}
			entry := audit.Entry{Operation: audit.OpSeal, Subject: subject, Artifact: artifact, InputFile: inFile, OutputFile: outFile}

			plaintext, err := readInput(inFile)
			if err != nil {
				auditLog(entry, nil, err)
				return err
			}

			s, err := openSession(printer)
			if err != nil {
				return err
			}
			defer s.Close()

			rec, container, err := s.Seal(cmd.Context(), escrow.SealRequest{
				SubjectID:      subject,
				ArtifactName:   artifact,
				Plaintext:      plaintext,
				ContainerPath:  outFile,
				CommitmentAlgo: algo,
			})
			var digest string
			if err == nil {
				if werr := util.WriteFileAtomic(outFile, container, 0o600); werr != nil {
					// The SEALED record is already saved; sealing again rewrites both.
					err = fmt.Errorf("record for %s is SEALED but its container was not written; run seal again: %w", artifact, werr)
				} else if digest, err = fileDigest(outFile); err == nil {
					entry.Extra = map[string]string{"container_sha256": digest}
				}
			}
			auditLog(entry, rec, err)
			if err != nil {
				return err
			}

			if printer.Mode == OutputJSON {
				return printer.Record("", rec)
			}
			printer.Human("Sealed %s -> %s", inFile, outFile)
			printer.Human("Container SHA-256: %s", digest)
			return printer.Record("Record:", rec)
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "subject that owns the master secret (required)")
	cmd.Flags().StringVar(&inFile, "in", "", "artifact to seal (required)")
	cmd.Flags().StringVar(&artifact, "artifact", "", "artifact name (default: --in path)")
	cmd.Flags().StringVar(&outFile, "out", "", "container output path (default: <in>.enc)")
	cmd.Flags().StringVar(&algo, "commitment-algo", "", "commitment hash: sha256, sha3-256, blake2b-256, blake3 (default from config)")

	return cmd
}
