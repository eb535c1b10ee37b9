package cli

import (
	"github.com/spf13/cobra"
	"github.com/twliu-dorian/zk-agreement-example/internal/audit"
	"github.com/twliu-dorian/zk-agreement-example/internal/crypto"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

func newShowSecretCmd() *cobra.Command {
	var (
		subject string
		outFile string
	)

	cmd := &cobra.Command{
		Use:   "show-secret",
		Short: "Print the escrowed master secret of a subject",
		Long: "Print the subject's master secret as hex, or write it to --out as a secret file usable with\n" +
			"--secret-file. This is the value a depositor discloses; handle it accordingly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)

			if err := requireFlags("subject", subject); err != nil {
				return err
			}

			keys, err := openKeystore(printer)
			if err != nil {
				return err
			}
			defer keys.Close()

			secret, err := keys.Lookup(cmd.Context(), subject)
			if err == nil && outFile != "" {
				err = crypto.SaveSecretFile(outFile, secret)
			}
			auditLog(audit.Entry{Operation: audit.OpShowSecret, Subject: subject, OutputFile: outFile}, nil, err)
			if err != nil {
				return err
			}

			switch {
			case outFile != "" && printer.Mode == OutputJSON:
				return printer.JSON(map[string]string{"subject_id": subject, "secret_file": outFile})
			case outFile != "":
				printer.Human("Secret for %s written to %s", subject, outFile)
				return nil
			case printer.Mode == OutputJSON:
				return printer.JSON(map[string]string{"subject_id": subject, "secret": util.HexEncode(secret)})
			default:
				// Quiet mode still prints the secret; it is the command's result.
				_, err := printer.Writer.Write([]byte(util.HexEncode(secret) + "\n"))
				return err
			}
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "subject id (required)")
	cmd.Flags().StringVar(&outFile, "out", "", "write the secret to this file (mode 0600) instead of stdout")

	return cmd
}
