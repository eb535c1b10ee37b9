package cli

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/twliu-dorian/zk-agreement-example/internal/escrow"
)

func newStatusCmd() *cobra.Command {
	var (
		subject  string
		artifact string
		history  bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show escrow records",
		Long: "With --subject and --artifact, show one record (and its history with --history).\n" +
			"Otherwise list all records, optionally only those of --subject.",
		RunE: func(cmd *cobra.Command, args []string) error {
			printer := newPrinter(cmd)

			s, err := openSession(printer)
			if err != nil {
				return err
			}
			defer s.Close()

			if artifact != "" {
				if err := requireFlags("subject", subject); err != nil {
					return err
				}
				rec, err := s.Status(cmd.Context(), subject, artifact)
				if err != nil {
					return err
				}
				if err := printer.Record("Record:", rec); err != nil {
					return err
				}
				if rec.ContainerPath != "" && printer.Mode == OutputHuman {
					digest, derr := fileDigest(rec.ContainerPath)
					if derr != nil {
						digest = "missing"
					}
					printer.Human("  Container:   %s (sha256 %s)", rec.ContainerPath, digest)
				}
				if history && printer.Mode == OutputHuman {
					printer.Human("  History:")
					for _, t := range rec.History {
						printer.Human("    %s  %-16s %s", t.At.Format(time.RFC3339), t.Status, t.Message)
					}
				}
				return nil
			}

			all, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			records := make([]*escrow.Record, 0, len(all))
			for _, r := range all {
				if subject == "" || r.SubjectID == subject {
					records = append(records, r)
				}
			}

			if printer.Mode == OutputJSON {
				return printer.JSON(records)
			}
			if len(records) == 0 {
				printer.Human("No escrow records.")
				return nil
			}
			for _, r := range records {
				printer.Human("%-16s %-18s %s", r.SubjectID, r.Status, r.ArtifactName)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "subject id")
	cmd.Flags().StringVar(&artifact, "artifact", "", "artifact name used at seal time")
	cmd.Flags().BoolVar(&history, "history", false, "include the transition history")

	return cmd
}
