package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newMenuCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Interactive mode: guided escrow workflow",
		Long:  "Launch an interactive menu to walk through escrow operations step by step.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var action string

			err := huh.NewSelect[string]().
				Title("What would you like to do?").
				Options(
					huh.NewOption("Seal an artifact", "seal"),
					huh.NewOption("Publish the commitment", "publish-commitment"),
					huh.NewOption("Initialize escrow with a counterparty", "init-escrow"),
					huh.NewOption("Disclose a secret", "disclose"),
					huh.NewOption("Verify the disclosure", "verify"),
					huh.NewOption("Reveal a sealed artifact", "reveal"),
					huh.NewOption("Show record status", "status"),
					huh.NewOption("Exit", "exit"),
				).
				Value(&action).
				Run()
			if err != nil {
				return err
			}
			if action == "exit" {
				fmt.Fprintln(cmd.OutOrStdout(), "Goodbye.")
				return nil
			}

			subArgs, err := promptArgs(action)
			if err != nil {
				return err
			}
			return runSubcommand(cmd, subArgs)
		},
	}
	return cmd
}

// promptArgs asks for the inputs of action and returns its command line.
func promptArgs(action string) ([]string, error) {
	var (
		subject      string
		artifact     string
		inFile       string
		outFile      string
		secretFile   string
		commitment   string
		counterparty string
		algo         = "sha256"
	)

	ref := []huh.Field{
		huh.NewInput().Title("Subject id").Placeholder("v1").Value(&subject),
		huh.NewInput().Title("Artifact name (the path used at seal time)").Placeholder("file.txt").Value(&artifact),
	}

	var fields []huh.Field
	switch action {
	case "seal":
		fields = []huh.Field{
			huh.NewInput().Title("Subject id").Placeholder("v1").Value(&subject),
			huh.NewInput().Title("File to seal").Placeholder("/path/to/file").Value(&inFile),
			huh.NewInput().Title("Container path (leave blank for default)").Placeholder("<input>.enc").Value(&outFile),
			huh.NewSelect[string]().
				Title("Commitment hash").
				Options(
					huh.NewOption("SHA-256 (default)", "sha256"),
					huh.NewOption("SHA3-256", "sha3-256"),
					huh.NewOption("BLAKE2b-256", "blake2b-256"),
					huh.NewOption("BLAKE3", "blake3"),
				).
				Value(&algo),
		}
	case "publish-commitment":
		fields = append(ref, huh.NewInput().Title("Publish commitment to").Placeholder("commitment.txt").Value(&outFile))
	case "init-escrow":
		fields = append(ref,
			huh.NewInput().Title("Published commitment file").Placeholder("commitment.txt").Value(&commitment),
			huh.NewInput().Title("Counterparty id").Value(&counterparty),
		)
	case "disclose":
		fields = append(ref, huh.NewInput().Title("Secret file").Placeholder("secret.hex").Value(&secretFile))
	case "reveal":
		fields = append(ref,
			huh.NewInput().Title("Secret file").Placeholder("secret.hex").Value(&secretFile),
			huh.NewInput().Title("Write plaintext to").Value(&outFile),
		)
	default:
		fields = ref
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return nil, err
	}

	args := []string{action, "--subject", subject}
	switch action {
	case "seal":
		args = append(args, "--in", inFile, "--commitment-algo", algo)
		if outFile != "" {
			args = append(args, "--out", outFile)
		}
	case "publish-commitment":
		args = append(args, "--artifact", artifact, "--out", outFile)
	case "init-escrow":
		args = append(args, "--artifact", artifact, "--commitment", commitment, "--counterparty", counterparty)
	case "disclose":
		args = append(args, "--artifact", artifact, "--secret-file", secretFile)
	case "reveal":
		args = append(args, "--artifact", artifact, "--secret-file", secretFile, "--out", outFile)
	case "verify":
		args = append(args, "--artifact", artifact)
	default:
		args = append(args, "--artifact", artifact, "--history")
	}
	return args, nil
}

// runSubcommand executes args on a fresh root command, carrying over the
// global flags of the current invocation.
func runSubcommand(cmd *cobra.Command, args []string) error {
	var global []string
	cmd.Flags().Visit(func(f *pflag.Flag) {
		global = append(global, "--"+f.Name+"="+f.Value.String())
	})

	root := NewRootCmd()
	root.SetArgs(append(args, global...))
	root.SetOut(cmd.OutOrStdout())
	return root.Execute()
}
