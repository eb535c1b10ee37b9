package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/twliu-dorian/zk-agreement-example/internal/escrow"
)

// OutputMode controls how results are printed.
type OutputMode int

const (
	OutputHuman OutputMode = iota
	OutputJSON
	OutputQuiet
)

// Printer handles structured output for every command.
type Printer struct {
	Mode   OutputMode
	Writer io.Writer
	Logger zerolog.Logger
}

// NewPrinter creates a Printer from the global flags.
func NewPrinter(jsonFlag, quietFlag bool) *Printer {
	mode := OutputHuman
	if jsonFlag {
		mode = OutputJSON
	} else if quietFlag {
		mode = OutputQuiet
	}
	return &Printer{
		Mode:   mode,
		Writer: os.Stdout,
		Logger: zerolog.New(os.Stderr).With().Timestamp().Logger(),
	}
}

// newPrinter returns a Printer that writes to the command's output stream.
func newPrinter(cmd *cobra.Command) *Printer {
	p := NewPrinter(flagJSON, flagQuiet)
	p.Writer = cmd.OutOrStdout()
	return p
}

// JSON writes v as indented JSON to the writer.
func (p *Printer) JSON(v any) error {
	enc := json.NewEncoder(p.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Human writes a formatted human-readable line.
func (p *Printer) Human(format string, args ...any) {
	if p.Mode == OutputQuiet {
		return
	}
	fmt.Fprintf(p.Writer, format+"\n", args...)
}

// Error logs an error via zerolog.
func (p *Printer) Error(err error, msg string) {
	p.Logger.Error().Err(err).Msg(msg)
}

// Record prints an escrow record: the record itself in JSON mode, a summary
// prefixed by title otherwise.
func (p *Printer) Record(title string, rec *escrow.Record) error {
	if p.Mode == OutputJSON {
		return p.JSON(rec)
	}
	p.Human("%s", title)
	p.Human("  Subject:     %s", rec.SubjectID)
	p.Human("  Artifact:    %s", rec.ArtifactName)
	p.Human("  Artifact ID: %s", rec.ArtifactID)
	p.Human("  Commitment:  %s (%s)", rec.Commitment, rec.CommitmentAlgo)
	p.Human("  Status:      %s", rec.Status)
	if rec.Contract != nil {
		p.Human("  Contract:    %s (%s, counterparty %s)", rec.Contract.ContractID, rec.Contract.State.Status, rec.Contract.Counterparty)
	}
	if rec.Attempts > 0 {
		p.Human("  Attempts:    %d", rec.Attempts)
	}
	return nil
}
