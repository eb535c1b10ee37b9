package escrow

import (
	"fmt"
	"strings"

	"github.com/twliu-dorian/zk-agreement-example/internal/crypto"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

// SealRequest seals an artifact for a subject and opens its record.
type SealRequest struct {
	SubjectID      string
	ArtifactName   string // stable identifier, usually the artifact's path
	Plaintext      []byte
	ContainerPath  string // where the caller stores the container; informational
	CommitmentAlgo string // defaults to DefaultCommitmentAlgo
}

func (r *SealRequest) Validate() error {
	if err := validateRef(r.SubjectID, r.ArtifactName); err != nil {
		return err
	}
	if r.CommitmentAlgo == "" {
		r.CommitmentAlgo = DefaultCommitmentAlgo
	}
	if !crypto.SupportedHashAlgo(r.CommitmentAlgo) {
		return fmt.Errorf("%w: commitment algorithm %q; supported: %s",
			util.ErrUnsupportedAlgorithm, r.CommitmentAlgo, strings.Join(crypto.SupportedHashAlgos, ", "))
	}
	return nil
}

// PublishRequest publishes the commitment of a sealed record.
type PublishRequest struct {
	SubjectID    string
	ArtifactName string
}

func (r *PublishRequest) Validate() error {
	return validateRef(r.SubjectID, r.ArtifactName)
}

// InitRequest initializes the escrow contract against a published commitment.
type InitRequest struct {
	SubjectID    string
	ArtifactName string
	Commitment   Commitment
	Counterparty string
}

func (r *InitRequest) Validate() error {
	if err := validateRef(r.SubjectID, r.ArtifactName); err != nil {
		return err
	}
	if r.Commitment.IsZero() {
		return fmt.Errorf("%w: commitment is empty", util.ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Counterparty) == "" {
		return fmt.Errorf("%w: counterparty is empty", util.ErrInvalidRequest)
	}
	return nil
}

// DiscloseRequest submits a candidate secret for later verification.
type DiscloseRequest struct {
	SubjectID    string
	ArtifactName string
	Candidate    []byte
}

func (r *DiscloseRequest) Validate() error {
	if err := validateRef(r.SubjectID, r.ArtifactName); err != nil {
		return err
	}
	return validateCandidate(r.Candidate)
}

// VerifyRequest checks the pending disclosure against the commitment.
type VerifyRequest struct {
	SubjectID    string
	ArtifactName string
}

func (r *VerifyRequest) Validate() error {
	return validateRef(r.SubjectID, r.ArtifactName)
}

// RevealRequest opens a sealed container once the record is verified.
type RevealRequest struct {
	SubjectID    string
	ArtifactName string
	Candidate    []byte
	Container    []byte
}

func (r *RevealRequest) Validate() error {
	if err := validateRef(r.SubjectID, r.ArtifactName); err != nil {
		return err
	}
	return validateCandidate(r.Candidate)
}

func validateRef(subjectID, artifactName string) error {
	if strings.TrimSpace(subjectID) == "" {
		return fmt.Errorf("%w: subject id is empty", util.ErrInvalidRequest)
	}
	if artifactName == "" {
		return fmt.Errorf("%w: artifact name is empty", util.ErrInvalidRequest)
	}
	return nil
}

func validateCandidate(candidate []byte) error {
	if len(candidate) != crypto.SecretSize {
		return fmt.Errorf("%w: candidate is %d bytes, want %d", util.ErrInvalidKeyLength, len(candidate), crypto.SecretSize)
	}
	return nil
}
