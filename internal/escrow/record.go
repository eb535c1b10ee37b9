package escrow

import (
	"crypto/sha256"
	"time"

	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

// Status is the lifecycle state of an escrow record.
type Status string

const (
	StatusSealed          Status = "SEALED"
	StatusCommitted       Status = "COMMITTED"
	StatusDisclosed       Status = "DISCLOSED"
	StatusVerifiedSuccess Status = "VERIFIED_SUCCESS"
	StatusVerifiedFailure Status = "VERIFIED_FAILURE"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusVerifiedSuccess
}

// Contract states produced by CommitmentEngine.
const (
	ContractInit               = "INIT"
	ContractAwaitingEvaluation = "AWAITING_EVALUATION"
	ContractVerified           = "VERIFIED"
	ContractRejected           = "REJECTED"
)

// ContractState is the engine-owned state of an escrow contract.
type ContractState struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Contract binds a record to a counterparty once escrow is initialized.
type Contract struct {
	ContractID   string        `json:"contract_id"`
	Depositor    string        `json:"depositor"`
	Counterparty string        `json:"counterparty"`
	State        ContractState `json:"state"`
}

// Transition is one entry in a record's history.
type Transition struct {
	Status  Status    `json:"status"`
	At      time.Time `json:"at"`
	Message string    `json:"message,omitempty"`
}

// Record is the persisted protocol state for one subject/artifact pair.
// It never holds a plaintext secret: disclosures are kept as their hash.
type Record struct {
	SubjectID      string       `json:"subject_id"`
	ArtifactID     string       `json:"artifact_id"`
	ArtifactName   string       `json:"artifact_name"`
	ContainerPath  string       `json:"container_path,omitempty"`
	Commitment     Commitment   `json:"commitment"`
	CommitmentAlgo string       `json:"commitment_algo"`
	DisclosedHash  *Commitment  `json:"disclosed_hash,omitempty"`
	Status         Status       `json:"status"`
	Attempts       int          `json:"attempts"`
	Contract       *Contract    `json:"contract,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	History        []Transition `json:"history"`
}

// RecordKey identifies the record for subjectID and artifactID.
func RecordKey(subjectID, artifactID string) string {
	h := sha256.New()
	h.Write([]byte(subjectID))
	h.Write([]byte{0})
	h.Write([]byte(artifactID))
	return util.HexEncode(h.Sum(nil))
}

// Key returns the record's storage key.
func (r *Record) Key() string {
	return RecordKey(r.SubjectID, r.ArtifactID)
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.DisclosedHash != nil {
		h := *r.DisclosedHash
		out.DisclosedHash = &h
	}
	if r.Contract != nil {
		c := *r.Contract
		out.Contract = &c
	}
	out.History = append([]Transition(nil), r.History...)
	return &out
}

func (r *Record) transition(to Status, at time.Time, msg string) {
	r.Status = to
	r.UpdatedAt = at
	r.History = append(r.History, Transition{Status: to, At: at, Message: msg})
}
