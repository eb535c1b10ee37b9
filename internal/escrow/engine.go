package escrow

import (
	"context"
	"fmt"
)

// EngineRequestKind names the request types an Engine understands.
type EngineRequestKind string

const (
	RequestKeySubmission EngineRequestKind = "KeySubmission"
	RequestValidation    EngineRequestKind = "Validation"
)

// ContractData is the data record an Engine evaluates requests against.
type ContractData struct {
	ContractID   string
	SubjectID    string
	ArtifactID   string
	Counterparty string
	Commitment   Commitment
}

// EngineRequest is one request to the contract engine. SubmittedKeyHash is
// the hex commitment of the disclosed candidate, never the candidate itself.
type EngineRequest struct {
	Kind             EngineRequestKind
	SubmittedKeyHash string
}

// EngineResponse is the engine's verdict on a request.
type EngineResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Engine is a contract state-transition oracle.
type Engine interface {
	Trigger(ctx context.Context, data ContractData, state ContractState, req EngineRequest) (EngineResponse, ContractState, error)
}

// CommitmentEngine is the built-in contract: a key submission moves the
// contract to AWAITING_EVALUATION and a validation accepts only a submitted
// hash equal to the contract's commitment.
type CommitmentEngine struct{}

func (CommitmentEngine) Trigger(ctx context.Context, data ContractData, state ContractState, req EngineRequest) (EngineResponse, ContractState, error) {
	if err := ctx.Err(); err != nil {
		return EngineResponse{}, state, err
	}

	switch req.Kind {
	case RequestKeySubmission:
		switch state.Status {
		case ContractInit, ContractRejected:
		default:
			return EngineResponse{Success: false, Message: fmt.Sprintf("cannot submit a key in state %s", state.Status)}, state, nil
		}
		return EngineResponse{Success: true, Message: "Key submitted, awaiting validation"},
			ContractState{Status: ContractAwaitingEvaluation, Message: "Key submitted, awaiting validation"}, nil

	case RequestValidation:
		if state.Status != ContractAwaitingEvaluation {
			return EngineResponse{Success: false, Message: fmt.Sprintf("nothing to validate in state %s", state.Status)}, state, nil
		}
		submitted, err := ParseCommitment(req.SubmittedKeyHash)
		if err != nil || !submitted.Equal(data.Commitment) {
			return EngineResponse{Success: false, Message: "Submitted key does not match commitment"},
				ContractState{Status: ContractRejected, Message: "Submitted key does not match commitment"}, nil
		}
		return EngineResponse{Success: true, Message: "Submitted key matches commitment"},
			ContractState{Status: ContractVerified, Message: "Submitted key matches commitment"}, nil

	default:
		return EngineResponse{}, state, fmt.Errorf("unknown engine request %q", req.Kind)
	}
}
