// Package escrow implements a commit-reveal key escrow.
//
// An artifact is sealed under a key derived from its subject's master
// secret, and the SHA-256 (or other configured) commitment of that secret is
// published. Later a counterparty discloses a candidate secret; only when the
// candidate hashes to the commitment, and the contract engine agrees, does
// the record reach VERIFIED_SUCCESS, which is the sole state in which the
// protocol will open the sealed container.
//
//	SEALED -> COMMITTED -> DISCLOSED -> VERIFIED_SUCCESS
//	                          ^   |
//	                          |   v
//	                    VERIFIED_FAILURE
package escrow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/twliu-dorian/zk-agreement-example/internal/crypto"
	"github.com/twliu-dorian/zk-agreement-example/internal/keystore"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

// DefaultMaxAttempts caps disclosures per record unless configured otherwise.
const DefaultMaxAttempts = 5

// Options configures a Protocol.
type Options struct {
	Keys        keystore.Store
	Records     RecordStore
	Engine      Engine   // defaults to CommitmentEngine
	Notifier    Notifier // defaults to NopNotifier
	MaxAttempts int      // disclosures per record; 0 means unlimited
	Logger      zerolog.Logger
	Now         func() time.Time
}

// Protocol drives escrow records through their lifecycle. It is safe for
// concurrent use; transitions on the same record are serialized.
type Protocol struct {
	keys        keystore.Store
	records     RecordStore
	engine      Engine
	notifier    Notifier
	maxAttempts int
	log         zerolog.Logger
	now         func() time.Time

	locks sync.Map // record key -> *sync.Mutex
}

// New returns a Protocol. Keys and Records are required.
func New(opts Options) (*Protocol, error) {
	if opts.Keys == nil {
		return nil, fmt.Errorf("%w: key store is required", util.ErrInvalidRequest)
	}
	if opts.Records == nil {
		return nil, fmt.Errorf("%w: record store is required", util.ErrInvalidRequest)
	}
	if opts.MaxAttempts < 0 {
		return nil, fmt.Errorf("%w: max attempts must not be negative", util.ErrInvalidRequest)
	}
	p := &Protocol{
		keys:        opts.Keys,
		records:     opts.Records,
		engine:      opts.Engine,
		notifier:    opts.Notifier,
		maxAttempts: opts.MaxAttempts,
		log:         opts.Logger,
		now:         opts.Now,
	}
	if p.engine == nil {
		p.engine = CommitmentEngine{}
	}
	if p.notifier == nil {
		p.notifier = NopNotifier{}
	}
	if p.now == nil {
		p.now = func() time.Time { return time.Now().UTC() }
	}
	return p, nil
}

// Seal encrypts the artifact under its derived key and records it as SEALED.
// The caller stores the returned container. Re-sealing is allowed until the
// commitment has been published.
func (p *Protocol) Seal(ctx context.Context, req SealRequest) (*Record, []byte, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	secret, err := p.keys.GetOrCreate(ctx, req.SubjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("master secret: %w", err)
	}
	artifactID := ArtifactID(req.ArtifactName)

	container, err := crypto.Seal(req.Plaintext, DeriveArtifactKey(secret, req.SubjectID, artifactID))
	if err != nil {
		return nil, nil, fmt.Errorf("seal artifact: %w", err)
	}
	commitment, err := CommitWith(req.CommitmentAlgo, secret)
	if err != nil {
		return nil, nil, err
	}

	unlock := p.lock(RecordKey(req.SubjectID, artifactID))
	defer unlock()

	existing, err := p.records.Load(ctx, req.SubjectID, artifactID)
	switch {
	case err == nil && existing.Status != StatusSealed:
		return nil, nil, fmt.Errorf("%w: artifact is already escrowed (state %s)", util.ErrInvalidTransition, existing.Status)
	case err != nil && !errors.Is(err, util.ErrRecordNotFound):
		return nil, nil, err
	}

	now := p.now()
	rec := &Record{
		SubjectID:      req.SubjectID,
		ArtifactID:     artifactID,
		ArtifactName:   req.ArtifactName,
		ContainerPath:  req.ContainerPath,
		Commitment:     commitment,
		CommitmentAlgo: req.CommitmentAlgo,
		CreatedAt:      now,
	}
	if existing != nil {
		rec.CreatedAt = existing.CreatedAt
		rec.History = existing.History
	}
	rec.transition(StatusSealed, now, "artifact sealed")

	if err := p.records.Save(ctx, rec); err != nil {
		return nil, nil, err
	}
	p.log.Debug().Str("subject", rec.SubjectID).Str("artifact", rec.ArtifactID).Msg("sealed")
	return rec.Clone(), container, nil
}

// PublishCommitment hands the record's commitment to pub and, once pub
// acknowledges it, moves the record to COMMITTED. Publishing again from
// COMMITTED is allowed and leaves the state unchanged.
func (p *Protocol) PublishCommitment(ctx context.Context, req PublishRequest, pub Publisher) (*Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if pub == nil {
		return nil, fmt.Errorf("%w: publisher is required", util.ErrInvalidRequest)
	}

	current, err := p.Status(ctx, req.SubjectID, req.ArtifactName)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusSealed && current.Status != StatusCommitted {
		return nil, fmt.Errorf("%w: cannot publish in state %s", util.ErrInvalidTransition, current.Status)
	}

	// Publication is I/O against an external medium; the record lock is not held.
	if err := pub.Publish(ctx, current.Commitment); err != nil {
		return nil, fmt.Errorf("publish commitment: %w", err)
	}

	rec, err := p.update(ctx, req.SubjectID, current.ArtifactID, func(r *Record) error {
		switch r.Status {
		case StatusSealed:
			r.transition(StatusCommitted, p.now(), "commitment published")
		case StatusCommitted:
			r.UpdatedAt = p.now()
		default:
			return fmt.Errorf("%w: cannot publish in state %s", util.ErrInvalidTransition, r.Status)
		}
		if !r.Commitment.Equal(current.Commitment) {
			return fmt.Errorf("%w: record was resealed during publication", util.ErrInvalidTransition)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.notify(ctx, PathCommitments, CommitmentPublished{
		SubjectID:      rec.SubjectID,
		ArtifactID:     rec.ArtifactID,
		Commitment:     rec.Commitment,
		CommitmentAlgo: rec.CommitmentAlgo,
	})
	return rec, nil
}

// InitEscrow opens the escrow contract for a COMMITTED record. The supplied
// commitment, as read back from wherever it was published, must equal the
// record's.
func (p *Protocol) InitEscrow(ctx context.Context, req InitRequest) (*Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return p.update(ctx, req.SubjectID, ArtifactID(req.ArtifactName), func(r *Record) error {
		if r.Status != StatusCommitted {
			return fmt.Errorf("%w: escrow needs a published commitment (state %s)", util.ErrInvalidTransition, r.Status)
		}
		if r.Contract != nil {
			return fmt.Errorf("%w: escrow already initialized (contract %s)", util.ErrInvalidTransition, r.Contract.ContractID)
		}
		if !req.Commitment.Equal(r.Commitment) {
			return fmt.Errorf("%w: published commitment differs from the sealed one", util.ErrCommitmentMismatch)
		}
		r.Contract = &Contract{
			ContractID:   uuid.NewString(),
			Depositor:    r.SubjectID,
			Counterparty: req.Counterparty,
			State:        ContractState{Status: ContractInit, Message: "Contract initialized"},
		}
		r.transition(StatusCommitted, p.now(), "escrow contract "+r.Contract.ContractID+" initialized")
		return nil
	})
}

// Disclose records the hash of a candidate secret and moves the record to
// DISCLOSED. The candidate itself is not stored.
func (p *Protocol) Disclose(ctx context.Context, req DiscloseRequest) (*Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := p.Status(ctx, req.SubjectID, req.ArtifactName)
	if err != nil {
		return nil, err
	}
	if err := p.canDisclose(current); err != nil {
		return nil, err
	}
	hash, err := CommitWith(current.CommitmentAlgo, req.Candidate)
	if err != nil {
		return nil, err
	}

	// The engine is an external collaborator; the record lock is not held.
	resp, state, err := p.engine.Trigger(ctx, contractData(current), current.Contract.State, EngineRequest{
		Kind:             RequestKeySubmission,
		SubmittedKeyHash: hash.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("contract engine: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("%w: %s", util.ErrEngineRejected, resp.Message)
	}

	return p.update(ctx, req.SubjectID, current.ArtifactID, func(r *Record) error {
		if err := p.canDisclose(r); err != nil {
			return err
		}
		if changed(r, current) {
			return fmt.Errorf("%w: record changed during disclosure", util.ErrInvalidTransition)
		}
		r.Contract.State = state
		r.Attempts++
		r.DisclosedHash = &hash
		r.transition(StatusDisclosed, p.now(), resp.Message)
		return nil
	})
}

func (p *Protocol) canDisclose(r *Record) error {
	switch r.Status {
	case StatusCommitted, StatusVerifiedFailure:
	default:
		return fmt.Errorf("%w: cannot disclose in state %s", util.ErrInvalidTransition, r.Status)
	}
	if r.Contract == nil {
		return fmt.Errorf("%w: escrow contract is not initialized", util.ErrInvalidTransition)
	}
	if p.maxAttempts > 0 && r.Attempts >= p.maxAttempts {
		return fmt.Errorf("%w: %d of %d used", util.ErrRetryLimit, r.Attempts, p.maxAttempts)
	}
	return nil
}

// Verify compares the pending disclosure with the commitment and asks the
// engine to validate it. The updated record is returned together with
// util.ErrCommitmentMismatch or util.ErrEngineRejected when the outcome is
// VERIFIED_FAILURE.
func (p *Protocol) Verify(ctx context.Context, req VerifyRequest) (*Record, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	current, err := p.Status(ctx, req.SubjectID, req.ArtifactName)
	if err != nil {
		return nil, err
	}
	if err := canVerify(current); err != nil {
		return nil, err
	}

	matched := current.DisclosedHash.Equal(current.Commitment)
	resp, state, err := p.engine.Trigger(ctx, contractData(current), current.Contract.State, EngineRequest{
		Kind:             RequestValidation,
		SubmittedKeyHash: current.DisclosedHash.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("contract engine: %w", err)
	}

	var outcome error
	rec, err := p.update(ctx, req.SubjectID, current.ArtifactID, func(r *Record) error {
		if err := canVerify(r); err != nil {
			return err
		}
		if changed(r, current) || !r.DisclosedHash.Equal(*current.DisclosedHash) {
			return fmt.Errorf("%w: record changed during verification", util.ErrInvalidTransition)
		}
		r.Contract.State = state

		switch {
		case matched && resp.Success:
			r.transition(StatusVerifiedSuccess, p.now(), resp.Message)
		case !matched:
			r.transition(StatusVerifiedFailure, p.now(), "disclosed secret does not match commitment")
			outcome = util.ErrCommitmentMismatch
		default:
			r.transition(StatusVerifiedFailure, p.now(), resp.Message)
			outcome = fmt.Errorf("%w: %s", util.ErrEngineRejected, resp.Message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		p.log.Debug().Str("subject", rec.SubjectID).Str("artifact", rec.ArtifactID).Err(outcome).Msg("verification failed")
		return rec, outcome
	}

	p.notify(ctx, PathVerifications, VerificationSucceeded{
		SubjectID:  rec.SubjectID,
		ArtifactID: rec.ArtifactID,
		ContractID: rec.Contract.ContractID,
	})
	return rec, nil
}

func canVerify(r *Record) error {
	if r.Status != StatusDisclosed || r.DisclosedHash == nil || r.Contract == nil {
		return fmt.Errorf("%w: nothing disclosed to verify (state %s)", util.ErrInvalidTransition, r.Status)
	}
	return nil
}

// changed reports whether r moved on since snapshot was taken.
func changed(r, snapshot *Record) bool {
	return r.Status != snapshot.Status ||
		r.Attempts != snapshot.Attempts ||
		!r.Commitment.Equal(snapshot.Commitment) ||
		r.Contract.ContractID != snapshot.Contract.ContractID
}

// Reveal opens req.Container with the key derived from the candidate secret.
// It fails with util.ErrNotAuthorized unless the record is VERIFIED_SUCCESS,
// whatever key the caller holds.
func (p *Protocol) Reveal(ctx context.Context, req RevealRequest) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rec, err := p.Status(ctx, req.SubjectID, req.ArtifactName)
	if err != nil {
		return nil, err
	}
	if rec.Status != StatusVerifiedSuccess {
		return nil, fmt.Errorf("%w: record is %s", util.ErrNotAuthorized, rec.Status)
	}

	candidate, err := CommitWith(rec.CommitmentAlgo, req.Candidate)
	if err != nil {
		return nil, err
	}
	if !candidate.Equal(rec.Commitment) {
		return nil, util.ErrCommitmentMismatch
	}
	return crypto.Open(req.Container, DeriveArtifactKey(req.Candidate, rec.SubjectID, rec.ArtifactID))
}

// Status returns the current record for a subject and artifact name.
func (p *Protocol) Status(ctx context.Context, subjectID, artifactName string) (*Record, error) {
	if err := validateRef(subjectID, artifactName); err != nil {
		return nil, err
	}
	artifactID := ArtifactID(artifactName)

	unlock := p.lock(RecordKey(subjectID, artifactID))
	defer unlock()
	return p.load(ctx, subjectID, artifactID)
}

// List returns all records, ordered by subject and artifact name.
func (p *Protocol) List(ctx context.Context) ([]*Record, error) {
	return p.records.List(ctx)
}

// update applies fn to the record under its lock and saves it when fn succeeds.
func (p *Protocol) update(ctx context.Context, subjectID, artifactID string, fn func(*Record) error) (*Record, error) {
	unlock := p.lock(RecordKey(subjectID, artifactID))
	defer unlock()

	rec, err := p.load(ctx, subjectID, artifactID)
	if err != nil {
		return nil, err
	}
	from := rec.Status
	if err := fn(rec); err != nil {
		return nil, err
	}
	if err := p.records.Save(ctx, rec); err != nil {
		return nil, err
	}
	p.log.Debug().
		Str("subject", rec.SubjectID).
		Str("artifact", rec.ArtifactID).
		Str("from", string(from)).
		Str("to", string(rec.Status)).
		Msg("transition")
	return rec.Clone(), nil
}

func (p *Protocol) load(ctx context.Context, subjectID, artifactID string) (*Record, error) {
	rec, err := p.records.Load(ctx, subjectID, artifactID)
	if errors.Is(err, util.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: subject %q artifact %s", util.ErrRecordNotFound, subjectID, artifactID)
	}
	return rec, err
}

func (p *Protocol) lock(key string) func() {
	m, _ := p.locks.LoadOrStore(key, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// notify sends an event and only logs failures; a notification never fails
// the transition that triggered it.
func (p *Protocol) notify(ctx context.Context, path string, payload any) {
	if _, err := p.notifier.Notify(ctx, path, http.MethodPost, payload); err != nil {
		p.log.Warn().Err(err).Str("path", path).Msg("notification failed")
	}
}

func contractData(r *Record) ContractData {
	cd := ContractData{
		SubjectID:  r.SubjectID,
		ArtifactID: r.ArtifactID,
		Commitment: r.Commitment,
	}
	if r.Contract != nil {
		cd.ContractID = r.Contract.ContractID
		cd.Counterparty = r.Contract.Counterparty
	}
	return cd
}
