package escrow

import (
	"crypto/subtle"
	"fmt"

	"github.com/twliu-dorian/zk-agreement-example/internal/crypto"
	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

// CommitmentSize is the byte length of a commitment digest.
const CommitmentSize = crypto.DigestSize

// DefaultCommitmentAlgo is used when a request does not name one.
const DefaultCommitmentAlgo = crypto.HashSHA256

// Commitment is a one-way digest of a master secret, published before the
// secret is disclosed. It encodes as lowercase hex.
type Commitment [CommitmentSize]byte

// Commit returns the SHA-256 commitment of secret.
func Commit(secret []byte) Commitment {
	c, _ := CommitWith(DefaultCommitmentAlgo, secret)
	return c
}

// CommitWith returns the commitment of secret under the named hash algorithm.
func CommitWith(algo string, secret []byte) (Commitment, error) {
	var c Commitment
	digest, err := crypto.HashBytes(algo, secret)
	if err != nil {
		return c, err
	}
	copy(c[:], digest)
	return c, nil
}

// ParseCommitment decodes a hex commitment in either letter case.
func ParseCommitment(s string) (Commitment, error) {
	var c Commitment
	raw, err := util.HexDecode(s)
	if err != nil {
		return c, fmt.Errorf("%w: commitment is not hex: %v", util.ErrInvalidRequest, err)
	}
	if len(raw) != CommitmentSize {
		return c, fmt.Errorf("%w: commitment is %d bytes, want %d", util.ErrInvalidRequest, len(raw), CommitmentSize)
	}
	copy(c[:], raw)
	return c, nil
}

// Equal compares two commitments in constant time.
func (c Commitment) Equal(other Commitment) bool {
	return subtle.ConstantTimeCompare(c[:], other[:]) == 1
}

// IsZero reports whether c is the zero value.
func (c Commitment) IsZero() bool {
	return c == Commitment{}
}

func (c Commitment) String() string {
	return util.HexEncode(c[:])
}

func (c Commitment) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Commitment) UnmarshalText(text []byte) error {
	parsed, err := ParseCommitment(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
