package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

func TestHashReader_SHA256_KnownVector(t *testing.T) {
	// SHA-256 of "" (empty string) is well-known.
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	digest, err := HashReader(strings.NewReader(""), HashSHA256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := hex.EncodeToString(digest); got != want {
		t.Errorf("SHA-256('') = %s, want %s", got, want)
	}
}

func TestHashBytes_Concatenation(t *testing.T) {
	h := sha256.Sum256([]byte("hello world"))

	digest, err := HashBytes(HashSHA256, []byte("hello"), []byte(" "), []byte("world"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(digest, h[:]) {
		t.Errorf("digest mismatch")
	}
}

func TestHashBytes_AllAlgosAre32Bytes(t *testing.T) {
	for _, algo := range SupportedHashAlgos {
		t.Run(algo, func(t *testing.T) {
			digest, err := HashBytes(algo, []byte("data"))
			if err != nil {
				t.Fatalf("hash: %v", err)
			}
			if len(digest) != DigestSize {
				t.Errorf("digest size = %d, want %d", len(digest), DigestSize)
			}
		})
	}
}

func TestHashBytes_AlgosDiffer(t *testing.T) {
	seen := map[string]string{}
	for _, algo := range SupportedHashAlgos {
		d, err := HashBytes(algo, []byte("data"))
		if err != nil {
			t.Fatal(err)
		}
		if other, ok := seen[string(d)]; ok {
			t.Errorf("%s and %s produced the same digest", algo, other)
		}
		seen[string(d)] = algo
	}
}

func TestHashReader_UnsupportedAlgo(t *testing.T) {
	_, err := HashReader(strings.NewReader("data"), "md5")
	if !errors.Is(err, util.ErrUnsupportedAlgorithm) {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}
}

func TestSupportedHashAlgo(t *testing.T) {
	tests := []struct {
		algo string
		want bool
	}{
		{"sha256", true},
		{"sha3-256", true},
		{"blake2b-256", true},
		{"blake3", true},
		{"SHA256", false},
		{"sha512", false},
		{"md5", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.algo, func(t *testing.T) {
			if got := SupportedHashAlgo(tt.algo); got != tt.want {
				t.Errorf("SupportedHashAlgo(%q) = %v, want %v", tt.algo, got, tt.want)
			}
		})
	}
}
