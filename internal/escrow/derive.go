package escrow

import (
	"crypto/sha256"

	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

// ArtifactID returns hex(SHA-256(identifier)). The identifier must be the
// same string at seal and reveal time; a different one selects a different
// record and, for a bare container, a different key.
func ArtifactID(identifier string) string {
	h := sha256.Sum256([]byte(identifier))
	return util.HexEncode(h[:])
}

// DeriveArtifactKey returns SHA-256(secret || subjectID || artifactID), where
// subjectID is taken as UTF-8 bytes and artifactID as the ASCII bytes of its
// hex form.
func DeriveArtifactKey(secret []byte, subjectID, artifactID string) []byte {
	h := sha256.New()
	h.Write(secret)
	h.Write([]byte(subjectID))
	h.Write([]byte(artifactID))
	return h.Sum(nil)
}
