package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/twliu-dorian/zk-agreement-example/internal/util"
)

// Sealed container layout: nonce || tag || ciphertext.
const (
	// ContainerNonceSize is the size of the random nonce at the start of a container.
	ContainerNonceSize = 16
	// ContainerTagSize is the size of the AES-GCM authentication tag.
	ContainerTagSize = 16
	// ContainerHeaderSize is the fixed prefix before the ciphertext.
	ContainerHeaderSize = ContainerNonceSize + ContainerTagSize
	// KeySize is the artifact key size (AES-256).
	KeySize = 32
)

// newContainerAEAD builds AES-256-GCM with the container's 16-byte nonce.
func newContainerAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", util.ErrInvalidKeyLength, len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	return cipher.NewGCMWithNonceSize(block, ContainerNonceSize)
}

// Seal encrypts plaintext under key and returns a sealed container.
// A fresh random nonce is drawn on every call.
func Seal(plaintext, key []byte) ([]byte, error) {
	aead, err := newContainerAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce, err := GenerateNonce(ContainerNonceSize)
	if err != nil {
		return nil, err
	}

	// Seal returns ciphertext || tag; the container stores the tag first.
	sealed := aead.Seal(nil, nonce, plaintext, nil)
	ct := sealed[:len(sealed)-ContainerTagSize]
	tag := sealed[len(sealed)-ContainerTagSize:]

	out := make([]byte, 0, ContainerHeaderSize+len(ct))
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)
	return out, nil
}

// Open authenticates and decrypts a sealed container. Any tag failure is
// reported as util.ErrAuthenticationFailed with no plaintext, whether the
// cause was a wrong key or a modified container.
func Open(container, key []byte) ([]byte, error) {
	if len(container) < ContainerHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", util.ErrMalformedContainer, len(container), ContainerHeaderSize)
	}

	aead, err := newContainerAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := container[:ContainerNonceSize]
	tag := container[ContainerNonceSize:ContainerHeaderSize]
	ct := container[ContainerHeaderSize:]

	// Open expects ciphertext with tag appended.
	buf := make([]byte, 0, len(ct)+ContainerTagSize)
	buf = append(buf, ct...)
	buf = append(buf, tag...)

	plaintext, err := aead.Open(nil, nonce, buf, nil)
	if err != nil {
		return nil, util.ErrAuthenticationFailed
	}
	return plaintext, nil
}
