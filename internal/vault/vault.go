// Package vault — vault.go
//
// Secret Vault: symmetric authenticated encryption (AES-256-GCM) applied
// transparently to partition 9 (Shadow) of the knowledge substrate.
//
// Ciphertext framing: nonce(12) || ciphertext || tag(16). A fresh
// crypto/rand nonce is drawn per write and prepended to the ciphertext.
//
// The master key never touches disk and is never logged. If absent at
// construction, the vault is permanently locked for its lifetime: every
// Encrypt/Decrypt call returns ErrLocked without doing any cryptographic
// work.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// KeySize is the required master key length for AES-256.
const KeySize = 32

var (
	// ErrLocked is returned by every operation when no master key was
	// supplied at construction.
	ErrLocked = errors.New("vault: locked (no master key)")

	// ErrCorruptOrWrongKey is returned when GCM authentication fails:
	// either the ciphertext was tampered with, or the key is wrong.
	ErrCorruptOrWrongKey = errors.New("vault: decrypt failed (corrupt ciphertext or wrong key)")

	// ErrShortCiphertext is returned when the input is too short to
	// contain a nonce, meaning it was never produced by this vault.
	ErrShortCiphertext = errors.New("vault: ciphertext shorter than nonce size")
)

// Vault performs AES-256-GCM encryption/decryption for the Shadow partition.
// A zero-value Vault behaves as a locked vault; construct with New.
type Vault struct {
	aead cipher.AEAD // nil when locked
}

// New constructs a Vault from an optional 32-byte master key. Passing nil
// produces a permanently locked vault — callers that want to probe for a
// key from the environment should resolve the key first and call New with
// the result (see config.ResolveShadowKey for the lookup convention).
func New(masterKey []byte) (*Vault, error) {
	if masterKey == nil {
		return &Vault{}, nil
	}
	if len(masterKey) != KeySize {
		return nil, fmt.Errorf("vault: master key must be %d bytes, got %d", KeySize, len(masterKey))
	}
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, fmt.Errorf("vault: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: new gcm: %w", err)
	}
	return &Vault{aead: gcm}, nil
}

// IsUnlocked reports whether the vault holds a usable master key.
func (v *Vault) IsUnlocked() bool {
	return v != nil && v.aead != nil
}

// EncryptBlob encrypts plaintext and returns nonce||ciphertext||tag.
// Returns ErrLocked if no master key is available. A fresh random nonce is
// drawn for every call, so two successive encryptions of the same
// plaintext never produce the same bytes.
func (v *Vault) EncryptBlob(plaintext []byte) ([]byte, error) {
	if !v.IsUnlocked() {
		return nil, ErrLocked
	}
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("vault: nonce: %w", err)
	}
	return v.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// DecryptBlob reverses EncryptBlob. Returns ErrLocked if no master key is
// available, ErrShortCiphertext if the input cannot possibly contain a
// nonce, or ErrCorruptOrWrongKey if GCM authentication fails.
func (v *Vault) DecryptBlob(ciphertext []byte) ([]byte, error) {
	if !v.IsUnlocked() {
		return nil, ErrLocked
	}
	ns := v.aead.NonceSize()
	if len(ciphertext) < ns {
		return nil, ErrShortCiphertext
	}
	nonce, ct := ciphertext[:ns], ciphertext[ns:]
	plaintext, err := v.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrCorruptOrWrongKey
	}
	return plaintext, nil
}

// DecryptString is a convenience wrapper returning the decrypted plaintext
// as a string.
func (v *Vault) DecryptString(ciphertext []byte) (string, error) {
	pt, err := v.DecryptBlob(ciphertext)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}
