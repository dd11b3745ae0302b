// Package secret seals API keys before they are written to the settings store.
package secret

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

var ErrMalformed = errors.New("sealed value is malformed")

const info = "docintake settings v1"

// Box seals and opens short secrets with XChaCha20-Poly1305.
type Box struct {
	aead cipher.AEAD
}

// NewBox derives a key from passphrase.
func NewBox(passphrase string) (*Box, error) {
	if passphrase == "" {
		return nil, errors.New("secret: passphrase is required")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(passphrase), nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("secret: deriving key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("secret: creating cipher: %w", err)
	}
	return &Box{aead: aead}, nil
}

// Seal encrypts plaintext bound to label. Empty input seals to "".
func (b *Box) Seal(plaintext, label string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("secret: generating nonce: %w", err)
	}
	out := b.aead.Seal(nonce, nonce, []byte(plaintext), []byte(label))
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal with the same label.
func (b *Box) Open(sealed, label string) (string, error) {
	if sealed == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	n := b.aead.NonceSize()
	if len(raw) < n {
		return "", ErrMalformed
	}
	plain, err := b.aead.Open(nil, raw[:n], raw[n:], []byte(label))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return string(plain), nil
}
