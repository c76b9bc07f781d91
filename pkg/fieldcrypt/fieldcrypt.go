// Package fieldcrypt encrypts individual order contact fields at rest.
// Ciphertexts carry a versioned prefix; values without it are treated as
// legacy plaintext and passed through unchanged on decrypt.
package fieldcrypt

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const prefix = "enc:v1:"

// Codec seals and opens field values with a symmetric key.
type Codec struct {
	key [32]byte
}

// New derives a 32-byte secretbox key from the configured secret.
func New(secret string) *Codec {
	return &Codec{key: sha256.Sum256([]byte(secret))}
}

// Encrypt seals the value and returns it as prefix + base64(nonce || box).
// Empty values stay empty so optional fields round-trip cleanly.
func (c *Codec) Encrypt(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(value), &nonce, &c.key)
	return prefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a sealed value. Values without the ciphertext prefix are
// legacy plaintext and are returned as-is.
func (c *Codec) Decrypt(value string) (string, error) {
	if !strings.HasPrefix(value, prefix) {
		return value, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, prefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode encrypted field: %w", err)
	}
	if len(raw) < 24 {
		return "", fmt.Errorf("encrypted field is too short")
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, &c.key)
	if !ok {
		return "", fmt.Errorf("failed to open encrypted field")
	}
	return string(plain), nil
}
