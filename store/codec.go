package store

import (
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Codec is the at-rest value boundary. Encode runs on every write,
// Decode on every read; the store treats a Decode failure as an absent
// record rather than surfacing it.
type Codec interface {
	Encode(plaintext []byte) ([]byte, error)
	Decode(stored []byte) ([]byte, error)
}

// PlainCodec stores values as-is.
type PlainCodec struct{}

func (PlainCodec) Encode(plaintext []byte) ([]byte, error) { return plaintext, nil }

func (PlainCodec) Decode(stored []byte) ([]byte, error) { return stored, nil }

// AEADCodec seals values with ChaCha20-Poly1305. A fresh random nonce
// is generated per write and prepended to the ciphertext.
type AEADCodec struct {
	aead cipher.AEAD
}

func NewAEADCodec(key []byte) (*AEADCodec, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("aead codec: %w", err)
	}
	return &AEADCodec{aead: aead}, nil
}

func (c *AEADCodec) Encode(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *AEADCodec) Decode(stored []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(stored) < ns {
		return nil, fmt.Errorf("sealed value too short")
	}
	return c.aead.Open(nil, stored[:ns], stored[ns:], nil)
}
