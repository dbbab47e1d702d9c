package encryption

import (
	"bytes"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// sealedPrefix marks a sealed payload on disk: "enc:v1:<cipher>:<base64>".
const sealedPrefix = "enc:v1:"

var ErrNotSealed = errors.New("payload is not sealed")

// Manager seals JSON values with one cipher. It opens payloads sealed by any
// supported cipher as long as the key matches.
type Manager struct {
	cipher *Cipher
	key    []byte
}

func NewManager(c *Cipher, key []byte) *Manager {
	return &Manager{cipher: c, key: key}
}

// NewManagerFromKey parses key (base64 or hex, 32 bytes decoded) and uses
// ChaCha20-Poly1305.
func NewManagerFromKey(key string) (*Manager, error) {
	raw, err := ParseKey(key)
	if err != nil {
		return nil, err
	}
	c, err := NewCipher(CipherChaCha20Poly1305, raw)
	if err != nil {
		return nil, err
	}
	return NewManager(c, raw), nil
}

// ParseKey accepts a 32-byte key as standard base64, URL-safe base64 or hex.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	for _, dec := range []func(string) ([]byte, error){
		base64.StdEncoding.DecodeString,
		base64.URLEncoding.DecodeString,
		base64.RawStdEncoding.DecodeString,
		hex.DecodeString,
	} {
		if b, err := dec(s); err == nil && len(b) == KeySize {
			return b, nil
		}
	}
	return nil, fmt.Errorf("encryption key must decode to %d bytes (base64 or hex)", KeySize)
}

// IsSealed reports whether b looks like a payload written by Seal.
func IsSealed(b []byte) bool {
	return bytes.HasPrefix(bytes.TrimSpace(b), []byte(sealedPrefix))
}

// Seal marshals v to JSON and encrypts it.
func Seal[T any](m *Manager, v T) ([]byte, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	ciphertext, err := m.cipher.Encrypt(plaintext)
	if err != nil {
		return nil, err
	}
	return []byte(sealedPrefix + string(m.cipher.Type()) + ":" + base64.StdEncoding.EncodeToString(ciphertext)), nil
}

// Open decrypts a payload produced by Seal into a T.
func Open[T any](m *Manager, payload []byte) (T, error) {
	var zero T

	rest, ok := strings.CutPrefix(string(bytes.TrimSpace(payload)), sealedPrefix)
	if !ok {
		return zero, ErrNotSealed
	}
	name, encoded, ok := strings.Cut(rest, ":")
	if !ok {
		return zero, fmt.Errorf("malformed sealed payload")
	}

	c := m.cipher
	if CipherType(name) != c.Type() {
		var err error
		if c, err = NewCipher(CipherType(name), m.key); err != nil {
			return zero, err
		}
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return zero, fmt.Errorf("decode sealed payload: %w", err)
	}
	plaintext, err := c.Decrypt(ciphertext)
	if err != nil {
		return zero, err
	}

	var v T
	if err := json.Unmarshal(plaintext, &v); err != nil {
		return zero, fmt.Errorf("unmarshal value: %w", err)
	}
	return v, nil
}
