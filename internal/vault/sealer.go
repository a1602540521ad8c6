// Package vault seals device credentials at rest. A sealed value is
//
//	enc:v1:<base64(salt || nonce || ciphertext+tag)>
//
// where the AES-256-GCM key is derived from a configured passphrase with
// Argon2id. Values without the prefix are treated as plaintext so that a
// database written before a passphrase was configured keeps working.
package vault

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Prefix marks a sealed value.
const Prefix = "enc:v1:"

// ErrNoPassphrase is returned when opening a sealed value without a
// configured passphrase.
var ErrNoPassphrase = errors.New("vault: sealed value but no passphrase configured")

// Sealer encrypts and decrypts short secrets. A Sealer with an empty
// passphrase passes values through unchanged.
type Sealer struct {
	passphrase string
	salt       []byte

	mu   sync.Mutex
	keys map[string][]byte // salt -> derived key
}

// NewSealer returns a Sealer for passphrase. Argon2 runs once per distinct
// salt; values sealed by this Sealer share one salt.
func NewSealer(passphrase string) (*Sealer, error) {
	s := &Sealer{passphrase: passphrase, keys: make(map[string][]byte)}
	if passphrase == "" {
		return s, nil
	}
	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	s.salt = salt
	return s, nil
}

// Enabled reports whether values are actually encrypted.
func (s *Sealer) Enabled() bool {
	return s != nil && s.passphrase != ""
}

// IsSealed reports whether v carries the sealed-value prefix.
func IsSealed(v string) bool {
	return strings.HasPrefix(v, Prefix)
}

// Seal encrypts plaintext. Empty input and a disabled Sealer return the
// input unchanged.
func (s *Sealer) Seal(plaintext string) (string, error) {
	if !s.Enabled() || plaintext == "" {
		return plaintext, nil
	}
	ct, err := encrypt(s.key(s.salt), []byte(plaintext))
	if err != nil {
		return "", fmt.Errorf("seal: %w", err)
	}
	buf := make([]byte, 0, len(s.salt)+len(ct))
	buf = append(buf, s.salt...)
	buf = append(buf, ct...)
	return Prefix + base64.StdEncoding.EncodeToString(buf), nil
}

// Open decrypts a value produced by Seal. Unsealed values are returned as is.
func (s *Sealer) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	if !s.Enabled() {
		return "", ErrNoPassphrase
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, Prefix))
	if err != nil {
		return "", fmt.Errorf("open: decode: %w", err)
	}
	if len(raw) < saltLen+nonceLen {
		return "", errors.New("open: sealed value too short")
	}
	plain, err := decrypt(s.key(raw[:saltLen]), raw[saltLen:])
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	return string(plain), nil
}

func (s *Sealer) key(salt []byte) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k, ok := s.keys[string(salt)]; ok {
		return k
	}
	k := DeriveKey(s.passphrase, bytes.Clone(salt))
	s.keys[string(salt)] = k
	return k
}
