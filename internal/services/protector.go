package services

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ErrDecryption is returned for tampered, truncated or expired payloads.
var ErrDecryption = errors.New("payload cannot be unprotected")

const expiryHeaderSize = 8

// TimeLimitedProtector encrypts short strings together with an expiry.
// Every purpose gets its own subkey, so a payload protected for one purpose
// never opens under another.
type TimeLimitedProtector struct {
	purpose string
	aead    cipher.AEAD
	clock   Clock
}

func NewTimeLimitedProtector(masterKey []byte, purpose string, clock Clock) (*TimeLimitedProtector, error) {
	if len(masterKey) < 32 {
		return nil, fmt.Errorf("master key too short: %d bytes", len(masterKey))
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, masterKey, nil, []byte("trysite/protector/"+purpose))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	return &TimeLimitedProtector{purpose: purpose, aead: aead, clock: clock}, nil
}

// Protect seals plaintext so that Unprotect accepts it until expiry.
func (p *TimeLimitedProtector) Protect(plaintext string, expiry time.Time) (string, error) {
	payload := make([]byte, expiryHeaderSize+len(plaintext))
	binary.BigEndian.PutUint64(payload, uint64(expiry.Unix()))
	copy(payload[expiryHeaderSize:], plaintext)

	nonce := make([]byte, p.aead.NonceSize(), p.aead.NonceSize()+len(payload)+p.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := p.aead.Seal(nonce, nonce, payload, []byte(p.purpose))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Unprotect opens a payload produced by Protect and returns the plaintext and
// its expiry.
func (p *TimeLimitedProtector) Unprotect(protected string) (string, time.Time, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(protected)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: malformed encoding", ErrDecryption)
	}
	if len(sealed) < p.aead.NonceSize()+p.aead.Overhead()+expiryHeaderSize {
		return "", time.Time{}, fmt.Errorf("%w: payload too short", ErrDecryption)
	}

	nonce, ciphertext := sealed[:p.aead.NonceSize()], sealed[p.aead.NonceSize():]
	payload, err := p.aead.Open(nil, nonce, ciphertext, []byte(p.purpose))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: authentication failed", ErrDecryption)
	}

	expiry := time.Unix(int64(binary.BigEndian.Uint64(payload)), 0).UTC()
	if !p.clock.Now().Before(expiry) {
		return "", expiry, fmt.Errorf("%w: expired at %s", ErrDecryption, expiry.Format(time.RFC3339))
	}
	return string(payload[expiryHeaderSize:]), expiry, nil
}
