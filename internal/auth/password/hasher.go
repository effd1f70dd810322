// Package password hashes and verifies user passwords with bcrypt or
// argon2id. Stored hashes are self-describing, so the verifier never needs
// the parameters that produced them.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMismatch means the password does not match the hash.
	ErrMismatch = errors.New("password: invalid password")
	// ErrTooShort and ErrTooLong are returned by Hash.
	ErrTooShort = errors.New("password: too short")
	ErrTooLong  = errors.New("password: too long")
	// ErrMalformedHash means the stored value is not a hash this package produced.
	ErrMalformedHash = errors.New("password: malformed hash")
)

// bcrypt ignores everything past 72 bytes.
const bcryptMaxLength = 72

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password string) (string, error)
	// Verify returns nil on match and ErrMismatch otherwise.
	Verify(password, hash string) error
}

// BcryptHasher implements Hasher using bcrypt.
type BcryptHasher struct {
	cost      int
	minLength int
}

// BcryptOption configures the bcrypt hasher.
type BcryptOption func(*BcryptHasher)

// WithCost sets the bcrypt cost (4-31). Out of range values are ignored.
func WithCost(cost int) BcryptOption {
	return func(h *BcryptHasher) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			h.cost = cost
		}
	}
}

// WithMinLength sets the minimum accepted password length.
func WithMinLength(n int) BcryptOption {
	return func(h *BcryptHasher) { h.minLength = n }
}

// NewBcryptHasher creates a bcrypt-based password hasher.
func NewBcryptHasher(opts ...BcryptOption) *BcryptHasher {
	h := &BcryptHasher{cost: 12, minLength: 8}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) < h.minLength {
		return "", fmt.Errorf("%w: minimum length is %d characters", ErrTooShort, h.minLength)
	}
	if len(password) > bcryptMaxLength {
		return "", fmt.Errorf("%w: maximum length is %d bytes", ErrTooLong, bcryptMaxLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return fmt.Errorf("%w: %w", ErrMalformedHash, err)
	}
}

// Argon2Hasher implements Hasher using argon2id.
type Argon2Hasher struct {
	time      uint32
	memory    uint32
	threads   uint8
	keyLen    uint32
	saltLen   int
	minLength int
}

// Argon2Option configures the argon2id hasher.
type Argon2Option func(*Argon2Hasher)

func WithArgon2Time(t uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.time = t }
}

// WithArgon2Memory sets the memory cost in KiB.
func WithArgon2Memory(m uint32) Argon2Option {
	return func(h *Argon2Hasher) { h.memory = m }
}

func WithArgon2Threads(t uint8) Argon2Option {
	return func(h *Argon2Hasher) { h.threads = t }
}

func WithArgon2MinLength(n int) Argon2Option {
	return func(h *Argon2Hasher) { h.minLength = n }
}

// NewArgon2Hasher creates an argon2id hasher with time=1, memory=64MB,
// threads=4 unless overridden.
func NewArgon2Hasher(opts ...Argon2Option) *Argon2Hasher {
	h := &Argon2Hasher{
		time:      1,
		memory:    64 * 1024,
		threads:   4,
		keyLen:    32,
		saltLen:   16,
		minLength: 8,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Hash returns $argon2id$v=19$m=MEMORY,t=TIME,p=THREADS$SALT$HASH.
func (h *Argon2Hasher) Hash(password string) (string, error) {
	if len(password) < h.minLength {
		return "", fmt.Errorf("%w: minimum length is %d characters", ErrTooShort, h.minLength)
	}

	salt := make([]byte, h.saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("password: generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, h.keyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func (h *Argon2Hasher) Verify(password, encodedHash string) error {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return ErrMalformedHash
	}

	var memory, time uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return fmt.Errorf("%w: params: %w", ErrMalformedHash, err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("%w: salt: %w", ErrMalformedHash, err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("%w: hash: %w", ErrMalformedHash, err)
	}

	hash := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(expected)))
	if subtle.ConstantTimeCompare(hash, expected) != 1 {
		return ErrMismatch
	}
	return nil
}
