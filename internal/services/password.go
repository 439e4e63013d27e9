package services

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	HashPBKDF2 = "pbkdf2"
	HashBcrypt = "bcrypt"

	defaultPBKDF2Iterations = 600000
	pbkdf2Prefix            = "pbkdf2:sha256"
	saltLength              = 16
	saltAlphabet            = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// PasswordHasher produces salted, iterated password hashes. New hashes use
// the configured algorithm; Verify accepts both formats so existing rows keep
// working after a switch.
//
// PBKDF2 hashes are stored as "pbkdf2:sha256:<iterations>$<salt>$<hex>".
type PasswordHasher struct {
	algorithm  string
	iterations int

	dummyOnce sync.Once
	dummyHash string
}

func NewPasswordHasher(algorithm string, iterations int) (*PasswordHasher, error) {
	if algorithm == "" {
		algorithm = HashPBKDF2
	}
	if algorithm != HashPBKDF2 && algorithm != HashBcrypt {
		return nil, fmt.Errorf("unsupported password hash algorithm %q", algorithm)
	}
	if iterations < 1 {
		iterations = defaultPBKDF2Iterations
	}
	return &PasswordHasher{algorithm: algorithm, iterations: iterations}, nil
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	if h.algorithm == HashBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		return string(hashed), nil
	}

	salt, err := randomSalt()
	if err != nil {
		return "", err
	}
	sum := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, sha256.Size, sha256.New)
	return fmt.Sprintf("%s:%d$%s$%s", pbkdf2Prefix, h.iterations, salt, hex.EncodeToString(sum)), nil
}

// Verify reports whether password matches hash. Malformed hashes never match.
func (h *PasswordHasher) Verify(hash, password string) bool {
	if strings.HasPrefix(hash, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}

	method, rest, ok := strings.Cut(hash, "$")
	if !ok {
		return false
	}
	salt, digest, ok := strings.Cut(rest, "$")
	if !ok {
		return false
	}
	iterations, ok := parsePBKDF2Method(method)
	if !ok {
		return false
	}
	want, err := hex.DecodeString(digest)
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(password), []byte(salt), iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// VerifyDummy burns the same work as a real verification so callers can
// hide whether an account exists.
func (h *PasswordHasher) VerifyDummy(password string) {
	h.dummyOnce.Do(func() {
		h.dummyHash, _ = h.Hash("usersvc-dummy-password")
	})
	_ = h.Verify(h.dummyHash, password)
}

func parsePBKDF2Method(method string) (int, bool) {
	if method == pbkdf2Prefix {
		return defaultPBKDF2Iterations, true
	}
	raw, ok := strings.CutPrefix(method, pbkdf2Prefix+":")
	if !ok {
		return 0, false
	}
	iterations, err := strconv.Atoi(raw)
	if err != nil || iterations < 1 {
		return 0, false
	}
	return iterations, true
}

func randomSalt() (string, error) {
	buf := make([]byte, saltLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	for i, b := range buf {
		buf[i] = saltAlphabet[int(b)%len(saltAlphabet)]
	}
	return string(buf), nil
}
