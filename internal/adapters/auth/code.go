package auth

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"teamo/internal/domain"
)

const (
	inviteCodeDigits   = 6
	tempPasswordLength = 12
)

type bcryptCodeHasher struct {
	cost int
}

// NewBcryptCodeHasher returns a CodeHasher that stores invite codes as
// bcrypt hashes. Verification is one-way: the stored value can never be
// turned back into the code.
func NewBcryptCodeHasher(cost int) domain.CodeHasher {
	return &bcryptCodeHasher{cost: cost}
}

func (h *bcryptCodeHasher) Hash(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash invite code: %w", err)
	}
	return string(hash), nil
}

func (h *bcryptCodeHasher) Compare(hash, code string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code))
}

type credentialGenerator struct{}

// NewCredentialGenerator returns a CredentialGenerator producing random
// 6-digit invite codes and 12-character temporary passwords.
func NewCredentialGenerator() domain.CredentialGenerator {
	return &credentialGenerator{}
}

func (g *credentialGenerator) InviteCode() (string, error) {
	return randomFromAlphabet("0123456789", inviteCodeDigits)
}

func (g *credentialGenerator) TemporaryPassword() (string, error) {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"
	return randomFromAlphabet(alphabet, tempPasswordLength)
}

func randomFromAlphabet(alphabet string, length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	for i := range b {
		b[i] = alphabet[int(b[i])%len(alphabet)]
	}
	return string(b), nil
}
