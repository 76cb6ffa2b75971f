package service

import (
	"golang.org/x/crypto/bcrypt"
)

// BcryptVerifier implements domain.CredentialVerifier with bcrypt.
type BcryptVerifier struct{}

// NewBcryptVerifier creates a new bcrypt credential verifier
func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{}
}

// Compare reports whether password matches the stored bcrypt hash.
func (v *BcryptVerifier) Compare(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// HashPassword hashes a plaintext password with bcrypt at the default cost.
// Used by provisioning tooling and tests; this service never creates users.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
