package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// StaticKeyVerifier accepts a single pre-shared API key, compared against
// a bcrypt hash so the plaintext never lives in configuration.
type StaticKeyVerifier struct {
	hash     []byte
	identity Identity
}

// NewStaticKeyVerifier returns a verifier for the given bcrypt hash. The
// identity is attributed to every request carrying the key.
func NewStaticKeyVerifier(hash, email string) *StaticKeyVerifier {
	return &StaticKeyVerifier{hash: []byte(hash), identity: Identity{Email: email}}
}

// Verify implements Verifier.
func (v *StaticKeyVerifier) Verify(_ context.Context, token string) (Identity, error) {
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(token)); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return v.identity, nil
}
