// Package auth implements the bearer-credential identity gate. The rest
// of the application never inspects token internals; it only consumes
// the verified identity for the lifetime of one request.
package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken indicates the credential failed verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// Identity is the verified caller identity.
type Identity struct {
	Email string
}

// Verifier checks a bearer credential and yields the caller identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// AllowAll accepts any credential and returns a fixed identity. It is
// only meant for local development (AUTH_MODE=none).
type AllowAll struct {
	Identity Identity
}

// Verify implements Verifier.
func (v AllowAll) Verify(context.Context, string) (Identity, error) {
	return v.Identity, nil
}
