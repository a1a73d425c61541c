// internal/auth/auth.go
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"

	"github.com/Annany2002/nebula-query-gateway/internal/logger"
)

var (
	ErrAuthMissing           = errors.New("API key missing, use Bearer authentication")
	ErrAuthInvalid           = errors.New("invalid API key")
	ErrWritePermissionDenied = errors.New("read-only API key is not allowed to run write statements")
	customLog                = logger.NewLogger()
)

// Credential is the privilege level granted by a presented API key.
type Credential int

const (
	CredentialNone Credential = iota
	CredentialReadOnly
	CredentialReadWrite
)

func (c Credential) String() string {
	switch c {
	case CredentialReadOnly:
		return "read-only"
	case CredentialReadWrite:
		return "read-write"
	default:
		return "none"
	}
}

// CanRead reports whether the credential may run read statements.
func (c Credential) CanRead() bool {
	return c == CredentialReadOnly || c == CredentialReadWrite
}

// CanWrite reports whether the credential may run mutating statements.
func (c Credential) CanWrite() bool {
	return c == CredentialReadWrite
}

// Resolver maps bearer tokens to credentials. The secrets are fixed at
// construction; a Resolver is safe for concurrent use.
type Resolver struct {
	readOnly  []byte
	readWrite []byte
}

// NewResolver creates a Resolver. An empty secret never matches.
func NewResolver(readOnlyKey, readWriteKey string) *Resolver {
	return &Resolver{
		readOnly:  []byte(readOnlyKey),
		readWrite: []byte(readWriteKey),
	}
}

// ExtractBearerToken returns the token of an "Authorization: Bearer <token>"
// header. The header must split into exactly two whitespace-separated parts.
func ExtractBearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// Resolve maps an Authorization header value to a credential.
// The read-write secret is checked first.
func (r *Resolver) Resolve(header string) (Credential, error) {
	token, ok := ExtractBearerToken(header)
	if !ok {
		return CredentialNone, ErrAuthMissing
	}

	if matches(token, r.readWrite) {
		return CredentialReadWrite, nil
	}
	if matches(token, r.readOnly) {
		return CredentialReadOnly, nil
	}

	customLog.Warnf("Auth: presented API key matches no configured key")
	return CredentialNone, ErrAuthInvalid
}

func matches(token string, secret []byte) bool {
	if len(secret) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), secret) == 1
}
