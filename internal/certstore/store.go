package certstore

import (
	"context"
	"crypto/x509"
	"fmt"
	"strings"
)

// Scope selects between the machine-wide and the per-user trust stores.
type Scope string

const (
	ScopeMachine Scope = "machine"
	ScopeUser    Scope = "user"
)

// ParseScope validates and normalizes a store scope string.
func ParseScope(rawValue string) (Scope, error) {
	sanitized := strings.ToLower(strings.TrimSpace(rawValue))
	if sanitized == "" {
		return ScopeMachine, nil
	}
	switch Scope(sanitized) {
	case ScopeMachine, ScopeUser:
		return Scope(sanitized), nil
	default:
		return "", fmt.Errorf("unsupported store scope %s", rawValue)
	}
}

// Configuration controls provider behavior across platforms.
type Configuration struct {
	Scope                 Scope
	LinuxRootDirectory    string
	LinuxRehashExecutable string
	MacOSKeychainPath     string
}

// Provider opens handles to named certificate stores.
type Provider interface {
	Open(ctx context.Context, storeName string, writable bool) (Store, error)
}

// Store is an open handle to one named certificate collection. A store is
// opened for exactly one operation and must be closed on every exit path.
type Store interface {
	// Find returns the first certificate whose subject name contains the
	// given substring (case-insensitive), in store enumeration order. It
	// returns ErrCertificateNotFound when nothing matches. The caller owns
	// the returned context and must release it.
	Find(ctx context.Context, subjectSubstring string) (*CertificateContext, error)

	// Add inserts the certificate using replace-existing semantics: an entry
	// with the same fingerprint is overwritten, never duplicated.
	Add(ctx context.Context, certificate *CertificateContext) error

	// Delete removes the store entry backing the given context. The context
	// must have been obtained from this store's Find.
	Delete(ctx context.Context, certificate *CertificateContext) error

	// Close releases the store handle.
	Close() error
}

func matchesSubjectName(certificate *x509.Certificate, subjectSubstring string) bool {
	lowered := strings.ToLower(subjectSubstring)
	if strings.Contains(strings.ToLower(certificate.Subject.String()), lowered) {
		return true
	}
	return strings.Contains(strings.ToLower(certificate.Subject.CommonName), lowered)
}
