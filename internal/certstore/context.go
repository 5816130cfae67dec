package certstore

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
)

// CertificateContext is an in-memory parsed certificate together with its
// raw DER bytes. A context is exclusively owned by the caller that obtained
// it, must be released exactly once, and never used after release.
type CertificateContext struct {
	EncodedBytes []byte
	Certificate  *x509.Certificate

	storeReference any
	releaseFunc    func() error
	released       bool
}

// NewCertificateContext parses a raw DER buffer into a certificate context.
func NewCertificateContext(encodedBytes []byte) (*CertificateContext, error) {
	buffer := make([]byte, len(encodedBytes))
	copy(buffer, encodedBytes)
	certificate, parseErr := x509.ParseCertificate(buffer)
	if parseErr != nil {
		return nil, &ParseError{Err: parseErr}
	}
	return &CertificateContext{EncodedBytes: buffer, Certificate: certificate}, nil
}

func newStoreCertificateContext(encodedBytes []byte, certificate *x509.Certificate, storeReference any, releaseFunc func() error) *CertificateContext {
	return &CertificateContext{
		EncodedBytes:   encodedBytes,
		Certificate:    certificate,
		storeReference: storeReference,
		releaseFunc:    releaseFunc,
	}
}

// Release frees any backing platform resources. A second release is an
// error.
func (certificateContext *CertificateContext) Release() error {
	if certificateContext.released {
		return ErrContextReleased
	}
	certificateContext.released = true
	if certificateContext.releaseFunc == nil {
		return nil
	}
	return certificateContext.releaseFunc()
}

// Released reports whether the context has already been released.
func (certificateContext *CertificateContext) Released() bool {
	return certificateContext.released
}

// Fingerprint returns the hex-encoded SHA-256 digest of the encoded
// certificate. It is the replace-existing identity of a store entry.
func (certificateContext *CertificateContext) Fingerprint() string {
	digest := sha256.Sum256(certificateContext.EncodedBytes)
	return hex.EncodeToString(digest[:])
}

// SHA1Fingerprint returns the hex-encoded SHA-1 digest of the encoded
// certificate, the identity used by the macOS security tooling.
func (certificateContext *CertificateContext) SHA1Fingerprint() string {
	digest := sha1.Sum(certificateContext.EncodedBytes)
	return hex.EncodeToString(digest[:])
}

// SubjectName returns the certificate's subject distinguished name.
func (certificateContext *CertificateContext) SubjectName() string {
	return certificateContext.Certificate.Subject.String()
}

// disarmRelease marks the backing platform resource as already freed, so a
// later Release does not free it twice. Used after store deletes that
// consume the platform context.
func (certificateContext *CertificateContext) disarmRelease() {
	certificateContext.releaseFunc = nil
}
