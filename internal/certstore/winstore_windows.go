//go:build windows

package certstore

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	certEncodingTypes = windows.X509_ASN_ENCODING | windows.PKCS_7_ASN_ENCODING

	certStoreProvSystem         = 10
	certSystemStoreCurrentUser  = 0x00010000
	certSystemStoreLocalMachine = 0x00020000
	certStoreReadOnlyFlag       = 0x00008000
	certStoreAddReplaceExisting = 3
)

var errCryptNotFound = windows.Errno(0x80092004) // CRYPT_E_NOT_FOUND

// SystemStoreProvider opens named Windows system certificate stores through
// the native CryptoAPI.
type SystemStoreProvider struct {
	scope Scope
}

// NewSystemStoreProvider constructs a SystemStoreProvider.
func NewSystemStoreProvider(scope Scope) SystemStoreProvider {
	return SystemStoreProvider{scope: scope}
}

// Open opens the named system store. Read-only opens forbid structural
// modification and avoid unnecessary elevation.
func (provider SystemStoreProvider) Open(ctx context.Context, storeName string, writable bool) (Store, error) {
	storeNamePointer, convertErr := windows.UTF16PtrFromString(storeName)
	if convertErr != nil {
		return nil, &StoreOpenError{StoreName: storeName, Err: convertErr}
	}
	flags := uint32(certSystemStoreLocalMachine)
	if provider.scope == ScopeUser {
		flags = certSystemStoreCurrentUser
	}
	if !writable {
		flags |= certStoreReadOnlyFlag
	}
	handle, openErr := windows.CertOpenStore(
		certStoreProvSystem,
		certEncodingTypes,
		0,
		flags,
		uintptr(unsafe.Pointer(storeNamePointer)),
	)
	if openErr != nil {
		return nil, &StoreOpenError{StoreName: storeName, Err: openErr}
	}
	return &systemStore{handle: handle, storeName: storeName, writable: writable}, nil
}

type systemStore struct {
	handle    windows.Handle
	storeName string
	writable  bool
	closed    bool
}

func (store *systemStore) Find(ctx context.Context, subjectSubstring string) (*CertificateContext, error) {
	if store.closed {
		return nil, errStoreClosed
	}
	var enumContext *windows.CertContext
	for {
		nextContext, enumErr := windows.CertEnumCertificatesInStore(store.handle, enumContext)
		if enumErr != nil {
			var errno windows.Errno
			if errors.As(enumErr, &errno) && (errno == errCryptNotFound || errno == windows.ERROR_NO_MORE_FILES) {
				break
			}
			return nil, fmt.Errorf("enumerate store certificates: %w", enumErr)
		}
		if nextContext == nil {
			break
		}
		enumContext = nextContext

		encoded := unsafe.Slice(nextContext.EncodedCert, nextContext.Length)
		buffer := make([]byte, len(encoded))
		copy(buffer, encoded)
		certificate, parseErr := x509.ParseCertificate(buffer)
		if parseErr != nil {
			continue
		}
		if matchesSubjectName(certificate, subjectSubstring) {
			// Enumeration stops here, so the context stays valid until it
			// is released or the backing entry is deleted.
			matched := nextContext
			releaseFunc := func() error {
				return windows.CertFreeCertificateContext(matched)
			}
			return newStoreCertificateContext(buffer, certificate, matched, releaseFunc), nil
		}
	}
	return nil, ErrCertificateNotFound
}

func (store *systemStore) Add(ctx context.Context, certificate *CertificateContext) error {
	if store.closed {
		return errStoreClosed
	}
	if !store.writable {
		return errStoreReadOnly
	}
	if certificate.Released() {
		return ErrContextReleased
	}
	if len(certificate.EncodedBytes) == 0 {
		return errors.New("certificate has no encoded bytes")
	}
	platformContext, createErr := windows.CertCreateCertificateContext(
		certEncodingTypes,
		&certificate.EncodedBytes[0],
		uint32(len(certificate.EncodedBytes)),
	)
	if createErr != nil {
		return fmt.Errorf("create platform certificate context: %w", createErr)
	}
	defer func() {
		_ = windows.CertFreeCertificateContext(platformContext)
	}()
	addErr := windows.CertAddCertificateContextToStore(store.handle, platformContext, certStoreAddReplaceExisting, nil)
	if addErr != nil {
		return fmt.Errorf("add certificate context to store: %w", addErr)
	}
	return nil
}

func (store *systemStore) Delete(ctx context.Context, certificate *CertificateContext) error {
	if store.closed {
		return errStoreClosed
	}
	if !store.writable {
		return errStoreReadOnly
	}
	if certificate.Released() {
		return ErrContextReleased
	}
	platformContext, obtained := certificate.storeReference.(*windows.CertContext)
	if !obtained {
		return errors.New("certificate context does not reference a store entry")
	}
	deleteErr := windows.CertDeleteCertificateFromStore(platformContext)
	// CertDeleteCertificateFromStore frees the platform context even when it
	// fails, so the context must never be freed again.
	certificate.disarmRelease()
	if deleteErr != nil {
		return fmt.Errorf("delete certificate from store: %w", deleteErr)
	}
	return nil
}

func (store *systemStore) Close() error {
	if store.closed {
		return nil
	}
	store.closed = true
	return windows.CertCloseStore(store.handle, 0)
}
