package certstore

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

const (
	securityExecutableName       = "security"
	temporaryCertificatePattern  = "certimporter-*.der"
	keychainCertificatePemHeader = "CERTIFICATE"
)

// KeychainProvider serves certificate stores backed by a macOS keychain,
// driven through the security command. Named stores all map onto the
// configured keychain; the keychain itself is the machine- or user-level
// collection.
type KeychainProvider struct {
	commandRunner CommandRunner
	fileSystem    FileSystem
	keychainPath  string
}

// NewKeychainProvider constructs a KeychainProvider.
func NewKeychainProvider(commandRunner CommandRunner, fileSystem FileSystem, keychainPath string) KeychainProvider {
	return KeychainProvider{
		commandRunner: commandRunner,
		fileSystem:    fileSystem,
		keychainPath:  keychainPath,
	}
}

// Open opens a handle onto the configured keychain.
func (provider KeychainProvider) Open(ctx context.Context, storeName string, writable bool) (Store, error) {
	if provider.keychainPath == "" {
		return nil, &StoreOpenError{StoreName: storeName, Err: errors.New("keychain path is required")}
	}
	exists, existsErr := provider.fileSystem.FileExists(provider.keychainPath)
	if existsErr != nil {
		return nil, &StoreOpenError{StoreName: storeName, Err: existsErr}
	}
	if !exists {
		return nil, &StoreOpenError{StoreName: storeName, Err: fmt.Errorf("keychain %s does not exist", provider.keychainPath)}
	}
	return &keychainStore{
		commandRunner: provider.commandRunner,
		fileSystem:    provider.fileSystem,
		keychainPath:  provider.keychainPath,
		writable:      writable,
	}, nil
}

type keychainStore struct {
	commandRunner CommandRunner
	fileSystem    FileSystem
	keychainPath  string
	writable      bool
	closed        bool
}

func (store *keychainStore) Find(ctx context.Context, subjectSubstring string) (*CertificateContext, error) {
	if store.closed {
		return nil, errStoreClosed
	}
	arguments := []string{"find-certificate", "-a", "-p", store.keychainPath}
	output, outputErr := store.commandRunner.Output(ctx, securityExecutableName, arguments)
	if outputErr != nil {
		return nil, fmt.Errorf("enumerate keychain certificates: %w", outputErr)
	}
	remaining := output
	for {
		block, rest := pem.Decode(remaining)
		if block == nil {
			break
		}
		remaining = rest
		if block.Type != keychainCertificatePemHeader {
			continue
		}
		certificate, parseErr := x509.ParseCertificate(block.Bytes)
		if parseErr != nil {
			continue
		}
		if matchesSubjectName(certificate, subjectSubstring) {
			return newStoreCertificateContext(block.Bytes, certificate, nil, nil), nil
		}
	}
	return nil, ErrCertificateNotFound
}

func (store *keychainStore) Add(ctx context.Context, certificate *CertificateContext) error {
	if store.closed {
		return errStoreClosed
	}
	if !store.writable {
		return errStoreReadOnly
	}
	if certificate.Released() {
		return ErrContextReleased
	}
	temporaryPath, stageErr := store.fileSystem.WriteTemporaryFile(temporaryCertificatePattern, certificate.EncodedBytes)
	if stageErr != nil {
		return fmt.Errorf("stage certificate file: %w", stageErr)
	}
	defer func() {
		_ = store.fileSystem.Remove(temporaryPath)
	}()
	arguments := []string{"add-trusted-cert", "-d", "-r", "trustRoot", "-k", store.keychainPath, temporaryPath}
	if runErr := store.commandRunner.Run(ctx, securityExecutableName, arguments); runErr != nil {
		return fmt.Errorf("add certificate to keychain: %w", runErr)
	}
	return nil
}

func (store *keychainStore) Delete(ctx context.Context, certificate *CertificateContext) error {
	if store.closed {
		return errStoreClosed
	}
	if !store.writable {
		return errStoreReadOnly
	}
	if certificate.Released() {
		return ErrContextReleased
	}
	arguments := []string{"delete-certificate", "-Z", certificate.SHA1Fingerprint(), store.keychainPath}
	if runErr := store.commandRunner.Run(ctx, securityExecutableName, arguments); runErr != nil {
		return fmt.Errorf("delete certificate from keychain: %w", runErr)
	}
	return nil
}

func (store *keychainStore) Close() error {
	store.closed = true
	return nil
}
