package certstore

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	certificateFileExtension   = ".der"
	storeDirectoryPermissions  = 0o755
	certificateFilePermissions = 0o644
)

var errStoreReadOnly = errors.New("store is opened read-only")
var errStoreClosed = errors.New("store is closed")

// DirectoryProvider serves named certificate stores backed by directories of
// DER files under a common root. Each store name maps to one subdirectory;
// each certificate is one file named by its SHA-256 fingerprint, which makes
// adds naturally replace existing entries.
type DirectoryProvider struct {
	fileSystem        FileSystem
	commandRunner     CommandRunner
	rootDirectoryPath string
	rehashExecutable  string
}

// NewDirectoryProvider constructs a DirectoryProvider. When rehashExecutable
// is not empty, it is invoked as "<rehashExecutable> anchor <path>" after
// each add and "<rehashExecutable> anchor --remove <path>" after each
// delete, so the platform trust database tracks the directory contents.
func NewDirectoryProvider(fileSystem FileSystem, commandRunner CommandRunner, rootDirectoryPath string, rehashExecutable string) DirectoryProvider {
	return DirectoryProvider{
		fileSystem:        fileSystem,
		commandRunner:     commandRunner,
		rootDirectoryPath: rootDirectoryPath,
		rehashExecutable:  rehashExecutable,
	}
}

// Open opens the named store. A read-only open of an unknown store name
// fails; a writable open creates the store directory when missing.
func (provider DirectoryProvider) Open(ctx context.Context, storeName string, writable bool) (Store, error) {
	if strings.TrimSpace(storeName) == "" {
		return nil, &StoreOpenError{StoreName: storeName, Err: errors.New("store name is required")}
	}
	directoryPath := filepath.Join(provider.rootDirectoryPath, strings.ToLower(storeName))
	exists, existsErr := provider.fileSystem.DirectoryExists(directoryPath)
	if existsErr != nil {
		return nil, &StoreOpenError{StoreName: storeName, Err: existsErr}
	}
	if !exists {
		if !writable {
			return nil, &StoreOpenError{StoreName: storeName, Err: fmt.Errorf("unknown store directory %s", directoryPath)}
		}
		if ensureErr := provider.fileSystem.EnsureDirectory(directoryPath, storeDirectoryPermissions); ensureErr != nil {
			return nil, &StoreOpenError{StoreName: storeName, Err: ensureErr}
		}
	}
	return &directoryStore{
		fileSystem:       provider.fileSystem,
		commandRunner:    provider.commandRunner,
		directoryPath:    directoryPath,
		rehashExecutable: provider.rehashExecutable,
		writable:         writable,
	}, nil
}

type directoryStore struct {
	fileSystem       FileSystem
	commandRunner    CommandRunner
	directoryPath    string
	rehashExecutable string
	writable         bool
	closed           bool
}

func (store *directoryStore) Find(ctx context.Context, subjectSubstring string) (*CertificateContext, error) {
	if store.closed {
		return nil, errStoreClosed
	}
	names, listErr := store.fileSystem.ListFiles(store.directoryPath)
	if listErr != nil {
		return nil, fmt.Errorf("list store directory: %w", listErr)
	}
	for _, name := range names {
		if !strings.HasSuffix(name, certificateFileExtension) {
			continue
		}
		entryPath := filepath.Join(store.directoryPath, name)
		content, readErr := store.fileSystem.ReadFile(entryPath)
		if readErr != nil {
			return nil, fmt.Errorf("read store entry %s: %w", entryPath, readErr)
		}
		certificate, parseErr := x509.ParseCertificate(content)
		if parseErr != nil {
			// Foreign or damaged files do not abort the search.
			continue
		}
		if matchesSubjectName(certificate, subjectSubstring) {
			return newStoreCertificateContext(content, certificate, entryPath, nil), nil
		}
	}
	return nil, ErrCertificateNotFound
}

func (store *directoryStore) Add(ctx context.Context, certificate *CertificateContext) error {
	if store.closed {
		return errStoreClosed
	}
	if !store.writable {
		return errStoreReadOnly
	}
	if certificate.Released() {
		return ErrContextReleased
	}
	entryPath := store.entryPath(certificate)
	if writeErr := store.fileSystem.WriteFile(entryPath, certificate.EncodedBytes, certificateFilePermissions); writeErr != nil {
		return fmt.Errorf("write store entry: %w", writeErr)
	}
	if store.rehashExecutable != "" {
		if rehashErr := store.commandRunner.Run(ctx, store.rehashExecutable, []string{"anchor", entryPath}); rehashErr != nil {
			return fmt.Errorf("anchor store entry: %w", rehashErr)
		}
	}
	return nil
}

func (store *directoryStore) Delete(ctx context.Context, certificate *CertificateContext) error {
	if store.closed {
		return errStoreClosed
	}
	if !store.writable {
		return errStoreReadOnly
	}
	if certificate.Released() {
		return ErrContextReleased
	}
	// Contexts returned by Find reference the entry file they were read
	// from, which may carry a legacy or foreign name.
	entryPath, hasReference := certificate.storeReference.(string)
	if !hasReference {
		entryPath = store.entryPath(certificate)
	}
	exists, existsErr := store.fileSystem.FileExists(entryPath)
	if existsErr != nil {
		return fmt.Errorf("check store entry: %w", existsErr)
	}
	if !exists {
		return fmt.Errorf("store entry %s does not exist", entryPath)
	}
	// The rehash command reads the entry file, so it runs while the file
	// still exists. A failed removal re-anchors the entry to keep the
	// directory and the trust database consistent.
	if store.rehashExecutable != "" {
		if rehashErr := store.commandRunner.Run(ctx, store.rehashExecutable, []string{"anchor", "--remove", entryPath}); rehashErr != nil {
			return fmt.Errorf("remove store entry anchor: %w", rehashErr)
		}
	}
	if removeErr := store.fileSystem.Remove(entryPath); removeErr != nil {
		if store.rehashExecutable != "" {
			_ = store.commandRunner.Run(ctx, store.rehashExecutable, []string{"anchor", entryPath})
		}
		return fmt.Errorf("remove store entry: %w", removeErr)
	}
	return nil
}

func (store *directoryStore) Close() error {
	store.closed = true
	return nil
}

func (store *directoryStore) entryPath(certificate *CertificateContext) string {
	return filepath.Join(store.directoryPath, certificate.Fingerprint()+certificateFileExtension)
}
