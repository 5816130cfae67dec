package certstore

import (
	"context"
	"errors"
)

var errEmptyCertificateFile = errors.New("certificate file is empty")

// CertificateLocator finds certificates in an open store by subject name.
type CertificateLocator struct{}

// NewCertificateLocator constructs a CertificateLocator.
func NewCertificateLocator() CertificateLocator {
	return CertificateLocator{}
}

// Locate returns the first certificate whose subject name contains
// subjectSubstring. The caller owns the returned context and must release
// it. Absence is reported as ErrCertificateNotFound.
func (locator CertificateLocator) Locate(ctx context.Context, store Store, subjectSubstring string) (*CertificateContext, error) {
	return store.Find(ctx, subjectSubstring)
}

// CheckPresence reports whether a matching certificate exists, releasing any
// located context before returning. On success it returns the matched
// subject name.
func (locator CertificateLocator) CheckPresence(ctx context.Context, store Store, subjectSubstring string) (string, error) {
	certificateContext, findErr := locator.Locate(ctx, store, subjectSubstring)
	if findErr != nil {
		return "", findErr
	}
	subjectName := certificateContext.SubjectName()
	releaseErr := certificateContext.Release()
	if releaseErr != nil {
		return "", releaseErr
	}
	return subjectName, nil
}

// CertificateImporter parses DER certificate files and adds them to a store.
type CertificateImporter struct {
	fileSystem FileSystem
}

// NewCertificateImporter constructs a CertificateImporter.
func NewCertificateImporter(fileSystem FileSystem) CertificateImporter {
	return CertificateImporter{fileSystem: fileSystem}
}

// ImportFromFile reads a DER-encoded certificate file and adds it to the
// store with replace-existing semantics. On success it returns the imported
// subject name. Failures are reported as *FileReadError, *ParseError, or
// *StoreWriteError.
func (importer CertificateImporter) ImportFromFile(ctx context.Context, store Store, path string) (string, error) {
	content, readErr := importer.fileSystem.ReadFile(path)
	if readErr != nil {
		return "", &FileReadError{Path: path, Err: readErr}
	}
	if len(content) == 0 {
		return "", &FileReadError{Path: path, Err: errEmptyCertificateFile}
	}

	certificateContext, parseErr := NewCertificateContext(content)
	if parseErr != nil {
		return "", parseErr
	}
	defer func() {
		_ = certificateContext.Release()
	}()

	addErr := store.Add(ctx, certificateContext)
	if addErr != nil {
		return "", &StoreWriteError{Operation: "add", Err: addErr}
	}
	return certificateContext.SubjectName(), nil
}

// CertificateRemover locates and deletes certificates from a store.
type CertificateRemover struct {
	locator CertificateLocator
}

// NewCertificateRemover constructs a CertificateRemover.
func NewCertificateRemover(locator CertificateLocator) CertificateRemover {
	return CertificateRemover{locator: locator}
}

// DeleteBySubject removes the first certificate whose subject name contains
// subjectSubstring. Absence is reported as ErrCertificateNotFound; a failed
// delete of a located entry is a *StoreWriteError. On success it returns the
// deleted subject name. The located context is released on every path; once
// its backing entry is deleted the context is not reused.
func (remover CertificateRemover) DeleteBySubject(ctx context.Context, store Store, subjectSubstring string) (string, error) {
	certificateContext, findErr := remover.locator.Locate(ctx, store, subjectSubstring)
	if findErr != nil {
		return "", findErr
	}
	defer func() {
		_ = certificateContext.Release()
	}()

	subjectName := certificateContext.SubjectName()
	deleteErr := store.Delete(ctx, certificateContext)
	if deleteErr != nil {
		return "", &StoreWriteError{Operation: "delete", Err: deleteErr}
	}
	return subjectName, nil
}
