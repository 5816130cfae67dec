package certstore

import (
	"errors"
	"fmt"
)

// ErrCertificateNotFound reports that no certificate in the store matched the
// requested subject. It is a negative result, not a system failure.
var ErrCertificateNotFound = errors.New("no matching certificate found")

// ErrContextReleased reports a second release or a use after release of a
// certificate context.
var ErrContextReleased = errors.New("certificate context already released")

// StoreOpenError reports that a named system store could not be opened.
type StoreOpenError struct {
	StoreName string
	Err       error
}

func (openError *StoreOpenError) Error() string {
	return fmt.Sprintf("open certificate store %s: %v", openError.StoreName, openError.Err)
}

func (openError *StoreOpenError) Unwrap() error {
	return openError.Err
}

// FileReadError reports that a certificate file could not be opened or read.
type FileReadError struct {
	Path string
	Err  error
}

func (readError *FileReadError) Error() string {
	return fmt.Sprintf("read certificate file %s: %v", readError.Path, readError.Err)
}

func (readError *FileReadError) Unwrap() error {
	return readError.Err
}

// ParseError reports that a byte buffer is not a well-formed DER-encoded
// X.509 certificate.
type ParseError struct {
	Err error
}

func (parseError *ParseError) Error() string {
	return fmt.Sprintf("parse DER certificate: %v", parseError.Err)
}

func (parseError *ParseError) Unwrap() error {
	return parseError.Err
}

// StoreWriteError reports a failed store mutation. Operation is "add" or
// "delete".
type StoreWriteError struct {
	Operation string
	Err       error
}

func (writeError *StoreWriteError) Error() string {
	return fmt.Sprintf("%s certificate in store: %v", writeError.Operation, writeError.Err)
}

func (writeError *StoreWriteError) Unwrap() error {
	return writeError.Err
}
