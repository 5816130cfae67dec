package app

import (
	"context"
	"errors"
	"strings"

	"github.com/knowater521/keyman/internal/certstore"
	"github.com/knowater521/keyman/pkg/logging"
)

// Process exit codes. The table is part of the tool's contract with
// provisioning scripts and keeps the historical code assignments, including
// code 2 doubling as "find missed" and "add could not read the file".
const (
	exitCodeSuccess             = 0
	exitCodeStoreOpenFailure    = 1
	exitCodeMissingTarget       = 2
	exitCodeParseFailure        = 3
	exitCodeStoreAddFailure     = 4
	exitCodeStoreDeleteFailure  = 5
	exitCodeDeleteTargetMissing = 6
	exitCodeBadInvocation       = 99
)

// Action selects which store operation to run.
type Action int

const (
	ActionFind Action = iota
	ActionAdd
	ActionDelete
)

func (action Action) String() string {
	switch action {
	case ActionFind:
		return "find"
	case ActionAdd:
		return "add"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// resolveAction matches the requested action by literal prefix, preserving
// the historical tolerance for trailing characters ("added" selects add).
func resolveAction(rawAction string) (Action, bool) {
	switch {
	case strings.HasPrefix(rawAction, "find"):
		return ActionFind, true
	case strings.HasPrefix(rawAction, "add"):
		return ActionAdd, true
	case strings.HasPrefix(rawAction, "delete"):
		return ActionDelete, true
	default:
		return 0, false
	}
}

const (
	logMessageOpenStoreFailed     = "open certificate store failed"
	logMessageCloseStoreFailed    = "close certificate store failed"
	logMessageCertificateFound    = "certificate found"
	logMessageCertificateMissing  = "no matching certificate in store"
	logMessageFindFailed          = "find certificate failed"
	logMessageCertificateAdded    = "certificate added"
	logMessageReadFileFailed      = "read certificate file failed"
	logMessageParseFailed         = "parse certificate failed"
	logMessageAddFailed           = "add certificate to store failed"
	logMessageCertificateDeleted  = "certificate deleted"
	logMessageDeleteTargetMissing = "no matching certificate to delete"
	logMessageDeleteFailed        = "delete certificate from store failed"

	logFieldSubject = "subject"
	logFieldOperand = "operand"
	logFieldPath    = "path"
)

type dispatcher struct {
	provider       certstore.Provider
	fileSystem     certstore.FileSystem
	loggingService *logging.Service
}

func newDispatcher(provider certstore.Provider, fileSystem certstore.FileSystem, loggingService *logging.Service) dispatcher {
	return dispatcher{
		provider:       provider,
		fileSystem:     fileSystem,
		loggingService: loggingService,
	}
}

// Run opens the named store, performs the single selected operation, and
// closes the store before returning the process exit code. Lookups open the
// store read-only; add and delete open it writable.
func (operationDispatcher dispatcher) Run(ctx context.Context, action Action, storeName string, operand string) int {
	writable := action != ActionFind
	store, openErr := operationDispatcher.provider.Open(ctx, storeName, writable)
	if openErr != nil {
		operationDispatcher.loggingService.Error(logMessageOpenStoreFailed, openErr, logging.String(logFieldStoreName, storeName))
		return exitCodeStoreOpenFailure
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			operationDispatcher.loggingService.Error(logMessageCloseStoreFailed, closeErr, logging.String(logFieldStoreName, storeName))
		}
	}()

	switch action {
	case ActionFind:
		return operationDispatcher.runFind(ctx, store, storeName, operand)
	case ActionAdd:
		return operationDispatcher.runAdd(ctx, store, storeName, operand)
	case ActionDelete:
		return operationDispatcher.runDelete(ctx, store, storeName, operand)
	default:
		return exitCodeBadInvocation
	}
}

func (operationDispatcher dispatcher) runFind(ctx context.Context, store certstore.Store, storeName string, subjectSubstring string) int {
	locator := certstore.NewCertificateLocator()
	subjectName, findErr := locator.CheckPresence(ctx, store, subjectSubstring)
	if findErr != nil {
		if errors.Is(findErr, certstore.ErrCertificateNotFound) {
			operationDispatcher.loggingService.Error(logMessageCertificateMissing, nil, logging.String(logFieldStoreName, storeName), logging.String(logFieldOperand, subjectSubstring))
		} else {
			operationDispatcher.loggingService.Error(logMessageFindFailed, findErr, logging.String(logFieldStoreName, storeName), logging.String(logFieldOperand, subjectSubstring))
		}
		return exitCodeMissingTarget
	}
	operationDispatcher.loggingService.Info(logMessageCertificateFound, logging.String(logFieldStoreName, storeName), logging.String(logFieldSubject, subjectName))
	return exitCodeSuccess
}

func (operationDispatcher dispatcher) runAdd(ctx context.Context, store certstore.Store, storeName string, certificateFilePath string) int {
	importer := certstore.NewCertificateImporter(operationDispatcher.fileSystem)
	subjectName, importErr := importer.ImportFromFile(ctx, store, certificateFilePath)
	if importErr != nil {
		var readError *certstore.FileReadError
		if errors.As(importErr, &readError) {
			operationDispatcher.loggingService.Error(logMessageReadFileFailed, importErr, logging.String(logFieldPath, certificateFilePath))
			return exitCodeMissingTarget
		}
		var parseError *certstore.ParseError
		if errors.As(importErr, &parseError) {
			operationDispatcher.loggingService.Error(logMessageParseFailed, importErr, logging.String(logFieldPath, certificateFilePath))
			return exitCodeParseFailure
		}
		operationDispatcher.loggingService.Error(logMessageAddFailed, importErr, logging.String(logFieldStoreName, storeName), logging.String(logFieldPath, certificateFilePath))
		return exitCodeStoreAddFailure
	}
	operationDispatcher.loggingService.Info(logMessageCertificateAdded, logging.String(logFieldStoreName, storeName), logging.String(logFieldSubject, subjectName))
	return exitCodeSuccess
}

func (operationDispatcher dispatcher) runDelete(ctx context.Context, store certstore.Store, storeName string, subjectSubstring string) int {
	remover := certstore.NewCertificateRemover(certstore.NewCertificateLocator())
	subjectName, deleteErr := remover.DeleteBySubject(ctx, store, subjectSubstring)
	if deleteErr != nil {
		if errors.Is(deleteErr, certstore.ErrCertificateNotFound) {
			operationDispatcher.loggingService.Error(logMessageDeleteTargetMissing, nil, logging.String(logFieldStoreName, storeName), logging.String(logFieldOperand, subjectSubstring))
			return exitCodeDeleteTargetMissing
		}
		operationDispatcher.loggingService.Error(logMessageDeleteFailed, deleteErr, logging.String(logFieldStoreName, storeName), logging.String(logFieldOperand, subjectSubstring))
		return exitCodeStoreDeleteFailure
	}
	operationDispatcher.loggingService.Info(logMessageCertificateDeleted, logging.String(logFieldStoreName, storeName), logging.String(logFieldSubject, subjectName))
	return exitCodeSuccess
}
