package app

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/knowater521/keyman/internal/certstore"
	"github.com/knowater521/keyman/pkg/logging"
)

func generateCertificateFile(t *testing.T, commonName string) string {
	t.Helper()
	privateKey, keyErr := rsa.GenerateKey(rand.Reader, 2048)
	if keyErr != nil {
		t.Fatalf("generate private key: %v", keyErr)
	}
	template := x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: commonName},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	encodedBytes, createErr := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if createErr != nil {
		t.Fatalf("create certificate: %v", createErr)
	}
	certificatePath := filepath.Join(t.TempDir(), "certificate.der")
	if writeErr := os.WriteFile(certificatePath, encodedBytes, 0o644); writeErr != nil {
		t.Fatalf("write certificate file: %v", writeErr)
	}
	return certificatePath
}

func newTestDispatcher(t *testing.T, rootDirectory string) dispatcher {
	t.Helper()
	fileSystem := certstore.NewOperatingSystemFileSystem()
	provider := certstore.NewDirectoryProvider(fileSystem, certstore.NewExecutableRunner(), rootDirectory, "")
	return newDispatcher(provider, fileSystem, logging.NewTestService(logging.TypeConsole))
}

func TestResolveActionPrefixMatching(t *testing.T) {
	testCases := []struct {
		testName       string
		rawAction      string
		expectedAction Action
		expectMatch    bool
	}{
		{testName: "Find", rawAction: "find", expectedAction: ActionFind, expectMatch: true},
		{testName: "FindWithTrailingCharacters", rawAction: "findings", expectedAction: ActionFind, expectMatch: true},
		{testName: "Add", rawAction: "add", expectedAction: ActionAdd, expectMatch: true},
		{testName: "AddWithTrailingCharacters", rawAction: "added", expectedAction: ActionAdd, expectMatch: true},
		{testName: "Delete", rawAction: "delete", expectedAction: ActionDelete, expectMatch: true},
		{testName: "DeleteWithTrailingCharacters", rawAction: "deleted", expectedAction: ActionDelete, expectMatch: true},
		{testName: "CaseSensitive", rawAction: "Find", expectMatch: false},
		{testName: "TruncatedAction", rawAction: "fin", expectMatch: false},
		{testName: "UnknownAction", rawAction: "install", expectMatch: false},
		{testName: "Empty", rawAction: "", expectMatch: false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.testName, func(testingT *testing.T) {
			action, matched := resolveAction(testCase.rawAction)
			if matched != testCase.expectMatch {
				testingT.Fatalf("resolveAction(%q) matched=%v, expected %v", testCase.rawAction, matched, testCase.expectMatch)
			}
			if matched && action != testCase.expectedAction {
				testingT.Fatalf("resolveAction(%q) = %v, expected %v", testCase.rawAction, action, testCase.expectedAction)
			}
		})
	}
}

func TestDispatcherLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	rootDirectory := t.TempDir()
	operationDispatcher := newTestDispatcher(t, rootDirectory)
	certificatePath := generateCertificateFile(t, "Example")

	if code := operationDispatcher.Run(ctx, ActionAdd, "ROOT", certificatePath); code != exitCodeSuccess {
		t.Fatalf("add: expected exit %d, got %d", exitCodeSuccess, code)
	}
	if code := operationDispatcher.Run(ctx, ActionFind, "ROOT", "Example"); code != exitCodeSuccess {
		t.Fatalf("find after add: expected exit %d, got %d", exitCodeSuccess, code)
	}
	if code := operationDispatcher.Run(ctx, ActionDelete, "ROOT", "Example"); code != exitCodeSuccess {
		t.Fatalf("delete: expected exit %d, got %d", exitCodeSuccess, code)
	}
	if code := operationDispatcher.Run(ctx, ActionFind, "ROOT", "Example"); code != exitCodeMissingTarget {
		t.Fatalf("find after delete: expected exit %d, got %d", exitCodeMissingTarget, code)
	}
}

func TestDispatcherExitCodes(t *testing.T) {
	garbagePath := filepath.Join(t.TempDir(), "garbage.der")
	if writeErr := os.WriteFile(garbagePath, []byte("not a DER certificate"), 0o644); writeErr != nil {
		t.Fatalf("write garbage file: %v", writeErr)
	}

	testCases := []struct {
		testName     string
		action       Action
		storeName    string
		operand      string
		prepare      func(testingT *testing.T, rootDirectory string)
		expectedCode int
	}{
		{
			testName:     "FindOnUnknownStoreFailsOpen",
			action:       ActionFind,
			storeName:    "ROOT",
			operand:      "anything",
			expectedCode: exitCodeStoreOpenFailure,
		},
		{
			testName:  "FindMissReturnsTwo",
			action:    ActionFind,
			storeName: "ROOT",
			operand:   "Absent Subject",
			prepare: func(testingT *testing.T, rootDirectory string) {
				if mkdirErr := os.MkdirAll(filepath.Join(rootDirectory, "root"), 0o755); mkdirErr != nil {
					testingT.Fatalf("prepare store directory: %v", mkdirErr)
				}
			},
			expectedCode: exitCodeMissingTarget,
		},
		{
			testName:     "AddMissingFileReturnsTwo",
			action:       ActionAdd,
			storeName:    "ROOT",
			operand:      filepath.Join(os.TempDir(), "definitely-missing.der"),
			expectedCode: exitCodeMissingTarget,
		},
		{
			testName:     "AddGarbageReturnsThree",
			action:       ActionAdd,
			storeName:    "ROOT",
			operand:      garbagePath,
			expectedCode: exitCodeParseFailure,
		},
		{
			testName:     "DeleteMissReturnsSix",
			action:       ActionDelete,
			storeName:    "ROOT",
			operand:      "Absent Subject",
			expectedCode: exitCodeDeleteTargetMissing,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.testName, func(testingT *testing.T) {
			rootDirectory := testingT.TempDir()
			if testCase.prepare != nil {
				testCase.prepare(testingT, rootDirectory)
			}
			operationDispatcher := newTestDispatcher(testingT, rootDirectory)
			code := operationDispatcher.Run(context.Background(), testCase.action, testCase.storeName, testCase.operand)
			if code != testCase.expectedCode {
				testingT.Fatalf("expected exit %d, got %d", testCase.expectedCode, code)
			}
		})
	}
}

func TestDispatcherAddReplacesDuplicates(t *testing.T) {
	ctx := context.Background()
	rootDirectory := t.TempDir()
	operationDispatcher := newTestDispatcher(t, rootDirectory)
	certificatePath := generateCertificateFile(t, "Duplicate Subject")

	for attempt := 0; attempt < 2; attempt++ {
		if code := operationDispatcher.Run(ctx, ActionAdd, "ROOT", certificatePath); code != exitCodeSuccess {
			t.Fatalf("add attempt %d: expected exit %d, got %d", attempt, exitCodeSuccess, code)
		}
	}

	entries, readErr := os.ReadDir(filepath.Join(rootDirectory, "root"))
	if readErr != nil {
		t.Fatalf("read store directory: %v", readErr)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry after duplicate add, got %d", len(entries))
	}
}
