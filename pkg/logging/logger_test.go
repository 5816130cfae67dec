package logging_test

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/knowater521/keyman/pkg/logging"
)

func TestNormalizeTypeHandlesVariants(t *testing.T) {
	testCases := []struct {
		testName     string
		rawValue     string
		expectedType string
		expectErr    bool
	}{
		{testName: "EmptyValueDefaultsToConsole", rawValue: "", expectedType: logging.TypeConsole},
		{testName: "LowercaseJSON", rawValue: "json", expectedType: logging.TypeJSON},
		{testName: "PaddedConsole", rawValue: "  console  ", expectedType: logging.TypeConsole},
		{testName: "UnknownValue", rawValue: "XML", expectErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.testName, func(testingT *testing.T) {
			normalized, err := logging.NormalizeType(testCase.rawValue)
			if testCase.expectErr {
				if err == nil {
					testingT.Fatalf("expected error for %q", testCase.rawValue)
				}
				return
			}
			if err != nil {
				testingT.Fatalf("unexpected error: %v", err)
			}
			if normalized != testCase.expectedType {
				testingT.Fatalf("expected %s, got %s", testCase.expectedType, normalized)
			}
		})
	}
}

func TestConsoleServiceFormatsFieldsIntoMessage(t *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.InfoLevel)
	service := logging.NewServiceWithLogger(logging.TypeConsole, zap.New(observedCore))

	service.Info("certificate found", logging.String("store", "ROOT"), logging.Int("entries", 1))

	entries := observedLogs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	expectedMessage := "certificate found store=\"ROOT\" entries=1"
	if entries[0].Message != expectedMessage {
		t.Fatalf("expected message %q, got %q", expectedMessage, entries[0].Message)
	}
}

func TestJSONServiceEmitsStructuredFields(t *testing.T) {
	observedCore, observedLogs := observer.New(zapcore.InfoLevel)
	service := logging.NewServiceWithLogger(logging.TypeJSON, zap.New(observedCore))

	service.Error("open certificate store failed", errors.New("access denied"), logging.String("store", "ROOT"))

	entries := observedLogs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %s", entry.Level)
	}
	fieldsByKey := entry.ContextMap()
	if fieldsByKey["store"] != "ROOT" {
		t.Fatalf("expected store field ROOT, got %v", fieldsByKey["store"])
	}
	if fieldsByKey["error"] != "access denied" {
		t.Fatalf("expected error field, got %v", fieldsByKey["error"])
	}
}
