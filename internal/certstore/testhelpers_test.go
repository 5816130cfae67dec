package certstore

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"
)

func generateCertificateDER(t *testing.T, commonName string) []byte {
	t.Helper()
	privateKey, keyErr := rsa.GenerateKey(rand.Reader, 2048)
	if keyErr != nil {
		t.Fatalf("generate private key: %v", keyErr)
	}
	template := x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject: pkix.Name{
			CommonName:   commonName,
			Organization: []string{"keyman test"},
		},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	encodedBytes, createErr := x509.CreateCertificate(rand.Reader, &template, &template, &privateKey.PublicKey, privateKey)
	if createErr != nil {
		t.Fatalf("create certificate: %v", createErr)
	}
	return encodedBytes
}

type executedCommand struct {
	executable string
	arguments  []string
}

type recordingCommandRunner struct {
	executed      []executedCommand
	runErrors     []error
	outputContent []byte
	outputErr     error
}

func newRecordingCommandRunner(runErrors []error) *recordingCommandRunner {
	return &recordingCommandRunner{executed: []executedCommand{}, runErrors: runErrors}
}

func (runner *recordingCommandRunner) Run(ctx context.Context, executable string, arguments []string) error {
	runner.executed = append(runner.executed, executedCommand{executable: executable, arguments: append([]string{}, arguments...)})
	if len(runner.runErrors) == 0 {
		return nil
	}
	nextError := runner.runErrors[0]
	runner.runErrors = runner.runErrors[1:]
	return nextError
}

func (runner *recordingCommandRunner) Output(ctx context.Context, executable string, arguments []string) ([]byte, error) {
	runner.executed = append(runner.executed, executedCommand{executable: executable, arguments: append([]string{}, arguments...)})
	return runner.outputContent, runner.outputErr
}
