package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/knowater521/keyman/internal/certstore"
	"github.com/knowater521/keyman/pkg/logging"
)

const (
	defaultApplicationName = "certimporter"

	flagNameConfigFile    = "config"
	flagNameLoggingType   = "logging-type"
	flagNameStoreScope    = "store-scope"
	flagNameStoreRoot     = "store-root"
	flagNameKeychainPath  = "keychain"
	flagNameRehashCommand = "rehash-command"

	configKeyLoggingType        = "logging_type"
	configKeyStoreScope         = "store.scope"
	configKeyLinuxRootDirectory = "store.linux_root_directory"
	configKeyLinuxRehashCommand = "store.linux_rehash_command"
	configKeyMacOSKeychainPath  = "store.macos_keychain_path"

	defaultLinuxRehashCommand = "trust"

	logMessageFailedInitializeLogger = "failed to initialize logger"
	logMessageInvalidInvocation      = "invalid invocation"
)

type applicationResources struct {
	configurationManager *viper.Viper
	loggingService       *logging.Service
}

func (resources *applicationResources) updateLogger(loggingType string) error {
	normalizedType, err := logging.NormalizeType(loggingType)
	if err != nil {
		return err
	}
	if resources.loggingService != nil && resources.loggingService.Type() == normalizedType {
		return nil
	}
	service, err := logging.NewService(normalizedType)
	if err != nil {
		return err
	}
	if resources.loggingService != nil {
		_ = resources.loggingService.Sync()
	}
	resources.loggingService = service
	return nil
}

// exitStatusError carries the process exit code selected for a completed but
// unsuccessful operation through cobra's error return path.
type exitStatusError struct {
	code int
}

func (statusError *exitStatusError) Error() string {
	return fmt.Sprintf("exit status %d", statusError.code)
}

func newExitStatusError(code int) *exitStatusError {
	return &exitStatusError{code: code}
}

// Execute runs the CLI using the provided context and arguments, returning
// the process exit code.
func Execute(ctx context.Context, arguments []string) int {
	initialService, err := logging.NewService(logging.TypeConsole)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", logMessageFailedInitializeLogger, err)
		return exitCodeBadInvocation
	}

	configurationManager := viper.New()
	configurationManager.SetEnvPrefix(strings.ToUpper(defaultApplicationName))
	configurationManager.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	configurationManager.AutomaticEnv()
	configurationManager.SetDefault(configKeyLoggingType, logging.TypeConsole)
	configurationManager.SetDefault(configKeyStoreScope, string(certstore.ScopeMachine))
	configurationManager.SetDefault(configKeyLinuxRootDirectory, "")
	configurationManager.SetDefault(configKeyLinuxRehashCommand, defaultLinuxRehashCommand)
	configurationManager.SetDefault(configKeyMacOSKeychainPath, "")

	resources := &applicationResources{
		configurationManager: configurationManager,
		loggingService:       initialService,
	}
	defer func() {
		if resources.loggingService != nil {
			_ = resources.loggingService.Sync()
		}
	}()

	rootCommand := newRootCommand(resources)
	rootCommand.SetContext(ctx)
	rootCommand.SetArgs(arguments)
	rootCommand.SetOut(os.Stdout)
	rootCommand.SetErr(os.Stderr)

	if executionErr := rootCommand.Execute(); executionErr != nil {
		var statusErr *exitStatusError
		if errors.As(executionErr, &statusErr) {
			return statusErr.code
		}
		resources.loggingService.Error(logMessageInvalidInvocation, executionErr)
		return exitCodeBadInvocation
	}
	return exitCodeSuccess
}

func loadConfigurationFile(resources *applicationResources, configFilePath string) error {
	if configFilePath == "" {
		return nil
	}
	resources.configurationManager.SetConfigFile(configFilePath)
	if readErr := resources.configurationManager.ReadInConfig(); readErr != nil {
		return fmt.Errorf("read configuration file: %w", readErr)
	}
	return nil
}

func storeConfiguration(resources *applicationResources) (certstore.Configuration, error) {
	scope, scopeErr := certstore.ParseScope(resources.configurationManager.GetString(configKeyStoreScope))
	if scopeErr != nil {
		return certstore.Configuration{}, scopeErr
	}
	return certstore.Configuration{
		Scope:                 scope,
		LinuxRootDirectory:    resources.configurationManager.GetString(configKeyLinuxRootDirectory),
		LinuxRehashExecutable: resources.configurationManager.GetString(configKeyLinuxRehashCommand),
		MacOSKeychainPath:     resources.configurationManager.GetString(configKeyMacOSKeychainPath),
	}, nil
}
