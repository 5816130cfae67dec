package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/knowater521/keyman/internal/certstore"
	"github.com/knowater521/keyman/pkg/logging"
)

const (
	logMessageNotEnoughArguments = "not enough arguments"
	logMessageInvalidAction      = "invalid action"
	logMessageOpenProviderFailed = "initialize certificate store provider failed"

	logFieldAction    = "action"
	logFieldStoreName = "store"
)

func newRootCommand(resources *applicationResources) *cobra.Command {
	rootCommand := &cobra.Command{
		Use:           defaultApplicationName + " <action> <storeName> <operand>",
		Short:         "Manage certificates in the system trust store",
		Long:          "Test for, import, or delete X.509 certificates in a named system trust store.\nActions: find <store> <subject>, add <store> <derFile>, delete <store> <subject>.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configFilePath, _ := cmd.Flags().GetString(flagNameConfigFile)
			if configErr := loadConfigurationFile(resources, configFilePath); configErr != nil {
				return configErr
			}
			return resources.updateLogger(resources.configurationManager.GetString(configKeyLoggingType))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, resources, args)
		},
	}

	rootCommand.PersistentFlags().String(flagNameConfigFile, "", "Path to configuration file")

	operationFlags := pflag.NewFlagSet("operation", pflag.ContinueOnError)
	configureOperationFlags(operationFlags, resources.configurationManager)
	rootCommand.Flags().AddFlagSet(operationFlags)
	bindOperationFlags(operationFlags, resources.configurationManager)

	return rootCommand
}

func configureOperationFlags(flagSet *pflag.FlagSet, configurationManager *viper.Viper) {
	flagSet.String(flagNameLoggingType, configurationManager.GetString(configKeyLoggingType), "Logging type (CONSOLE or JSON)")
	flagSet.String(flagNameStoreScope, configurationManager.GetString(configKeyStoreScope), "Store scope (machine or user)")
	flagSet.String(flagNameStoreRoot, configurationManager.GetString(configKeyLinuxRootDirectory), "Base directory for directory-backed stores (Linux)")
	flagSet.String(flagNameRehashCommand, configurationManager.GetString(configKeyLinuxRehashCommand), "Trust database command invoked after store mutations (Linux)")
	flagSet.String(flagNameKeychainPath, configurationManager.GetString(configKeyMacOSKeychainPath), "Keychain path (macOS)")
}

func bindOperationFlags(flagSet *pflag.FlagSet, configurationManager *viper.Viper) {
	_ = configurationManager.BindPFlag(configKeyLoggingType, flagSet.Lookup(flagNameLoggingType))
	_ = configurationManager.BindPFlag(configKeyStoreScope, flagSet.Lookup(flagNameStoreScope))
	_ = configurationManager.BindPFlag(configKeyLinuxRootDirectory, flagSet.Lookup(flagNameStoreRoot))
	_ = configurationManager.BindPFlag(configKeyLinuxRehashCommand, flagSet.Lookup(flagNameRehashCommand))
	_ = configurationManager.BindPFlag(configKeyMacOSKeychainPath, flagSet.Lookup(flagNameKeychainPath))
}

func runOperation(cmd *cobra.Command, resources *applicationResources, arguments []string) error {
	if len(arguments) < 3 {
		resources.loggingService.Error(logMessageNotEnoughArguments, nil, logging.Int("arguments", len(arguments)))
		return newExitStatusError(exitCodeBadInvocation)
	}
	action, recognized := resolveAction(arguments[0])
	if !recognized {
		resources.loggingService.Error(logMessageInvalidAction, nil, logging.String(logFieldAction, arguments[0]))
		return newExitStatusError(exitCodeBadInvocation)
	}
	storeName := arguments[1]
	operand := arguments[2]

	configuration, configurationErr := storeConfiguration(resources)
	if configurationErr != nil {
		resources.loggingService.Error(logMessageInvalidInvocation, configurationErr)
		return newExitStatusError(exitCodeBadInvocation)
	}
	fileSystem := certstore.NewOperatingSystemFileSystem()
	provider, providerErr := certstore.NewSystemProvider(certstore.NewExecutableRunner(), fileSystem, configuration)
	if providerErr != nil {
		resources.loggingService.Error(logMessageOpenProviderFailed, providerErr)
		return newExitStatusError(exitCodeStoreOpenFailure)
	}

	operationDispatcher := newDispatcher(provider, fileSystem, resources.loggingService)
	exitCode := operationDispatcher.Run(cmd.Context(), action, storeName, operand)
	if exitCode != exitCodeSuccess {
		return newExitStatusError(exitCode)
	}
	return nil
}
