package cmd

import (
	"context"
	"fmt"

	"github.com/corpeningc/kpatch/internal/config"
	"github.com/corpeningc/kpatch/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile   string
	targetDir string

	cfg    *config.Config
	logger *zap.Logger
	// loggedWith is the logging config logger was built from.
	loggedWith config.LoggingConfig
)

var rootCmd = &cobra.Command{
	Use:   "kpatch",
	Short: "Apply patch sets to a source tree and resolve their conflicts",
	Long: `kpatch applies an ordered set of patches to a source tree. When a patch
does not apply cleanly it finds the conflict markers left behind and walks
you through resolving each one.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func Execute(ctx context.Context) error {
	defer func() {
		if logger != nil {
			_ = logger.Sync()
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.config/kpatch/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&targetDir, "target", "t", "", "source tree to work on (prompted from the kernels directory if empty)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(shellCmd)
}

// setup loads configuration before every command, including each one run
// from the shell, so flags bound to config keys always apply. The logger is
// only rebuilt when its settings change.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.Init(cfgFile); err != nil {
		return err
	}
	loaded, err := config.Load()
	if err != nil {
		return err
	}

	if logger == nil || loaded.Logging != loggedWith {
		l, err := logging.New(loaded.Logging.Level, loaded.Logging.File)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		if logger != nil {
			_ = logger.Sync()
		}
		logger = l
		loggedWith = loaded.Logging
	}

	cfg = loaded
	logger.Debug("Loaded config", zap.String("file", viper.ConfigFileUsed()))
	return nil
}
