package cmd

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/jon4hz/humanorai/internal/version"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmdPersistentFlags struct {
	LogFile    string
	ConfigFile string
	LogLevel   string
	EnvFile    string
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogFile, "log-file", "", "File to write logs to")
	rootCmd.PersistentFlags().StringVarP(&rootCmdPersistentFlags.ConfigFile, "config", "c", "", "Path to config file (default: search for config.yml in current dir, ~/.humanorai, /etc/humanorai)")
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&rootCmdPersistentFlags.EnvFile, "env-file", ".env", "File with HUMANORAI_ environment variables to load before the config")
}

var rootCmd = &cobra.Command{
	Use:   "humanorai",
	Short: "humanorai lets people guess whether content was made by a human or by an AI",
	Long:  `humanorai serves a catalog of text, images, music and video and records whether visitors think each item was made by a human or generated by an AI.`,
	Example: `humanorai --config config.yml
  humanorai -c /path/to/config.yml --log-level debug
  humanorai stats`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		setLogLevel(rootCmdPersistentFlags.LogLevel)
		logToFile()
		loadEnvFile()
	},
	Run: startServer,
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Warnf("unknown log level %s, defaulting to info", level)
		log.SetLevel(log.InfoLevel)
	}
}

func logToFile() {
	if rootCmdPersistentFlags.LogFile == "" {
		return
	}
	file, err := os.OpenFile(rootCmdPersistentFlags.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		log.Errorf("failed to open log file: %v", err)
		return
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.Info("logging to both console and file", "file", rootCmdPersistentFlags.LogFile)
}

// loadEnvFile loads the env file if it exists. Variables already set in the
// environment are not overwritten.
func loadEnvFile() {
	if rootCmdPersistentFlags.EnvFile == "" {
		return
	}
	if err := godotenv.Load(rootCmdPersistentFlags.EnvFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return
		}
		log.Warn("failed to load env file", "file", rootCmdPersistentFlags.EnvFile, "error", err)
		return
	}
	log.Debug("loaded env file", "file", rootCmdPersistentFlags.EnvFile)
}

func Execute(ctx context.Context) error {
	return fang.Execute(ctx, rootCmd, fang.WithVersion(version.Version))
}
