// Package cmd implements the prodr-cli cobra command tree.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jjmmwon/FiReDR/pkg/utils"
)

var (
	verbose bool
	logger  utils.Logger
)

var rootCmd = &cobra.Command{
	Use:   "prodr-cli",
	Short: "Progressive clustering engine driver",
	Long: `prodr-cli streams numeric feature vectors from a CSV file through
a progressive clustering engine, logs the split/merge/creation counts
after each batch, and prints the final micro-cluster partition.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := utils.LevelInfo
		if verbose {
			level = utils.LevelDebug
		}
		logger = utils.NewDefaultLogger(level, os.Stdout)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

// GetLogger returns the configured logger.
func GetLogger() utils.Logger {
	return logger
}

// BinName returns the base name of the current executable.
func BinName() string {
	return filepath.Base(os.Args[0])
}
