package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/bracketlens/config"
)

const version = "0.1.0"

type globalOptions struct {
	configPath string
	verbosity  int
	logFile    string
}

var global globalOptions

func main() {
	rootCmd := &cobra.Command{
		Use:           "bracketlens",
		Short:         "Label the closing brackets of long scopes",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&global.configPath, "config", "c", "",
		"config file (default: .bracketlens.yaml or ~/.config/bracketlens/config.yaml)")
	rootCmd.PersistentFlags().CountVarP(&global.verbosity, "verbose", "v", "increase log verbosity")
	rootCmd.PersistentFlags().StringVar(&global.logFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(newLSPCmd())
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newTreeCmd())
	rootCmd.AddCommand(newReplayCmd())
	rootCmd.AddCommand(newGrammarsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration, applies the logging flags and returns
// the config together with the file it came from ("" for none).
func loadConfig() (config.Config, string, error) {
	path := global.configPath
	if path == "" {
		path = config.Find()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, "", err
	}

	verbosity := cfg.Log.Verbosity
	if global.verbosity > 0 {
		verbosity = global.verbosity
	}
	logFile := cfg.Log.File
	if global.logFile != "" {
		logFile = global.logFile
	}
	if logFile != "" {
		commonlog.Configure(verbosity, &logFile)
	} else {
		commonlog.Configure(verbosity, nil)
	}
	return cfg, path, nil
}
