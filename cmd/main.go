package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oreforge/oreforge-server/cmd/cli"
	"github.com/oreforge/oreforge-server/internal/core/config"
	"github.com/oreforge/oreforge-server/pkg/logger"
)

var (
	logMode    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "oreforge-server",
	Short: "OreForge credit reconciliation server",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		switch logMode {
		case "debug", "pretty", "info", "prod", "test":
			logger.InitWithMode(logger.LogMode(logMode))
		default:
			logger.InitWithMode(logger.LogModePretty)
		}
		if configPath != "" {
			config.GetConfigManager().SetConfigPath(configPath)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		cli.RunServer()
	},
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the reconciliation server",
	Run: func(cmd *cobra.Command, args []string) {
		cli.RunServer()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logMode, "log", "pretty", "Log mode: debug, pretty, info, prod, test")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default config/config.yaml)")
	rootCmd.AddCommand(serverCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
