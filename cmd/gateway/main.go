package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "3.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "gateway",
		Short:         "Gateway PIX - payment gateway in front of a PIX provider",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default ./config.yaml if present)")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(keysCmd(&configPath))

	return rootCmd
}
