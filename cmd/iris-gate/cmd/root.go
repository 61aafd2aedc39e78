// Package cmd provides the CLI commands for iris-gate.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sentinel-Gate/irisgate/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "iris-gate",
	Short: "iris-gate - DFIR-IRIS tools for MCP clients",
	Long: `iris-gate exposes a DFIR-IRIS server to Model Context Protocol clients.

Each tool call opens a fresh, authenticated session against IRIS, runs one
case-management operation (cases, notes, evidence, timeline events, tasks,
assets, IOCs) and returns plain text for the model.

Quick start:
  export IRIS_HOST=https://iris.example.org
  export IRIS_API_KEY=...
  iris-gate start

Configuration:
  Config is loaded from iris-gate.yaml in the current directory,
  $HOME/.iris-gate/, or /etc/iris-gate/.

  IRIS_HOST, IRIS_API_KEY and IRIS_VERIFY_SSL configure the IRIS connection.
  Other values can be overridden with the IRIS_GATE_ prefix.
  Example: IRIS_GATE_SERVER_TRANSPORT=http

Commands:
  start       Start the MCP server
  tools       List the tools the current config exposes
  catalog     Print a built-in reference catalog
  hash-key    Generate an argon2id hash for an HTTP bearer key
  version     Print version information`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./iris-gate.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
