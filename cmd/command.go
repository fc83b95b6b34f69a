// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"os"

	"github.com/LeeDigitalWorks/zapgate/pkg/env"
	"github.com/LeeDigitalWorks/zapgate/pkg/logger"
	"github.com/LeeDigitalWorks/zapgate/pkg/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "zapgate",
	Short: "ZapGate - A multi-node object storage gateway",
	Long: `ZapGate serves a bucket/object HTTP API from each node's local disk.
Nodes share a location directory and a node registry in Redis, so a request
for an object held elsewhere is redirected to the node that owns it.`,
	PersistentPreRun: initializeLogging,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&utils.ConfigurationFileDirectory, "config_dir", ".", "Directory for configuration files")
	rootCmd.PersistentFlags().String("log_level", "", "Log level (trace, debug, info, warn, error). Env: LOG_LEVEL")
	rootCmd.PersistentFlags().String("env", "", "Deployment environment (local, testing, production). Env: ENV")

	viper.BindPFlags(rootCmd.PersistentFlags())
}

// initializeLogging applies the log level and switches to console output in
// local environments.
func initializeLogging(cmd *cobra.Command, args []string) {
	viper.AutomaticEnv()

	env.Load()
	if env.IsLocal() {
		logger.UseConsole(os.Stderr)
	}
	logger.SetLevelString(NewFlagLoader(cmd).String("log_level"))
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
