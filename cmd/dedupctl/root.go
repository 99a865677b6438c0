/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wso2/lead-deduplication-service/internal/system/config"
	"github.com/wso2/lead-deduplication-service/internal/system/constants"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
	"github.com/wso2/lead-deduplication-service/internal/system/managers"
)

var (
	ldsHome    string
	configPath string
	tenantId   string
	jsonOutput bool

	// engine is built from the deployment config on first use. Tests set it directly.
	engine      *managers.Engine
	ownedEngine bool
)

var rootCmd = &cobra.Command{
	Use:   "dedupctl",
	Short: "Operate duplicate lead detection and merges",
	Long: `dedupctl runs duplicate scans, merges and policy changes against the lead store
configured in the deployment yaml, without going through the HTTP API.`,
	SilenceUsage:      true,
	PersistentPreRunE: openEngine,
	PersistentPostRun: func(*cobra.Command, []string) {
		if ownedEngine {
			engine.Close()
			engine, ownedEngine = nil, false
		}
	},
}

func init() {
	cwd, _ := os.Getwd()
	rootCmd.PersistentFlags().StringVar(&ldsHome, "lds-home", cwd, "lead deduplication service home directory")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "repository/conf/deployment.yaml",
		"config file relative to --lds-home")
	rootCmd.PersistentFlags().StringVarP(&tenantId, "tenant", "t", constants.DefaultTenant, "tenant to operate on")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
}

func openEngine(cmd *cobra.Command, _ []string) error {

	if engine != nil {
		return nil
	}
	envFiles, _ := filepath.Glob(filepath.Join(ldsHome, "repository", "conf", "*.env"))
	if err := config.LoadEnvFiles(append(envFiles, filepath.Join(ldsHome, ".env"))...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	cfg, err := config.LoadConfig(ldsHome, configPath)
	if err != nil {
		return err
	}
	if err := config.InitializeRuntime(ldsHome, cfg); err != nil {
		return err
	}
	// Keep stdout for command output.
	logOpts := log.Options{Level: cfg.Log.LogLevel, Format: cfg.Log.Format, Output: cmd.ErrOrStderr()}
	if err := log.Configure(logOpts); err != nil {
		return err
	}
	built, err := managers.NewEngine(context.Background(), *cfg, nil)
	if err != nil {
		return err
	}
	engine, ownedEngine = built, true
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
