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
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wso2/lead-deduplication-service/internal/system/config"
	"github.com/wso2/lead-deduplication-service/internal/system/constants"
	"github.com/wso2/lead-deduplication-service/internal/system/log"
	"github.com/wso2/lead-deduplication-service/internal/system/managers"
	"github.com/wso2/lead-deduplication-service/internal/system/metrics"
	"github.com/wso2/lead-deduplication-service/internal/system/workers"
)

const configFile = "repository/conf/deployment.yaml"

func main() {
	ldsHome := getLDSHome()

	envFiles, _ := filepath.Glob(filepath.Join(ldsHome, "repository", "conf", "*.env"))
	if err := config.LoadEnvFiles(append(envFiles, filepath.Join(ldsHome, ".env"))...); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load env files: %v\n", err)
		os.Exit(1)
	}

	// Load the configuration file
	ldsConfig, err := config.LoadConfig(ldsHome, configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize runtime configurations.
	if err := config.InitializeRuntime(ldsHome, ldsConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize runtime: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(log.Options{Level: ldsConfig.Log.LogLevel, Format: ldsConfig.Log.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := log.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := managers.NewEngine(ctx, *ldsConfig, metrics.Get())
	if err != nil {
		logger.Fatal("Failed to initialize the deduplication engine", log.Error(err))
	}
	defer engine.Close()

	// Initialize the bulk merge queue
	worker := workers.StartMergeWorker(engine.MergeService, ldsConfig.Merge.QueueSize,
		ldsConfig.Merge.JobRetention(), metrics.Get())

	serverAddr := fmt.Sprintf("%s:%d", ldsConfig.Addr.Host, ldsConfig.Addr.Port)
	ln, err := net.Listen("tcp", serverAddr)
	if err != nil {
		logger.Fatal("Failed to start listener", log.String("addr", serverAddr), log.Error(err))
	}

	server := &http.Server{
		Handler:           enableCORS(initMultiplexer(engine, worker)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down lead deduplication service")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info(fmt.Sprintf("Lead deduplication service started in: %s", serverAddr))
	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Failed to serve requests", log.Error(err))
	}

	// Let queued bulk merges finish before the stores close.
	worker.Stop()
}

// initMultiplexer initializes the HTTP multiplexer and registers the services.
func initMultiplexer(engine *managers.Engine, worker *workers.MergeWorker) *http.ServeMux {

	mux := http.NewServeMux()
	serviceManager := managers.NewServiceManager(mux, engine, worker)

	// Register the services.
	if err := serviceManager.RegisterServices(constants.ApiBasePath); err != nil {
		log.GetLogger().Error("Failed to register the services", log.Error(err))
	}
	mux.Handle(constants.MetricsPath, promhttp.Handler())
	return mux
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func getLDSHome() string {

	// Parse project directory from command line arguments.
	projectHomeFlag := flag.String("ldsHome", "", "Path to lead deduplication service home directory")
	flag.Parse()

	if *projectHomeFlag != "" {
		return *projectHomeFlag
	}
	// If no command line argument is provided, use the current working directory.
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get current working directory: %v\n", err)
		os.Exit(1)
	}
	return dir
}
