// cmd/server/main.go
package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/Annany2002/nebula-query-gateway/api"
	"github.com/Annany2002/nebula-query-gateway/config"
	"github.com/Annany2002/nebula-query-gateway/internal/logger"
	"github.com/Annany2002/nebula-query-gateway/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

func main() {
	customLog.Println("Starting Nebula Query Gateway...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		customLog.Fatalf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	// 2. Per-request MySQL executor; no connection is opened at startup
	executor := storage.NewExecutor(storage.MySQLOpener(storage.MySQLOptions{
		DialTimeout:  cfg.DBDialTimeout,
		ReadTimeout:  cfg.DBReadTimeout,
		WriteTimeout: cfg.DBWriteTimeout,
	}))

	// 3. Setup Router (passing dependencies)
	router := api.SetupRouter(cfg, executor)

	// 4. Start Server
	customLog.Printf("Server listening on port %s", cfg.ServerPort)
	if err := router.Run(fmt.Sprintf(":%s", cfg.ServerPort)); err != nil {
		customLog.Fatalf("Failed to start server: %v", err)
	}
}
