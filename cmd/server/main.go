package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/teampulse/internal/config"
	"github.com/teampulse/internal/db"
	"github.com/teampulse/internal/router"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabaseDriver, cfg.DatabasePath, cfg.DatabaseDSN); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	if err := db.EnsureEmployee(cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		log.Fatalf("failed to ensure super root account: %v", err)
	}

	log.Printf("starting server on %s (driver=%s, timezone=%s, monthly_cap=%d)",
		cfg.ListenAddr, cfg.DatabaseDriver, cfg.Location, cfg.Rules.MonthlyCap)

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(cfg)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}
