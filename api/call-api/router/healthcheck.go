// Copyright (c) 2024-2026 VoxBridge AI
//
// Licensed under GPL-2.0. See LICENSE.md for details.

package call_routers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voxbridgeai/api/call-api/config"
)

func HealthCheckRoute(cfg *config.AppConfig, engine *gin.Engine) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": cfg.Name,
			"version": cfg.Version,
			"status":  "ok",
		})
	})
}
