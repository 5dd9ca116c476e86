//go:build !embed

package main

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// setupStaticFiles serves the form from webDir for development (no embedding)
func setupStaticFiles(router *gin.Engine, webDir string) {
	zap.L().Info("🔧 Using local filesystem for frontend assets (development mode)", zap.String("dir", webDir))

	index := filepath.Join(webDir, "index.html")
	router.StaticFile("/", index)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.File(index)
	})
}
