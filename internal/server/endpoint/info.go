package endpoint

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/miroapi/internal/version"
)

var startTime = time.Now()

// Info reports the service name, environment, build and uptime.
func Info(serviceName, environment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.GetVersionInfo()
		c.JSON(http.StatusOK, gin.H{
			"service":     serviceName,
			"environment": environment,
			"version":     v.Version,
			"git_commit":  v.GitCommit,
			"build_time":  v.BuildTime,
			"go_version":  v.GoVersion,
			"uptime":      time.Since(startTime).Truncate(time.Second).String(),
		})
	}
}

// Version reports build information.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.GetVersionInfo())
	}
}
