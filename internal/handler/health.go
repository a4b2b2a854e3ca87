package handler

import (
	"context"
	"net/http"
	"time"

	"feedesk/internal/infra"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Health reports storage and queue connectivity. db is nil for the
// in-memory store; never exposes credentials or internals.
func Health(db *gorm.DB, queue infra.Queue) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "memory"
		if db != nil {
			dbStatus = "connected"
			sqlDB, err := db.DB()
			if err != nil || sqlDB.PingContext(ctx) != nil {
				dbStatus = "error"
			}
		}

		queueStatus := "connected"
		if queue.Ping(ctx) != nil {
			queueStatus = "error"
		}

		status := http.StatusOK
		if dbStatus == "error" || queueStatus == "error" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"queue": queueStatus,
		})
	}
}
