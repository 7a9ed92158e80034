package handlers

import (
	"context"
	"net/http"
	"time"

	"blogapi/internal/utils"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type PingHandler struct {
	db Pinger
}

func NewPingHandler(db Pinger) *PingHandler {
	return &PingHandler{db: db}
}

func (h *PingHandler) Ping(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		utils.LogError(err, "Database ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "database unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
