// Package health exposes the liveness and readiness endpoints of the
// worker process.
package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
	coreHealth "github.com/sipeat/sipeat-events/pkg/core/health"
	"github.com/sipeat/sipeat-events/pkg/events"
)

type readyResponse struct {
	coreHealth.Status
	Topics []string `json:"topics"`
}

type healthHandler struct {
	readiness coreHealth.Readiness
	topics    *events.Topics
}

func newHealthHandler(r coreHealth.Readiness, topics *events.Topics) *healthHandler {
	return &healthHandler{readiness: r, topics: topics}
}

func (h *healthHandler) IsReady(c *gin.Context) {
	resp := readyResponse{
		Status: h.readiness.Status(),
		Topics: h.topics.All(),
	}

	code := http.StatusOK
	if !resp.Ready {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

func (h *healthHandler) IsLive(c *gin.Context) {
	c.String(http.StatusOK, "alive")
}
