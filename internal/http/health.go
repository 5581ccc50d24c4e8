package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthProbeTimeout = 2 * time.Second

// queueProbeID names no task; asking for its status only exercises the
// queue database.
const queueProbeID = "health-probe"

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

// Pinger checks that a backing store is reachable.
type Pinger interface {
	Ping() error
}

// HealthController reports whether the catalog store and the task queue
// answer. Only a failing catalog store makes the service unhealthy; the
// queue is optional.
type HealthController struct {
	db      Pinger
	queue   TaskQueue
	version string
}

func NewHealthController(db Pinger, queue TaskQueue, version string) *HealthController {
	return &HealthController{db: db, queue: queue, version: version}
}

func (h *HealthController) Status(c *gin.Context) {
	response := HealthResponse{
		Status:  "healthy",
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  map[string]string{"database": "not configured", "task_queue": "disabled"},
	}
	code := http.StatusOK

	if h.db != nil {
		response.Checks["database"] = probe(h.db.Ping())
		if response.Checks["database"] != "ok" {
			response.Status = "unhealthy"
			code = http.StatusServiceUnavailable
		}
	}

	if h.queue != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
		defer cancel()
		_, err := h.queue.Status(ctx, queueProbeID)
		response.Checks["task_queue"] = probe(err)
		if err != nil && response.Status == "healthy" {
			response.Status = "degraded"
		}
	}

	c.IndentedJSON(code, response)
}

func probe(err error) string {
	if err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
