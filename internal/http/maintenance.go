package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarian/internal/tasks"
)

// MaintenanceController triggers maintenance tasks and reports on them.
type MaintenanceController struct {
	queue         TaskQueue
	retentionDays int
}

// NewMaintenanceController creates a MaintenanceController. queue may be nil
// when the task queue is disabled.
func NewMaintenanceController(queue TaskQueue, retentionDays int) *MaintenanceController {
	return &MaintenanceController{queue: queue, retentionDays: retentionDays}
}

// TaskTypeInfo describes an available task type.
type TaskTypeInfo struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// ListTaskTypes handles GET /api/maintenance/tasks
func (mc *MaintenanceController) ListTaskTypes(c *gin.Context) {
	types := []TaskTypeInfo{
		{
			Type:        "verify_series",
			Description: "Compare every series book counter with the books in the series",
			Queue:       tasks.VerifySeriesTask{}.Config().Name,
		},
		{
			Type:        "cleanup_audit_events",
			Description: "Delete audit events older than the retention period",
			Queue:       tasks.CleanupAuditEventsTask{}.Config().Name,
		},
	}

	c.JSON(http.StatusOK, gin.H{
		"task_types": types,
		"enabled":    mc.queue != nil,
	})
}

// RunTask handles POST /api/maintenance/tasks/:type/run
func (mc *MaintenanceController) RunTask(c *gin.Context) {
	mc.run(c, c.Param("type"))
}

// VerifySeries handles POST /api/maintenance/verify-series
func (mc *MaintenanceController) VerifySeries(c *gin.Context) {
	mc.run(c, "verify_series")
}

func (mc *MaintenanceController) run(c *gin.Context, taskType string) {
	if mc.queue == nil {
		respondError(c, http.StatusServiceUnavailable, "task queue is disabled")
		return
	}

	var task backlite.Task
	switch taskType {
	case "verify_series":
		task = tasks.VerifySeriesTask{RequestedBy: GetUserID(c)}
	case "cleanup_audit_events":
		task = tasks.CleanupAuditEventsTask{RetentionDays: mc.retentionDays}
	default:
		respondBadRequest(c, fmt.Sprintf("unknown task type: %s", taskType))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	id, err := mc.queue.Enqueue(ctx, task)
	if err != nil {
		respondInternalError(c, err, "enqueue "+taskType)
		return
	}

	respondAccepted(c, "task enqueued", gin.H{
		"task_id": id,
		"type":    taskType,
	})
}

// GetTaskStatus handles GET /api/maintenance/status/:id
func (mc *MaintenanceController) GetTaskStatus(c *gin.Context) {
	if mc.queue == nil {
		respondError(c, http.StatusServiceUnavailable, "task queue is disabled")
		return
	}

	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := mc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}

	statusStr := taskStatusToString(status)
	if status == backlite.TaskStatusNotFound {
		c.JSON(http.StatusNotFound, gin.H{"id": taskID, "status": statusStr})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": statusStr,
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
