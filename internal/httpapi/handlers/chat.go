package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/virajd/persona-memory/internal/common"
	"github.com/virajd/persona-memory/internal/logging"
	"github.com/virajd/persona-memory/internal/memory"
)

type processMessageReq struct {
	UserID                 string `json:"user_id" binding:"required"`
	MessageContent         string `json:"message_content" binding:"required"`
	SummarizationThreshold int    `json:"summarization_threshold"`
}

// ProcessMessage runs the full workflow for one incoming message. The
// response body is the same for admitted and rate-limited messages; the
// distinction lives in the workflow outcome and the logs.
func (h *Handler) ProcessMessage(c *gin.Context) {
	var req processMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "user_id and message_content required")
		return
	}

	threshold := req.SummarizationThreshold
	if threshold <= 0 {
		threshold = h.Threshold
	}

	outcome, err := h.Workflow.HandleMessage(c.Request.Context(), req.UserID, req.MessageContent, threshold)
	if err != nil {
		logging.Errorw("process message failed", "user_id", req.UserID, "error", err)
		fail(c, http.StatusInternalServerError, 50001, "failed to process message")
		return
	}

	logging.Infow("message handled", "user_id", req.UserID, "outcome", outcome)
	c.JSON(http.StatusOK, gin.H{"message": "Message processed and workflow executed."})
}

type summarizeAsyncReq struct {
	UserID string `json:"user_id" binding:"required"`
}

// SummarizeAsync queues an out-of-band summary cycle for the user.
func (h *Handler) SummarizeAsync(c *gin.Context) {
	if h.Rabbit == nil {
		fail(c, http.StatusServiceUnavailable, 50301, "async summarization unavailable")
		return
	}

	var req summarizeAsyncReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "user_id required")
		return
	}

	jobID, err := common.NewULID()
	if err != nil {
		fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	job := &memory.SummaryJob{
		ID:     jobID,
		UserID: req.UserID,
		Status: memory.JobQueued,
	}
	if err := h.Jobs.Create(c.Request.Context(), job); err != nil {
		logging.Errorw("create summary job failed", "user_id", req.UserID, "error", err)
		fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	if err := h.Rabbit.PublishJob(c.Request.Context(), job.ID); err != nil {
		logging.Errorw("publish summary job failed", "job_id", job.ID, "error", err)
		fail(c, http.StatusInternalServerError, 50002, "enqueue failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"job_id": job.ID})
}

func (h *Handler) GetSummaryJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if jobID == "" {
		fail(c, http.StatusBadRequest, 10002, "job_id required")
		return
	}

	j, err := h.Jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			fail(c, http.StatusNotFound, 40402, "job not found")
			return
		}
		fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job": gin.H{
			"id":         j.ID,
			"user_id":    j.UserID,
			"status":     j.Status,
			"error":      j.Error,
			"created_at": j.CreatedAt,
			"updated_at": j.UpdatedAt,
		},
	})
}
