package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/virajd/persona-memory/internal/db"
	"github.com/virajd/persona-memory/internal/logging"
	"github.com/virajd/persona-memory/internal/memory"
)

type storeMessageReq struct {
	UserID         string `json:"user_id" binding:"required"`
	MessageContent string `json:"message_content" binding:"required"`
}

func (h *Handler) StoreChatMessage(c *gin.Context) {
	var req storeMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "user_id and message_content required")
		return
	}

	if _, err := h.Messages.Append(c.Request.Context(), req.UserID, req.MessageContent); err != nil {
		logging.Errorw("store chat message failed", "user_id", req.UserID, "error", err)
		fail(c, http.StatusInternalServerError, 50001, "failed to store message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message stored."})
}

func (h *Handler) GetRecentChatHistory(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		fail(c, http.StatusBadRequest, 10002, "user_id required")
		return
	}

	numMessages := 20
	if v := c.Query("num_messages"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			numMessages = n
		}
	}

	msgs, err := h.Messages.Recent(c.Request.Context(), userID, numMessages)
	if err != nil {
		logging.Errorw("get recent chat history failed", "user_id", userID, "error", err)
		// best effort: an empty history rather than a hard failure
		c.JSON(http.StatusOK, gin.H{"messages": []string{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": memory.Contents(msgs)})
}

type userIDReq struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *Handler) ClearOldChatMessages(c *gin.Context) {
	var req userIDReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "user_id required")
		return
	}

	deleted, err := h.Messages.Clear(c.Request.Context(), req.UserID)
	if err != nil {
		logging.Errorw("clear chat messages failed", "user_id", req.UserID, "error", err)
		fail(c, http.StatusInternalServerError, 50001, "failed to clear messages")
		return
	}
	logging.Infow("cleared old chat messages", "user_id", req.UserID, "deleted", deleted)
	c.JSON(http.StatusOK, gin.H{"message": "Old messages cleared."})
}

func (h *Handler) AddUser(c *gin.Context) {
	var req userIDReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "user_id required")
		return
	}

	if err := h.Users.EnsureUser(c.Request.Context(), req.UserID); err != nil {
		logging.Errorw("add user failed", "user_id", req.UserID, "error", err)
		fail(c, http.StatusInternalServerError, 50001, "failed to add user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("User '%s' added.", req.UserID)})
}

// CreateTables bootstraps the schema. Idempotent.
func (h *Handler) CreateTables(c *gin.Context) {
	if err := db.Migrate(h.DB); err != nil {
		logging.Errorw("create tables failed", "error", err)
		fail(c, http.StatusInternalServerError, 50001, "failed to create tables")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Tables created."})
}

// GetUserInfo returns the user row in its tuple shape:
// [user_id, last_chat_timestamp, chat_count_24h, chat_history_summary].
func (h *Handler) GetUserInfo(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		fail(c, http.StatusBadRequest, 10002, "user_id required")
		return
	}

	u, err := h.Users.GetUser(c.Request.Context(), userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusOK, gin.H{
				"message": fmt.Sprintf("No information found for user '%s'.", userID),
			})
			return
		}
		logging.Errorw("get user info failed", "user_id", userID, "error", err)
		fail(c, http.StatusInternalServerError, 50001, "failed to get user info")
		return
	}

	var lastChat any
	if u.LastChatTimestamp != nil {
		lastChat = float64(u.LastChatTimestamp.UnixMilli()) / 1000.0
	}
	var summary any
	if u.ChatHistorySummary != nil {
		summary = *u.ChatHistorySummary
	}

	c.JSON(http.StatusOK, gin.H{
		"user_info": []any{u.UserID, lastChat, u.ChatCount24h, summary},
	})
}

type summarizeHistoryReq struct {
	ChatHistory []string `json:"chat_history"`
}

// SummarizeChatHistory is a direct Summarizer passthrough that bypasses the
// workflow entirely.
func (h *Handler) SummarizeChatHistory(c *gin.Context) {
	var req summarizeHistoryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, 10001, "chat_history required")
		return
	}

	summary, err := h.Summarizer.Summarize(c.Request.Context(), req.ChatHistory)
	if err != nil {
		logging.Errorw("summarize chat history failed", "error", err)
		fail(c, http.StatusBadGateway, 50201, "summarization failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetChatSummary serves the latest summary, cache first with DB fallback.
func (h *Handler) GetChatSummary(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		fail(c, http.StatusBadRequest, 10002, "user_id required")
		return
	}

	if h.Cache != nil {
		if s, err := h.Cache.GetSummary(c.Request.Context(), userID); err == nil {
			c.JSON(http.StatusOK, gin.H{"summary": s})
			return
		} else if err != redis.Nil {
			logging.Warnw("summary cache read failed", "user_id", userID, "error", err)
		}
	}

	u, err := h.Users.GetUser(c.Request.Context(), userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusOK, gin.H{
				"message": fmt.Sprintf("No information found for user '%s'.", userID),
			})
			return
		}
		logging.Errorw("get chat summary failed", "user_id", userID, "error", err)
		fail(c, http.StatusInternalServerError, 50001, "failed to get summary")
		return
	}

	var summary any
	if u.ChatHistorySummary != nil {
		summary = *u.ChatHistorySummary
		if h.Cache != nil {
			if err := h.Cache.SetSummary(c.Request.Context(), userID, *u.ChatHistorySummary); err != nil {
				logging.Warnw("summary cache backfill failed", "user_id", userID, "error", err)
			}
		}
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
