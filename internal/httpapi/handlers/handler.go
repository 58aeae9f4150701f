package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/virajd/persona-memory/internal/memory"
	"github.com/virajd/persona-memory/internal/store/rabbitmq"
	"github.com/virajd/persona-memory/internal/store/redisstore"
)

type Handler struct {
	DB         *gorm.DB
	Users      *memory.UserStore
	Messages   *memory.MessageLog
	Summarizer *memory.Summarizer
	Workflow   *memory.Workflow
	Jobs       *memory.JobStore

	// Optional collaborators; handlers degrade gracefully when nil.
	Cache  *redisstore.Store
	Rabbit *rabbitmq.Publisher

	// Default summarization threshold when the request omits one.
	Threshold int
}

func NewHandler(db *gorm.DB, users *memory.UserStore, messages *memory.MessageLog,
	summarizer *memory.Summarizer, workflow *memory.Workflow, jobs *memory.JobStore,
	cache *redisstore.Store, rabbit *rabbitmq.Publisher, threshold int) *Handler {
	if threshold <= 0 {
		threshold = 3
	}
	return &Handler{
		DB:         db,
		Users:      users,
		Messages:   messages,
		Summarizer: summarizer,
		Workflow:   workflow,
		Jobs:       jobs,
		Cache:      cache,
		Rabbit:     rabbit,
		Threshold:  threshold,
	}
}

func fail(c *gin.Context, httpStatus int, code int, msg string) {
	c.JSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
	})
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}
