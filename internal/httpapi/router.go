package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/virajd/persona-memory/internal/httpapi/handlers"
	"github.com/virajd/persona-memory/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": 40400, "message": "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"code": 40500, "message": "method not allowed"})
	})

	r.GET("/ping", h.Ping)

	chat := r.Group("/chat")
	{
		chat.POST("/process_message", h.ProcessMessage)
		chat.POST("/summarize_async", h.SummarizeAsync)
		chat.GET("/jobs/:job_id", h.GetSummaryJob)
	}

	userDB := r.Group("/user_db")
	{
		userDB.POST("/store_chat_message", h.StoreChatMessage)
		userDB.GET("/get_recent_chat_history", h.GetRecentChatHistory)
		userDB.POST("/clear_old_chat_messages", h.ClearOldChatMessages)
		userDB.POST("/add_user", h.AddUser)
		userDB.POST("/create_tables", h.CreateTables)
		userDB.GET("/get_user_info", h.GetUserInfo)
		userDB.GET("/get_chat_summary", h.GetChatSummary)
		userDB.POST("/summarize_chat_history", h.SummarizeChatHistory)
	}

	return r
}
