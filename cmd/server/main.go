package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/virajd/persona-memory/internal/ai"
	"github.com/virajd/persona-memory/internal/config"
	"github.com/virajd/persona-memory/internal/db"
	"github.com/virajd/persona-memory/internal/httpapi"
	"github.com/virajd/persona-memory/internal/httpapi/handlers"
	"github.com/virajd/persona-memory/internal/logging"
	"github.com/virajd/persona-memory/internal/memory"
	"github.com/virajd/persona-memory/internal/store/rabbitmq"
	"github.com/virajd/persona-memory/internal/store/redisstore"
)

func newRegistry(cfg config.Config) *ai.Registry {
	reg := ai.NewRegistry()
	reg.Register("gemini", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.GeminiModel
		}
		return ai.NewGeminiProvider(cfg.GeminiBaseURL, cfg.GeminiAPIKey, m), nil
	})
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		_ = ctx
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, m), nil
	})
	return reg
}

func main() {
	cfg := config.Load()

	logging.Init(cfg.LogLevel, cfg.LogFormat)
	defer logging.Sync()

	gdb, err := db.Connect(cfg.DBPath)
	if err != nil {
		logging.Fatalf("open database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logging.Fatalf("migrate database: %v", err)
	}

	reg := newRegistry(cfg)
	provider, err := reg.Get(context.Background(), cfg.AIProvider, "")
	if err != nil {
		logging.Fatalf("ai provider: %v", err)
	}

	users := memory.NewUserStore(gdb)
	messages := memory.NewMessageLog(gdb)
	jobs := memory.NewJobStore(gdb)
	limiter := memory.NewRateLimiter(users)
	summarizer := memory.NewSummarizer(provider, cfg.SummaryTimeout)

	cache := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.SummaryCacheTTL)
	defer cache.Close()

	workflow := memory.NewWorkflow(users, messages, limiter, summarizer, cache, cfg.ChatLimit24h)

	// RabbitMQ is optional; without it the async summarize endpoints answer
	// 503 and the synchronous pipeline is unaffected.
	var rabbit *rabbitmq.Publisher
	if cfg.RabbitURL != "" {
		rabbit, err = rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			logging.Warnf("rabbitmq unavailable, async summarization disabled: %v", err)
			rabbit = nil
		} else {
			defer rabbit.Close()
		}
	}

	h := handlers.NewHandler(gdb, users, messages, summarizer, workflow, jobs,
		cache, rabbit, cfg.SummarizationThreshold)
	r := httpapi.NewRouter(h)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	go func() {
		logging.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatalf("http server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logging.Infof("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Fatalf("server shutdown: %v", err)
	}
	logging.Infof("server stopped")
}
