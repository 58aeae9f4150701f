package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/virajd/persona-memory/internal/ai"
	"github.com/virajd/persona-memory/internal/config"
	"github.com/virajd/persona-memory/internal/db"
	"github.com/virajd/persona-memory/internal/logging"
	"github.com/virajd/persona-memory/internal/memory"
	"github.com/virajd/persona-memory/internal/store/redisstore"
)

type jobMsg struct {
	JobID string `json:"job_id"`
}

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
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

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		logging.Fatalf("rabbit dial: %v", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logging.Fatalf("rabbit channel: %v", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, nil); err != nil {
		logging.Fatalf("queue declare: %v", err)
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		logging.Fatalf("qos: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		logging.Fatalf("consume: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Infof("worker started, queue=%s concurrency=%d", cfg.RabbitQueue, concurrency)

	deliveries := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range deliveries {
				var m jobMsg
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					logging.Warnf("worker=%d bad message: %v", workerID, err)
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := handleJob(ctx, workflow, jobs, m.JobID); err != nil {
					logging.Warnf("worker=%d job %s failed cost=%s err=%v", workerID, m.JobID, time.Since(start), err)
					_ = d.Nack(false, false)
					continue
				}

				if err := d.Ack(false); err != nil {
					logging.Warnf("worker=%d ack failed job=%s err=%v", workerID, m.JobID, err)
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			logging.Infof("worker shutting down")
			close(deliveries)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				logging.Warnf("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			deliveries <- d
		}
	}
}

func handleJob(ctx context.Context, workflow *memory.Workflow, jobs *memory.JobStore, jobID string) error {
	start := time.Now()

	_ = jobs.MarkRunning(ctx, jobID)

	j, err := jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}

	if err := workflow.RunSummaryCycle(ctx, j.UserID); err != nil {
		_ = jobs.MarkFailed(ctx, jobID, err.Error())
		return err
	}

	if err := jobs.MarkSucceeded(ctx, jobID); err != nil {
		return err
	}

	if cost := time.Since(start); cost > 2*time.Second {
		logging.Infof("job_timing job=%s user=%s total=%s", jobID, j.UserID, cost)
	}
	return nil
}
