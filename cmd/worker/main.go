package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"lawchat-backend/cmd"
	"lawchat-backend/internal/chat"
	"lawchat-backend/internal/database"
	"lawchat-backend/internal/messaging"

	"github.com/caarlos0/env/v11"
)

type WorkerConfig struct {
	DatabaseURL     string `env:"DATABASE_URL,notEmpty,required"`
	RabbitMQURL     string `env:"RABBITMQ_URL,notEmpty,required"`
	OpenAIAPIKey    string `env:"OPENAI_API_KEY,notEmpty,required"`
	ExtractionModel string `env:"EXTRACTION_MODEL" envDefault:"gpt-4o-mini"`
	Concurrency     int    `env:"CONCURRENCY" envDefault:"1"`
}

func main() {
	log.Println("Starting Worker Process...")

	cmd.LoadEnvFile()

	var cfg WorkerConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	receiver, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer receiver.Close()

	extractor := chat.NewOpenAIExtractor(cfg.ExtractionModel, cfg.OpenAIAPIKey)
	processor := chat.NewPostProcessor(db, extractor)

	ctx, stop := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	for i := 0; i < concurrency; i++ {
		worker := messaging.Worker{
			Receiver:  receiver,
			Processor: processor,
			WaitGroup: &wg,
		}
		worker.Start(ctx)
	}

	log.Printf("Worker started with concurrency %d. Waiting for tasks. Press Ctrl+C to exit.", concurrency)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")
	stop()
	wg.Wait()
	log.Println("Worker stopped.")
}
