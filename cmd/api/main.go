package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"lawchat-backend/cmd"
	"lawchat-backend/internal/api"
	"lawchat-backend/internal/chat"
	"lawchat-backend/internal/database"
	"lawchat-backend/internal/messaging"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

type APIConfig struct {
	DatabaseURL       string `env:"DATABASE_URL,notEmpty,required"`
	VectorDatabaseURL string `env:"VECTOR_DATABASE_URL"`
	OpenAIAPIKey      string `env:"OPENAI_API_KEY,notEmpty,required"`
	ChatModel         string `env:"CHAT_MODEL" envDefault:"gpt-4o-mini"`
	ExtractionModel   string `env:"EXTRACTION_MODEL" envDefault:"gpt-4o-mini"`
	EmbeddingModel    string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	VectorCollection  string `env:"VECTOR_COLLECTION" envDefault:"legal_documents"`
	RetrievalTopK     int    `env:"RETRIEVAL_TOP_K" envDefault:"3"`
	RabbitMQURL       string `env:"RABBITMQ_URL"`
	DefaultMember     string `env:"DEFAULT_MEMBER_EMAIL"`
	APIPort           string `env:"API_PORT" envDefault:"8001"`
}

func main() {
	log.Println("Starting API Server...")

	cmd.LoadEnvFile()

	var cfg APIConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("error parsing config: %v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.GetMigrator(db).Migrate(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if cfg.DefaultMember != "" {
		cmd.EnsureMember(db, cfg.DefaultMember)
	}

	ctx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	// The vector index lives next to the relational store unless pointed
	// elsewhere.
	vectorURL := cfg.VectorDatabaseURL
	if vectorURL == "" {
		vectorURL = cfg.DatabaseURL
	}

	embeddingClient, err := openai.New(openai.WithToken(cfg.OpenAIAPIKey), openai.WithEmbeddingModel(cfg.EmbeddingModel))
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}
	embedder, err := embeddings.NewEmbedder(embeddingClient)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	retriever, err := chat.NewPgVectorRetriever(ctx, vectorURL, cfg.VectorCollection, embedder)
	if err != nil {
		log.Fatalf("Failed to create vector retriever: %v", err)
	}

	generator, err := chat.NewOpenAIGenerator(cfg.ChatModel, cfg.OpenAIAPIKey)
	if err != nil {
		log.Fatalf("Failed to create generator: %v", err)
	}

	extractor := chat.NewOpenAIExtractor(cfg.ExtractionModel, cfg.OpenAIAPIKey)

	var wg sync.WaitGroup
	var publisher messaging.Publisher

	if cfg.RabbitMQURL != "" {
		// Post-processing runs in the separate worker process (cmd/worker).
		rabbit, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQURL)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		publisher = rabbit
	} else {
		queue := messaging.NewInMemoryQueue()
		publisher = queue

		worker := messaging.Worker{
			Receiver:  queue,
			Processor: chat.NewPostProcessor(db, extractor),
			WaitGroup: &wg,
		}
		worker.Start(ctx)
	}
	defer publisher.Close()

	orchestrator := chat.NewOrchestrator(db, retriever, generator, chat.NewMemoryWindow(db), publisher, cfg.RetrievalTopK)

	// --- Chi Router Setup ---
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	r.Get("/health", api.RestHandler(func(r *http.Request) (any, error) { return nil, nil }))

	chatService := api.NewChatService(db, orchestrator)
	chatService.AddRoutes(r)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: r,
	}

	// Goroutine for graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}

		stopWorker()
	}()

	log.Printf("API server listening on port %s", cfg.APIPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v\n", cfg.APIPort, err)
	}

	wg.Wait()
	log.Println("Server stopped.")
}
