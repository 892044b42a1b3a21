package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rezghost/content-droid/internal/api"
	"github.com/rezghost/content-droid/internal/config"
	"github.com/rezghost/content-droid/internal/db"
	"github.com/rezghost/content-droid/internal/queue"
	"github.com/rezghost/content-droid/internal/services"
	"github.com/rezghost/content-droid/internal/storage"
	"github.com/rezghost/content-droid/internal/worker"
)

func main() {
	log.Println("Starting Content-Droid processor...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	voice, err := services.ParseVoice(cfg.Voice)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	endpoints, err := services.LoadEndpoints(cfg.EndpointsFile)
	if err != nil {
		log.Fatalf("Failed to load synthesis endpoints: %v", err)
	}
	log.Printf("Loaded %d synthesis endpoint(s) from %s", len(endpoints), cfg.EndpointsFile)

	if err := os.MkdirAll(cfg.VideoOutputDir, 0755); err != nil {
		log.Fatalf("Failed to create output dir: %v", err)
	}

	// Connect to database
	database, err := db.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()
	log.Println("Connected to database")

	// Connect to the job queue (blocks and retries until the broker is up)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	q, err := queue.Connect(ctx, queue.Options{
		URL:     cfg.NATSURL,
		Stream:  cfg.NATSStream,
		Subject: cfg.NATSSubject,
		Durable: cfg.NATSDurable,
	})
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	// Initialize storage
	stor := storage.New(cfg.StorageURL, cfg.StorageServiceKey, cfg.StorageBucket, cfg.StoragePublicBaseURL)
	log.Printf("Initialized object storage (bucket: %s)", cfg.StorageBucket)

	// Synthesis engine
	engine := services.NewEngine(endpoints, cfg.ChunkLimit)

	// Materialization variant
	var materializer services.Materializer
	switch cfg.RenderMode {
	case "video":
		openaiSvc := services.NewOpenAIService(cfg.OpenAIKey)
		ffmpegSvc := services.NewFFmpegService("/tmp/content-droid")
		materializer = services.NewVideoMaterializer(openaiSvc, ffmpegSvc, cfg.BackgroundVideoPath)
		log.Printf("Render mode: video (background: %s)", cfg.BackgroundVideoPath)
	default:
		materializer = services.NewAudioMaterializer()
		log.Println("Render mode: audio only")
	}

	// Health endpoints
	handler := api.NewHandler(database, database, q)
	server := &http.Server{
		Addr:    ":" + cfg.HealthPort,
		Handler: api.NewRouter(handler),
	}
	go func() {
		log.Printf("Health server listening on :%s", cfg.HealthPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Health server error: %v", err)
		}
	}()

	// Run the worker until a shutdown signal arrives; the in-flight job is
	// allowed to finish before exit.
	w := worker.New(database, stor, engine, materializer, voice, cfg.VideoOutputDir)

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx, func(ctx context.Context) (worker.Delivery, error) {
			msg, err := q.Next(ctx)
			if msg == nil {
				return nil, err
			}
			return msg, err
		})
	}()

	<-ctx.Done()
	log.Println("Shutting down, draining current job...")
	<-done

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Health server forced to shutdown: %v", err)
	}

	log.Println("Processor exited")
}
