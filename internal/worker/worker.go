package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/rezghost/content-droid/internal/models"
	"github.com/rezghost/content-droid/internal/services"
	"github.com/rezghost/content-droid/internal/storage"
)

// Narrow views of the collaborators, so the runner's control flow is
// testable without a broker, a database, or object storage.

// Store persists job lifecycle transitions, keyed by video id.
type Store interface {
	MarkProcessing(ctx context.Context, videoID string) error
	MarkComplete(ctx context.Context, videoID, downloadLocation string) error
	MarkFailed(ctx context.Context, videoID, errorMessage string) error
}

// ArtifactStore uploads the final artifact and resolves its public location.
type ArtifactStore interface {
	UploadFile(ctx context.Context, storagePath, localPath, contentType string) error
	PublicURL(path string) string
}

// Synthesizer converts prompt text into audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice services.Voice) ([]byte, error)
}

// Delivery is one queued job. Ack removes it from the queue; the runner acks
// every delivery exactly once, success or failure, so a permanently broken
// job is never redelivered forever.
type Delivery interface {
	Body() []byte
	Ack() error
}

// fetchRetryDelay spaces out retries after a broken fetch so a persistently
// failing subscription does not spin the loop.
const fetchRetryDelay = 3 * time.Second

type Worker struct {
	store        Store
	artifacts    ArtifactStore
	synth        Synthesizer
	materializer services.Materializer
	voice        services.Voice
	outputDir    string
	retryDelay   time.Duration
}

func New(store Store, artifacts ArtifactStore, synth Synthesizer, materializer services.Materializer, voice services.Voice, outputDir string) *Worker {
	return &Worker{
		store:        store,
		artifacts:    artifacts,
		synth:        synth,
		materializer: materializer,
		voice:        voice,
		outputDir:    outputDir,
		retryDelay:   fetchRetryDelay,
	}
}

// Run consumes jobs from next until ctx is cancelled. One job is fully
// processed before the next is fetched. Cancellation stops fetching; the
// in-flight job runs to completion on a detached context (graceful drain).
func (w *Worker) Run(ctx context.Context, next func(context.Context) (Delivery, error)) {
	log.Printf("Worker started (voice=%s, output=%s)", w.voice, w.outputDir)

	for {
		select {
		case <-ctx.Done():
			log.Println("Worker shutting down...")
			return
		default:
		}

		delivery, err := next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("Worker shutting down...")
				return
			}
			log.Printf("Error fetching job (retrying in %v): %v", w.retryDelay, err)
			select {
			case <-ctx.Done():
				log.Println("Worker shutting down...")
				return
			case <-time.After(w.retryDelay):
			}
			continue
		}
		if delivery == nil {
			continue // No job available, retry
		}

		// The current job finishes even if shutdown begins meanwhile
		w.Process(context.WithoutCancel(ctx), delivery)
	}
}

// Process drives one delivery through the job state machine and acks it
// exactly once, regardless of outcome.
func (w *Worker) Process(ctx context.Context, delivery Delivery) {
	start := time.Now()

	req, err := models.ParseGenerationRequest(delivery.Body())
	if err != nil {
		// Malformed payload: fatal per job. Record the failure when the id
		// is usable, then ack so the queue never redelivers it.
		log.Printf("[!] Discarding malformed payload: %v", err)
		if id, ok := partialID(delivery.Body()); ok {
			if markErr := w.store.MarkFailed(ctx, id, err.Error()); markErr != nil {
				log.Printf("[!] Failed to mark FAILED for %s: %v", id, markErr)
			}
		}
		w.ack(delivery, "malformed")
		return
	}

	log.Printf("Received message id=%s prompt_len=%d", req.ID, len(req.Prompt))

	if err := w.generate(ctx, req); err != nil {
		log.Printf("[!] Generation failed for %s: %v", req.ID, err)
		if markErr := w.store.MarkFailed(ctx, req.ID, err.Error()); markErr != nil {
			// Known gap: the record may stay stuck in PROCESSING. The job is
			// still acked to avoid infinite redelivery.
			log.Printf("[!] Failed to mark FAILED for %s: %v", req.ID, markErr)
		}
		w.ack(delivery, req.ID)
		return
	}

	log.Printf("[x] Generated video: %s elapsed=%.2fs", req.ID, time.Since(start).Seconds())
	w.ack(delivery, req.ID)
}

// generate runs one processing attempt: PROCESSING → synthesize →
// materialize → upload → COMPLETE. Any error aborts the attempt and is
// turned into a FAILED transition by the caller.
func (w *Worker) generate(ctx context.Context, req *models.GenerationRequest) error {
	log.Printf("id=%s mark_processing start", req.ID)
	if err := w.store.MarkProcessing(ctx, req.ID); err != nil {
		return fmt.Errorf("failed to mark processing: %w", err)
	}
	log.Printf("id=%s mark_processing complete", req.ID)

	outputPath := filepath.Join(w.outputDir, req.ID+w.materializer.Ext())
	defer os.Remove(outputPath)

	log.Printf("id=%s tts start output=%s", req.ID, outputPath)
	audio, err := w.synth.Synthesize(ctx, req.Prompt, w.voice)
	if err != nil {
		return err
	}

	if err := w.materializer.Materialize(ctx, audio, outputPath); err != nil {
		return err
	}
	log.Printf("id=%s tts complete", req.ID)

	key := storage.ObjectKey(req.ID, w.materializer.Ext())
	log.Printf("id=%s upload start", req.ID)
	if err := w.artifacts.UploadFile(ctx, key, outputPath, w.materializer.ContentType()); err != nil {
		return fmt.Errorf("failed to upload artifact: %w", err)
	}
	url := w.artifacts.PublicURL(key)
	log.Printf("id=%s upload complete url=%s", req.ID, url)

	log.Printf("id=%s mark_complete start", req.ID)
	if err := w.store.MarkComplete(ctx, req.ID, url); err != nil {
		return fmt.Errorf("failed to mark complete: %w", err)
	}
	log.Printf("id=%s mark_complete complete", req.ID)

	return nil
}

func (w *Worker) ack(delivery Delivery, id string) {
	if err := delivery.Ack(); err != nil {
		log.Printf("[!] Failed to ack %s: %v", id, err)
		return
	}
	log.Printf("id=%s acked", id)
}

// partialID salvages the id from a payload that failed full validation, so
// the failure can still be recorded against its record.
func partialID(body []byte) (string, bool) {
	req := struct {
		ID string `json:"id"`
	}{}
	if err := json.Unmarshal(body, &req); err != nil || req.ID == "" {
		return "", false
	}
	return req.ID, true
}
