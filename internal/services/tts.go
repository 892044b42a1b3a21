package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// ---------------------------------------------------------------------------
// Speech synthesis engine
//
// Converts arbitrary-length text into one audio byte sequence:
//
//	validate → chunk → for each endpoint in priority order:
//	    fetch every chunk concurrently; any chunk failure discards the
//	    whole attempt and the next endpoint is tried.
//
// The unit of retry is the endpoint, never the individual chunk — mixing
// audio from different endpoints within one job is forbidden because voice
// and encoding characteristics differ across endpoints.
// ---------------------------------------------------------------------------

var (
	// ErrInvalidInput marks validation failures (empty text, unknown voice).
	// Fatal per job, never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrAllEndpointsFailed means every configured endpoint failed for at
	// least one chunk. Fatal per job.
	ErrAllEndpointsFailed = errors.New("failed to generate audio, all endpoints failed")
)

const requestTimeout = 30 * time.Second

type Engine struct {
	endpoints  []Endpoint
	chunkLimit int
	client     *http.Client
}

func NewEngine(endpoints []Endpoint, chunkLimit int) *Engine {
	return &Engine{
		endpoints:  endpoints,
		chunkLimit: chunkLimit,
		client:     &http.Client{Timeout: requestTimeout},
	}
}

// Synthesize converts text to one contiguous audio byte sequence, or fails
// with ErrInvalidInput / ErrAllEndpointsFailed. The result is always audio
// from a single endpoint with chunks in original text order.
func (e *Engine) Synthesize(ctx context.Context, text string, voice Voice) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text must not be empty", ErrInvalidInput)
	}
	if !voice.Valid() {
		return nil, fmt.Errorf("%w: unrecognized voice %q", ErrInvalidInput, voice)
	}

	chunks := SplitText(text, e.chunkLimit)
	log.Printf("[TTS] Synthesizing %d chunk(s) (textLen=%d, voice=%s)", len(chunks), len(text), voice)

	var lastErr error
	for i, endpoint := range e.endpoints {
		audio, err := e.fetchAll(ctx, endpoint, chunks, voice)
		if err == nil {
			log.Printf("[TTS] Endpoint %d/%d succeeded (%d bytes)", i+1, len(e.endpoints), len(audio))
			return audio, nil
		}

		lastErr = err
		log.Printf("[TTS] Endpoint %d/%d failed, trying next: %v", i+1, len(e.endpoints), err)

		// A cancelled job should not walk the rest of the list
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w (last error: %v)", ErrAllEndpointsFailed, lastErr)
}

// fetchAll issues one request per chunk, all in flight concurrently, and
// reassembles the decoded responses strictly by original chunk index. Any
// single failure fails the whole endpoint attempt; no partial result escapes.
func (e *Engine) fetchAll(ctx context.Context, endpoint Endpoint, chunks []string, voice Voice) ([]byte, error) {
	// One slot per chunk, indexed by position — completion order is irrelevant
	decoded := make([][]byte, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			data, err := e.fetchChunk(gctx, endpoint, chunk, voice)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			decoded[i] = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	audio := bytes.Join(decoded, nil)
	if len(audio) == 0 {
		return nil, fmt.Errorf("endpoint returned empty audio")
	}

	return audio, nil
}

type synthesisRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// fetchChunk performs a single synthesis request and returns the decoded
// audio bytes from the endpoint's base64 field. Each fragment is decoded on
// its own because endpoints pad every response, so raw fragments cannot be
// joined before decoding.
func (e *Engine) fetchChunk(ctx context.Context, endpoint Endpoint, chunk string, voice Voice) ([]byte, error) {
	body, err := json.Marshal(synthesisRequest{Text: chunk, Voice: string(voice)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("endpoint returned status %d: %s", resp.StatusCode, respBody)
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var encoded string
	raw, ok := payload[endpoint.ResponseField]
	if !ok {
		return nil, fmt.Errorf("response missing field %q", endpoint.ResponseField)
	}
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("field %q is not a string: %w", endpoint.ResponseField, err)
	}

	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio payload: %w", err)
	}

	return audio, nil
}
