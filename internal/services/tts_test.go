package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// fakeAudio builds deterministic per-chunk "audio" bytes.
func fakeAudio(tag, chunk string) []byte {
	return []byte(tag + ":" + chunk)
}

// newEndpointServer serves the synthesis wire contract: POST {text, voice},
// respond {<field>: base64}. failOn returns true for chunks that should 500.
func newEndpointServer(t *testing.T, tag, field string, delay time.Duration, failOn func(text string) bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req synthesisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if failOn != nil && failOn(req.Text) {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		if delay > 0 {
			time.Sleep(delay)
		}

		resp := map[string]string{
			field: base64.StdEncoding.EncodeToString(fakeAudio(tag, req.Text)),
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func expectedAudio(tag string, chunks []string) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, fakeAudio(tag, c)...)
	}
	return out
}

func TestSynthesizeSingleChunk(t *testing.T) {
	srv := newEndpointServer(t, "A", "data", 0, nil)
	defer srv.Close()

	engine := NewEngine([]Endpoint{{URL: srv.URL, ResponseField: "data"}}, 300)
	audio, err := engine.Synthesize(context.Background(), "Hello world.", VoiceUSMale1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := expectedAudio("A", []string{"Hello world."})
	if string(audio) != string(want) {
		t.Errorf("audio mismatch:\n got %q\nwant %q", audio, want)
	}
}

func TestSynthesizeJoinsPaddedFragments(t *testing.T) {
	// Per-chunk audio whose length is not a multiple of three, so every
	// base64 fragment carries '=' padding. The decoded bytes must still
	// concatenate to the in-order per-chunk audio.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"data": base64.StdEncoding.EncodeToString([]byte("AUDIO")),
		})
	}))
	defer srv.Close()

	text := "First sentence. Second sentence."
	chunks := SplitText(text, 17)
	if len(chunks) < 2 {
		t.Fatalf("test setup: expected multiple chunks, got %q", chunks)
	}

	engine := NewEngine([]Endpoint{{URL: srv.URL, ResponseField: "data"}}, 17)
	audio, err := engine.Synthesize(context.Background(), text, VoiceUSMale1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := strings.Repeat("AUDIO", len(chunks))
	if string(audio) != want {
		t.Errorf("audio mismatch:\n got %q\nwant %q", audio, want)
	}
}

func TestSynthesizeFailoverUsesNextEndpointEntirely(t *testing.T) {
	// Three chunks at limit 17; endpoint A fails chunk 2 of 3, B succeeds
	text := "First sentence. Second sentence. Third sentence."
	chunks := SplitText(text, 17)
	if len(chunks) != 3 {
		t.Fatalf("test setup: expected 3 chunks, got %q", chunks)
	}

	srvA := newEndpointServer(t, "A", "data", 0, func(chunk string) bool {
		return chunk == chunks[1]
	})
	defer srvA.Close()
	srvB := newEndpointServer(t, "B", "speaker", 0, nil)
	defer srvB.Close()

	engine := NewEngine([]Endpoint{
		{URL: srvA.URL, ResponseField: "data"},
		{URL: srvB.URL, ResponseField: "speaker"},
	}, 17)

	audio, err := engine.Synthesize(context.Background(), text, VoiceUSMale1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// All three fragments must come from endpoint B — A's partial results
	// for chunks 1 and 3 are discarded entirely
	want := expectedAudio("B", chunks)
	if string(audio) != string(want) {
		t.Errorf("audio mismatch:\n got %q\nwant %q", audio, want)
	}
	if strings.Contains(string(audio), "A:") {
		t.Errorf("audio mixes endpoints: %q", audio)
	}
}

func TestSynthesizeReassemblesOutOfOrderResponses(t *testing.T) {
	text := "First sentence. Second sentence. Third sentence."
	chunks := SplitText(text, 17)

	// Earlier chunks respond slower, so completion order is reversed
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req synthesisRequest
		json.NewDecoder(r.Body).Decode(&req)

		for i, c := range chunks {
			if c == req.Text {
				time.Sleep(time.Duration(len(chunks)-i) * 30 * time.Millisecond)
			}
		}
		calls.Add(1)

		json.NewEncoder(w).Encode(map[string]string{
			"data": base64.StdEncoding.EncodeToString(fakeAudio("A", req.Text)),
		})
	}))
	defer srv.Close()

	engine := NewEngine([]Endpoint{{URL: srv.URL, ResponseField: "data"}}, 17)
	audio, err := engine.Synthesize(context.Background(), text, VoiceUSMale1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := calls.Load(); got != int32(len(chunks)) {
		t.Errorf("expected %d requests, got %d", len(chunks), got)
	}

	want := expectedAudio("A", chunks)
	if string(audio) != string(want) {
		t.Errorf("reassembly not in chunk order:\n got %q\nwant %q", audio, want)
	}
}

func TestSynthesizeAllEndpointsFailed(t *testing.T) {
	srvA := newEndpointServer(t, "A", "data", 0, func(string) bool { return true })
	defer srvA.Close()
	srvB := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Success status but the advertised field is missing
		fmt.Fprint(w, `{"unexpected": "shape"}`)
	}))
	defer srvB.Close()

	engine := NewEngine([]Endpoint{
		{URL: srvA.URL, ResponseField: "data"},
		{URL: srvB.URL, ResponseField: "data"},
	}, 300)

	_, err := engine.Synthesize(context.Background(), "Hello world.", VoiceUSMale1)
	if !errors.Is(err, ErrAllEndpointsFailed) {
		t.Fatalf("expected ErrAllEndpointsFailed, got %v", err)
	}
}

func TestSynthesizeValidation(t *testing.T) {
	engine := NewEngine([]Endpoint{{URL: "http://unreachable.invalid", ResponseField: "data"}}, 300)

	if _, err := engine.Synthesize(context.Background(), "", VoiceUSMale1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("empty text: expected ErrInvalidInput, got %v", err)
	}

	if _, err := engine.Synthesize(context.Background(), "hello", Voice("klingon_1")); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad voice: expected ErrInvalidInput, got %v", err)
	}
}

func TestParseVoice(t *testing.T) {
	v, err := ParseVoice("US_MALE_1")
	if err != nil || v != VoiceUSMale1 {
		t.Errorf("expected US_MALE_1 -> %s, got %s (%v)", VoiceUSMale1, v, err)
	}

	v, err = ParseVoice("en_uk_001")
	if err != nil || v != VoiceUKMale1 {
		t.Errorf("expected wire id passthrough, got %s (%v)", v, err)
	}

	if _, err := ParseVoice("NOT_A_VOICE"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
