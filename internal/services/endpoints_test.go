package services

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEndpointsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "endpoints.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func TestLoadEndpointsPreservesOrder(t *testing.T) {
	path := writeEndpointsFile(t, `
- url: https://tts-primary.example.com/api
  response: data
- url: https://tts-secondary.example.com/synthesize
  response: v_str
- url: https://tts-tertiary.example.com/speak
  response: audio
`)

	endpoints, err := LoadEndpoints(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(endpoints) != 3 {
		t.Fatalf("expected 3 endpoints, got %d", len(endpoints))
	}
	if endpoints[0].URL != "https://tts-primary.example.com/api" || endpoints[0].ResponseField != "data" {
		t.Errorf("first endpoint wrong: %+v", endpoints[0])
	}
	if endpoints[2].ResponseField != "audio" {
		t.Errorf("order not preserved: %+v", endpoints)
	}
}

func TestLoadEndpointsRejectsBadFiles(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"empty list", `[]`},
		{"missing url", "- response: data\n"},
		{"missing response field", "- url: https://example.com\n"},
		{"not yaml", `{{{`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeEndpointsFile(t, tc.content)
			if _, err := LoadEndpoints(path); err == nil {
				t.Errorf("expected error for %s", tc.name)
			}
		})
	}
}

func TestLoadEndpointsMissingFile(t *testing.T) {
	if _, err := LoadEndpoints(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
