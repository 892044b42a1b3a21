package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
)

// ErrMaterialization marks failures while turning synthesized audio into the
// final artifact (transcription or mux collaborator errors). Fatal per job.
var ErrMaterialization = errors.New("materialization failed")

// Materializer turns synthesized audio bytes into the final artifact at
// outputPath. The two implementations are the deployment variants: a bare
// narration file, or a captioned video over a fixed background.
type Materializer interface {
	Materialize(ctx context.Context, audio []byte, outputPath string) error

	// Ext is the artifact's file extension (".mp3", ".mp4").
	Ext() string

	// ContentType is the artifact's MIME type for storage.
	ContentType() string
}

// ---------------------------------------------------------------------------
// Audio-only variant
// ---------------------------------------------------------------------------

type AudioMaterializer struct{}

func NewAudioMaterializer() *AudioMaterializer {
	return &AudioMaterializer{}
}

func (m *AudioMaterializer) Materialize(ctx context.Context, audio []byte, outputPath string) error {
	if err := os.WriteFile(outputPath, audio, 0644); err != nil {
		return fmt.Errorf("%w: write audio file: %v", ErrMaterialization, err)
	}
	return nil
}

func (m *AudioMaterializer) Ext() string         { return ".mp3" }
func (m *AudioMaterializer) ContentType() string { return "audio/mpeg" }

// ---------------------------------------------------------------------------
// Audio+video variant: transcribe → captions → mux over background video
// ---------------------------------------------------------------------------

type VideoMaterializer struct {
	openai         *OpenAIService
	ffmpeg         *FFmpegService
	backgroundPath string
	language       string
}

func NewVideoMaterializer(openaiSvc *OpenAIService, ffmpegSvc *FFmpegService, backgroundPath string) *VideoMaterializer {
	return &VideoMaterializer{
		openai:         openaiSvc,
		ffmpeg:         ffmpegSvc,
		backgroundPath: backgroundPath,
		language:       "en",
	}
}

func (m *VideoMaterializer) Materialize(ctx context.Context, audio []byte, outputPath string) error {
	// Intermediate files are scoped to this call and removed on every path
	tag := uuid.NewString()
	audioPath := m.ffmpeg.CreateTempFile(fmt.Sprintf("narration_%s.mp3", tag))
	captionPath := m.ffmpeg.CreateTempFile(fmt.Sprintf("captions_%s.srt", tag))
	defer m.ffmpeg.Cleanup(audioPath, captionPath)

	if err := os.WriteFile(audioPath, audio, 0644); err != nil {
		return fmt.Errorf("%w: write narration file: %v", ErrMaterialization, err)
	}

	if durationMs, err := m.ffmpeg.GetAudioDuration(ctx, audioPath); err != nil {
		log.Printf("Warning: could not measure narration duration: %v", err)
	} else {
		log.Printf("[Render] Narration duration: %dms", durationMs)
	}

	words, err := m.openai.TranscribeAudio(ctx, audio, m.language)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMaterialization, err)
	}

	if err := GenerateSRTCaptions(words, captionPath); err != nil {
		return fmt.Errorf("%w: %v", ErrMaterialization, err)
	}

	if err := m.ffmpeg.MuxNarratedVideo(ctx, m.backgroundPath, audioPath, captionPath, outputPath); err != nil {
		return fmt.Errorf("%w: %v", ErrMaterialization, err)
	}

	return nil
}

func (m *VideoMaterializer) Ext() string         { return ".mp4" }
func (m *VideoMaterializer) ContentType() string { return "video/mp4" }
