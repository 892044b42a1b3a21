package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ---------------------------------------------------------------------------
// FFmpegService — wraps the ffmpeg/ffprobe subprocesses that combine the
// fixed background video, the narration audio, and the caption track into
// the final artifact.
// ---------------------------------------------------------------------------

type FFmpegService struct {
	tempDir string
}

func NewFFmpegService(tempDir string) *FFmpegService {
	// Create temp directory if it doesn't exist
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		panic(fmt.Sprintf("failed to create temp dir: %v", err))
	}

	return &FFmpegService{
		tempDir: tempDir,
	}
}

// MuxNarratedVideo renders the final video: the background video loops until
// the narration ends, its native audio is discarded in favor of the
// narration, and the SRT captions are burned in. A non-zero ffmpeg exit is a
// fatal error for the job.
// If subtitlePath is empty the captions are skipped.
func (s *FFmpegService) MuxNarratedVideo(ctx context.Context, backgroundPath, audioPath, subtitlePath, outputPath string) error {
	vf := ""
	if subtitlePath != "" {
		// Escape colons and backslashes in the path for FFmpeg filter syntax
		escapedPath := escapeFFmpegFilterPath(subtitlePath)
		vf = fmt.Sprintf("subtitles='%s'", escapedPath)
		log.Printf("[FFmpeg] Burning in captions from %s", subtitlePath)
	}

	args := []string{
		"-stream_loop", "-1", // Loop the background video until the audio ends
		"-i", backgroundPath, // Input 0: background video (its audio is discarded)
		"-i", audioPath, // Input 1: narration audio
	}
	if vf != "" {
		args = append(args, "-vf", vf)
	}
	args = append(args,
		"-map", "0:v", // Video from the background file
		"-map", "1:a", // Narration audio only
		"-c:v", "libx264",
		"-c:a", "aac",
		"-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-shortest", // End when the narration ends
		"-y",
		outputPath,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg mux failed: %w", err)
	}

	return nil
}

// GetAudioDuration returns the duration of an audio file in milliseconds
func (s *FFmpegService) GetAudioDuration(ctx context.Context, audioPath string) (int, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	}

	cmd := exec.CommandContext(ctx, "ffprobe", args...)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var durationSec float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(output)), "%f", &durationSec); err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}

	return int(durationSec * 1000), nil
}

// CreateTempFile returns a path for a temporary file in the service's temp directory
func (s *FFmpegService) CreateTempFile(filename string) string {
	return filepath.Join(s.tempDir, filename)
}

// Cleanup removes temporary files
func (s *FFmpegService) Cleanup(paths ...string) {
	for _, path := range paths {
		os.Remove(path)
	}
}

// escapeFFmpegFilterPath escapes special characters in file paths for FFmpeg filter syntax.
// FFmpeg filter strings treat colons, backslashes, and single quotes specially.
func escapeFFmpegFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "\\\\")
	path = strings.ReplaceAll(path, ":", "\\:")
	path = strings.ReplaceAll(path, "'", "'\\''")
	return path
}
