package services

import (
	"fmt"
	"os"
	"strings"
)

// ---------------------------------------------------------------------------
// SRT caption generator
//
// Emits one caption entry per transcribed word so the burned-in captions
// track the narration word by word. Timestamps use the SRT format
// HH:MM:SS,mmm and are forced non-decreasing across the sequence, since
// Whisper occasionally reports a word starting before the previous one ends.
// ---------------------------------------------------------------------------

// GenerateSRTCaptions writes a word-per-entry SRT file from word timestamps.
func GenerateSRTCaptions(words []WordTimestamp, outputPath string) error {
	if len(words) == 0 {
		return fmt.Errorf("no words to generate captions from")
	}

	var sb strings.Builder
	cursor := 0.0
	entry := 0

	for _, word := range words {
		text := strings.TrimSpace(word.Word)
		if text == "" {
			continue
		}

		start := word.Start
		if start < cursor {
			start = cursor
		}
		end := word.End
		if end < start {
			end = start
		}
		cursor = end

		entry++
		sb.WriteString(fmt.Sprintf("%d\n", entry))
		sb.WriteString(fmt.Sprintf("%s --> %s\n", formatSRTTime(start), formatSRTTime(end)))
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}

	if entry == 0 {
		return fmt.Errorf("no words to generate captions from")
	}

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("failed to write SRT caption file: %w", err)
	}

	return nil
}

// formatSRTTime converts seconds to the SRT timestamp format: HH:MM:SS,mmm
func formatSRTTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}

	millis := int(seconds*1000 + 0.5)
	hours := millis / 3600000
	minutes := (millis % 3600000) / 60000
	secs := (millis % 60000) / 1000
	ms := millis % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, ms)
}
