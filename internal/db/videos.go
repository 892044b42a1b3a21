package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rezghost/content-droid/internal/models"
)

// MarkProcessing transitions a video to PROCESSING. COALESCE keeps the
// original started_at on redelivery so the first attempt's start time wins.
func (db *DB) MarkProcessing(ctx context.Context, videoID string) error {
	query := `
		UPDATE videos
		SET status = 'PROCESSING',
		    started_at = COALESCE(started_at, NOW()),
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := db.ExecContext(ctx, query, videoID)
	if err != nil {
		return fmt.Errorf("failed to mark video %s processing: %w", videoID, err)
	}
	return nil
}

// MarkComplete transitions a video to COMPLETE with its download location.
func (db *DB) MarkComplete(ctx context.Context, videoID, downloadLocation string) error {
	query := `
		UPDATE videos
		SET status = 'COMPLETE',
		    storage_key = $1,
		    progress = 100,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE id = $2
	`

	_, err := db.ExecContext(ctx, query, downloadLocation, videoID)
	if err != nil {
		return fmt.Errorf("failed to mark video %s complete: %w", videoID, err)
	}
	return nil
}

// MarkFailed transitions a video to FAILED, truncating the error message to
// fit the error_message column.
func (db *DB) MarkFailed(ctx context.Context, videoID, errorMessage string) error {
	query := `
		UPDATE videos
		SET status = 'FAILED',
		    error_message = $1,
		    updated_at = NOW()
		WHERE id = $2
	`

	msg := models.TruncateError(errorMessage, models.MaxErrorMessageLen)
	_, err := db.ExecContext(ctx, query, msg, videoID)
	if err != nil {
		return fmt.Errorf("failed to mark video %s failed: %w", videoID, err)
	}
	return nil
}

// GetVideo returns a single video row. Consumed by the debug endpoint on the
// worker's health server; the runner itself never reads job state back.
func (db *DB) GetVideo(ctx context.Context, videoID string) (*models.Video, error) {
	query := `
		SELECT
			id, storage_key, file_name, mime_type, status,
			COALESCE(progress, 0), error_message,
			created_at, started_at, completed_at, updated_at
		FROM videos
		WHERE id = $1
	`

	video := &models.Video{}
	err := db.QueryRowContext(ctx, query, videoID).Scan(
		&video.ID, &video.StorageKey, &video.FileName, &video.MimeType,
		&video.Status, &video.Progress, &video.ErrorMessage,
		&video.CreatedAt, &video.StartedAt, &video.CompletedAt, &video.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("video %s not found", videoID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}

	return video, nil
}
