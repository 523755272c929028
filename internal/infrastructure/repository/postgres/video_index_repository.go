package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/akozlenkov/videoqa/internal/core/domain"
)

type VideoIndexRepository struct {
	db *sql.DB
}

func NewVideoIndexRepository(db *sql.DB) *VideoIndexRepository {
	return &VideoIndexRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *VideoIndexRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082601)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS video_indexes (
	video_id TEXT PRIMARY KEY,
	namespace TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	chunk_size INTEGER NOT NULL,
	chunk_overlap INTEGER NOT NULL,
	num_chunks INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_video_indexes_status ON video_indexes(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Upsert resets an existing record: re-scheduling a video starts its lifecycle
// over with the new chunking parameters.
func (r *VideoIndexRepository) Upsert(ctx context.Context, idx *domain.VideoIndex) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO video_indexes (
	video_id, namespace, status, chunk_size, chunk_overlap, num_chunks, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (video_id) DO UPDATE SET
	namespace = EXCLUDED.namespace,
	status = EXCLUDED.status,
	chunk_size = EXCLUDED.chunk_size,
	chunk_overlap = EXCLUDED.chunk_overlap,
	num_chunks = EXCLUDED.num_chunks,
	error_message = EXCLUDED.error_message,
	updated_at = EXCLUDED.updated_at
`,
		idx.VideoID, idx.Namespace, string(idx.Status), idx.ChunkSize, idx.ChunkOverlap,
		idx.NumChunks, idx.Error, idx.CreatedAt, idx.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert video index: %w", err)
	}
	return nil
}

func (r *VideoIndexRepository) GetByVideoID(ctx context.Context, videoID string) (*domain.VideoIndex, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT video_id, namespace, status, chunk_size, chunk_overlap, num_chunks, error_message, created_at, updated_at
FROM video_indexes
WHERE video_id = $1
`, videoID)

	var idx domain.VideoIndex
	var status string

	err := row.Scan(
		&idx.VideoID, &idx.Namespace, &status, &idx.ChunkSize, &idx.ChunkOverlap,
		&idx.NumChunks, &idx.Error, &idx.CreatedAt, &idx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "get video index", fmt.Errorf("video %s", videoID))
		}
		return nil, fmt.Errorf("scan video index: %w", err)
	}
	idx.Status = domain.IndexStatus(status)
	return &idx, nil
}

func (r *VideoIndexRepository) UpdateStatus(ctx context.Context, videoID string, status domain.IndexStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE video_indexes
SET status = $2, error_message = $3, updated_at = $4
WHERE video_id = $1
`, videoID, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update video index status: %w", err)
	}
	return requireRowAffected(result, "update video index status", videoID)
}

func (r *VideoIndexRepository) SetChunkCount(ctx context.Context, videoID string, numChunks int) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE video_indexes
SET num_chunks = $2, updated_at = $3
WHERE video_id = $1
`, videoID, numChunks, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set video index chunk count: %w", err)
	}
	return requireRowAffected(result, "set video index chunk count", videoID)
}

func requireRowAffected(result sql.Result, operation, videoID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrNotFound, operation, fmt.Errorf("video %s", videoID))
	}
	return nil
}
