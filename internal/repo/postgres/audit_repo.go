package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepo persists per-tier moderation decisions for public transparency.
// The pipeline writes here and never reads its own rows back; ListByContent
// serves the public trail endpoint.
type AuditRepo struct {
	pool *pgxpool.Pool
}

type ModerationLogRecord struct {
	ID                string
	ContentType       string
	ContentID         int64
	CommunityID       int64
	AuthorID          int64
	AgentLevel        string
	Decision          string
	Confidence        float64
	Reasoning         string
	AIModel           string
	PromptVersion     int
	InjectionDetected bool
	InjectionPatterns []string
	ProcessingTimeMS  int64
	CreatedAt         time.Time
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Insert(ctx context.Context, rec ModerationLogRecord) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if rec.ContentID <= 0 {
		return fmt.Errorf("invalid moderation log payload")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.InjectionPatterns == nil {
		rec.InjectionPatterns = []string{}
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO moderation_log (
	id,
	content_type,
	content_id,
	community_id,
	author_id,
	agent_level,
	decision,
	confidence,
	reasoning,
	ai_model,
	prompt_version,
	injection_detected,
	injection_patterns,
	processing_time_ms,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW())
`,
		rec.ID,
		rec.ContentType,
		rec.ContentID,
		rec.CommunityID,
		rec.AuthorID,
		rec.AgentLevel,
		rec.Decision,
		rec.Confidence,
		rec.Reasoning,
		rec.AIModel,
		rec.PromptVersion,
		rec.InjectionDetected,
		rec.InjectionPatterns,
		rec.ProcessingTimeMS,
	); err != nil {
		return fmt.Errorf("insert moderation log record: %w", err)
	}

	return nil
}

// DeleteOlderThan prunes trail rows past the retention horizon. The public
// log is a transparency window, not an archive.
func (r *AuditRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM moderation_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale moderation log records: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *AuditRepo) ListByContent(ctx context.Context, contentID int64) ([]ModerationLogRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}
	if contentID <= 0 {
		return nil, fmt.Errorf("invalid content id")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, content_type, content_id, community_id, author_id, agent_level, decision,
       confidence, reasoning, ai_model, prompt_version, injection_detected,
       injection_patterns, processing_time_ms, created_at
FROM moderation_log
WHERE content_id = $1
ORDER BY created_at ASC, id ASC
`, contentID)
	if err != nil {
		return nil, fmt.Errorf("list moderation log records: %w", err)
	}
	defer rows.Close()

	var records []ModerationLogRecord
	for rows.Next() {
		var rec ModerationLogRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.ContentType,
			&rec.ContentID,
			&rec.CommunityID,
			&rec.AuthorID,
			&rec.AgentLevel,
			&rec.Decision,
			&rec.Confidence,
			&rec.Reasoning,
			&rec.AIModel,
			&rec.PromptVersion,
			&rec.InjectionDetected,
			&rec.InjectionPatterns,
			&rec.ProcessingTimeMS,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan moderation log record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate moderation log records: %w", err)
	}

	return records, nil
}
