package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCommunityNotFound = errors.New("community not found")

// CommunityRepo reads the governance-owned moderation context: the
// community's AI rule text and version plus the optional category-level
// rules. This module never writes these rows.
type CommunityRepo struct {
	pool *pgxpool.Pool
}

type CommunityContextRecord struct {
	ID                    int64
	Name                  string
	AIPrompt              string
	AIPromptVersion       int
	CategoryRules         *string
	CategoryPromptVersion *int
}

func NewCommunityRepo(pool *pgxpool.Pool) *CommunityRepo {
	return &CommunityRepo{pool: pool}
}

func (r *CommunityRepo) GetContext(ctx context.Context, communityID int64) (CommunityContextRecord, error) {
	if r.pool == nil {
		return CommunityContextRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if communityID <= 0 {
		return CommunityContextRecord{}, fmt.Errorf("invalid community id")
	}

	var rec CommunityContextRecord
	err := r.pool.QueryRow(ctx, `
SELECT c.id, c.name, c.ai_prompt, c.ai_prompt_version, cat.rules, cat.prompt_version
FROM communities c
LEFT JOIN categories cat ON cat.id = c.category_id
WHERE c.id = $1
`, communityID).Scan(
		&rec.ID,
		&rec.Name,
		&rec.AIPrompt,
		&rec.AIPromptVersion,
		&rec.CategoryRules,
		&rec.CategoryPromptVersion,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CommunityContextRecord{}, ErrCommunityNotFound
		}
		return CommunityContextRecord{}, fmt.Errorf("get community context: %w", err)
	}

	return rec, nil
}
