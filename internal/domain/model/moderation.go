package model

import (
	"github.com/fuega-ai/backend/internal/domain/enums"
)

// ModerationContent is the immutable input handed to the pipeline by the
// submission flow. The pipeline never mutates it.
type ModerationContent struct {
	ContentType    enums.ContentType
	Title          string
	Body           string
	AuthorUsername string
}

// CommunityContext supplies the community-owned rule material for one
// moderation request. Owned and mutated by the governance subsystem.
type CommunityContext struct {
	ID                    int64
	Name                  string
	AIPrompt              string
	AIPromptVersion       int
	CategoryRules         *string
	CategoryPromptVersion *int
}

// TierDecision is one tier's verdict. Appended to the trail, never mutated.
type TierDecision struct {
	Decision          enums.Decision
	Confidence        float64
	Reasoning         string
	AgentLevel        enums.Tier
	AIModel           string
	PromptVersion     int
	InjectionDetected bool
	InjectionPatterns []string
	ProcessingTimeMS  int64
}

// PipelineResult is the terminal artifact of one moderation request. The
// caller owns it once returned; the pipeline keeps no reference.
type PipelineResult struct {
	FinalDecision enums.Decision
	TierDecisions []TierDecision
	TotalTimeMS   int64
	StoppedAtTier enums.Tier
}
