package dto

import "time"

type ModerateRequest struct {
	ContentID      int64  `json:"content_id"`
	CommunityID    int64  `json:"community_id"`
	AuthorID       int64  `json:"author_id"`
	ContentType    string `json:"content_type"`
	Title          string `json:"title"`
	Body           string `json:"body"`
	AuthorUsername string `json:"author_username"`
}

type TierDecisionResponse struct {
	Decision          string   `json:"decision"`
	Confidence        float64  `json:"confidence"`
	Reasoning         string   `json:"reasoning"`
	AgentLevel        string   `json:"agent_level"`
	AIModel           string   `json:"ai_model"`
	PromptVersion     int      `json:"prompt_version"`
	InjectionDetected bool     `json:"injection_detected"`
	InjectionPatterns []string `json:"injection_patterns,omitempty"`
	ProcessingTimeMS  int64    `json:"processing_time_ms"`
}

type ModerateResponse struct {
	FinalDecision string                 `json:"final_decision"`
	TierDecisions []TierDecisionResponse `json:"tier_decisions"`
	TotalTimeMS   int64                  `json:"total_time_ms"`
	StoppedAtTier string                 `json:"stopped_at_tier,omitempty"`
}

type ModerationLogEntry struct {
	ID                string    `json:"id"`
	ContentType       string    `json:"content_type"`
	ContentID         int64     `json:"content_id"`
	CommunityID       int64     `json:"community_id"`
	AgentLevel        string    `json:"agent_level"`
	Decision          string    `json:"decision"`
	Confidence        float64   `json:"confidence"`
	Reasoning         string    `json:"reasoning"`
	AIModel           string    `json:"ai_model"`
	PromptVersion     int       `json:"prompt_version"`
	InjectionDetected bool      `json:"injection_detected"`
	InjectionPatterns []string  `json:"injection_patterns,omitempty"`
	ProcessingTimeMS  int64     `json:"processing_time_ms"`
	CreatedAt         time.Time `json:"created_at"`
}

type ModerationLogResponse struct {
	ContentID int64                `json:"content_id"`
	Entries   []ModerationLogEntry `json:"entries"`
}

type ModerationBudgetResponse struct {
	AuthorID      int64 `json:"author_id"`
	Allowed       bool  `json:"allowed"`
	RetryAfterSec int64 `json:"retry_after_sec"`
}
