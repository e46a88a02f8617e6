package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fuega-ai/backend/internal/domain/enums"
	"github.com/fuega-ai/backend/internal/domain/model"
	"github.com/fuega-ai/backend/internal/services/prompt"
)

const (
	confidenceClean    = 0.85
	confidenceFallback = 0.5
)

type tierSpec struct {
	Tier          enums.Tier
	Rules         string
	PromptVersion int
}

// runTier executes one tier: build the prompt, call the oracle, validate
// the response, apply the injection override. A failed oracle call yields a
// flagged decision, never an error; the only error returned is the pipeline
// timeout sentinel, which the orchestrator handles at the top level.
func (s *Service) runTier(ctx context.Context, spec tierSpec, req Request) (model.TierDecision, error) {
	started := time.Now()

	built, err := prompt.Build(spec.Tier, req.Community.Name, spec.Rules, req.Content)
	if err != nil {
		// Unreachable with valid tier specs; fail toward review anyway.
		return model.TierDecision{
			Decision:         enums.DecisionFlagged,
			Confidence:       0,
			Reasoning:        fmt.Sprintf("prompt build failed: %v", err),
			AgentLevel:       spec.Tier,
			AIModel:          s.oracle.Model(),
			PromptVersion:    spec.PromptVersion,
			ProcessingTimeMS: time.Since(started).Milliseconds(),
		}, nil
	}

	injectionDetected := built.ContentSanitization.InjectionDetected
	patterns := append([]string{}, built.ContentSanitization.PatternsFound...)
	if built.RulesSanitization != nil && built.RulesSanitization.InjectionDetected {
		injectionDetected = true
		patterns = mergePatternNames(patterns, built.RulesSanitization.PatternsFound)
	}

	raw, err := s.oracle.Complete(ctx, built.System, built.User)
	if err != nil {
		if ctx.Err() != nil {
			return model.TierDecision{}, ErrPipelineTimeout
		}
		return model.TierDecision{
			Decision:          enums.DecisionFlagged,
			Confidence:        0,
			Reasoning:         fmt.Sprintf("moderation call failed, queued for human review: %v", err),
			AgentLevel:        spec.Tier,
			AIModel:           s.oracle.Model(),
			PromptVersion:     spec.PromptVersion,
			InjectionDetected: injectionDetected,
			InjectionPatterns: patterns,
			ProcessingTimeMS:  time.Since(started).Milliseconds(),
		}, nil
	}

	validated := ValidateResponse(raw)

	decision := validated.Verdict.Decision()
	reasoning := validated.Reason
	confidence := confidenceClean
	if !validated.Valid {
		confidence = confidenceFallback
	}

	// Injection override: an oracle approval never passes through when
	// injection patterns were detected, regardless of why it approved.
	if injectionDetected && validated.Verdict == enums.VerdictApprove {
		decision = enums.DecisionFlagged
		reasoning = "prompt injection patterns detected: " + strings.Join(patterns, ", ")
	}

	return model.TierDecision{
		Decision:          decision,
		Confidence:        confidence,
		Reasoning:         reasoning,
		AgentLevel:        spec.Tier,
		AIModel:           s.oracle.Model(),
		PromptVersion:     spec.PromptVersion,
		InjectionDetected: injectionDetected,
		InjectionPatterns: patterns,
		ProcessingTimeMS:  time.Since(started).Milliseconds(),
	}, nil
}

func mergePatternNames(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	for _, name := range base {
		seen[name] = true
	}
	for _, name := range extra {
		if seen[name] {
			continue
		}
		seen[name] = true
		base = append(base, name)
	}
	return base
}
