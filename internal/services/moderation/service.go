package moderation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fuega-ai/backend/internal/domain/enums"
	"github.com/fuega-ai/backend/internal/domain/model"
	pgrepo "github.com/fuega-ai/backend/internal/repo/postgres"
	"github.com/fuega-ai/backend/internal/services/prompt"
)

const defaultPipelineTimeout = 5 * time.Second

// ErrPipelineTimeout is internal to the pipeline: runTier reports it when
// the overall deadline killed the oracle call, and ModerateContent converts
// it into the synthetic flagged result. It never reaches callers.
var ErrPipelineTimeout = errors.New("moderation pipeline deadline exceeded")

type Oracle interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Model() string
}

type AuditStore interface {
	Insert(ctx context.Context, rec pgrepo.ModerationLogRecord) error
}

type Config struct {
	PipelineTimeout time.Duration
}

// Request is one moderation invocation. Content and Community are owned by
// the caller; the service never mutates them and keeps no reference to the
// returned result.
type Request struct {
	ContentID int64
	AuthorID  int64
	Content   model.ModerationContent
	Community model.CommunityContext
}

type Service struct {
	oracle Oracle
	audit  AuditStore
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the pipeline. A nil oracle means no credential is
// configured: the service then answers through the basic safety filter.
func NewService(oracle Oracle, audit AuditStore, cfg Config, log *zap.Logger) *Service {
	if cfg.PipelineTimeout <= 0 {
		cfg.PipelineTimeout = defaultPipelineTimeout
	}

	return &Service{
		oracle: oracle,
		audit:  audit,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// ModerateContent always returns a decision. Internal failures degrade
// toward human review (flagged); they are never surfaced as errors and
// never resolve to silent removal or silent approval.
func (s *Service) ModerateContent(ctx context.Context, req Request) model.PipelineResult {
	start := s.now()

	if s.oracle == nil {
		decision := runBasicFilter(req.Content)
		s.logDecision(ctx, req, decision)

		result := model.PipelineResult{
			FinalDecision: decision.Decision,
			TierDecisions: []model.TierDecision{decision},
			TotalTimeMS:   time.Since(start).Milliseconds(),
		}
		if decision.Decision == enums.DecisionRemoved {
			result.StoppedAtTier = enums.TierPlatform
		}
		return result
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.PipelineTimeout)
	defer cancel()

	result, err := s.runPipeline(ctx, req)
	if err != nil {
		return s.timeoutResult(ctx, req, start)
	}

	result.TotalTimeMS = time.Since(start).Milliseconds()
	return result
}

// runPipeline sequences the tiers in fixed order. Platform and category are
// non-negotiable gates that short-circuit on removal; flags from any tier
// accumulate without blocking later tiers.
func (s *Service) runPipeline(ctx context.Context, req Request) (model.PipelineResult, error) {
	tiers := s.tierPlan(req.Community)

	decisions := make([]model.TierDecision, 0, len(tiers))
	for _, spec := range tiers {
		if ctx.Err() != nil {
			return model.PipelineResult{}, ErrPipelineTimeout
		}

		decision, err := s.runTier(ctx, spec, req)
		if err != nil {
			return model.PipelineResult{}, err
		}

		decisions = append(decisions, decision)
		s.logDecision(ctx, req, decision)

		if decision.Decision == enums.DecisionRemoved {
			return model.PipelineResult{
				FinalDecision: enums.DecisionRemoved,
				TierDecisions: decisions,
				StoppedAtTier: spec.Tier,
			}, nil
		}
	}

	final := enums.DecisionApproved
	for _, decision := range decisions {
		if decision.Decision == enums.DecisionFlagged {
			final = enums.DecisionFlagged
			break
		}
	}

	return model.PipelineResult{
		FinalDecision: final,
		TierDecisions: decisions,
	}, nil
}

func (s *Service) tierPlan(community model.CommunityContext) []tierSpec {
	tiers := make([]tierSpec, 0, 3)

	tiers = append(tiers, tierSpec{
		Tier:          enums.TierPlatform,
		PromptVersion: prompt.PlatformPromptVersion,
	})

	if community.CategoryRules != nil {
		version := 1
		if community.CategoryPromptVersion != nil {
			version = *community.CategoryPromptVersion
		}
		tiers = append(tiers, tierSpec{
			Tier:          enums.TierCategory,
			Rules:         *community.CategoryRules,
			PromptVersion: version,
		})
	}

	tiers = append(tiers, tierSpec{
		Tier:          enums.TierCommunity,
		Rules:         community.AIPrompt,
		PromptVersion: community.AIPromptVersion,
	})

	return tiers
}

func (s *Service) timeoutResult(ctx context.Context, req Request, start time.Time) model.PipelineResult {
	elapsed := time.Since(start).Milliseconds()

	decision := model.TierDecision{
		Decision:         enums.DecisionFlagged,
		Confidence:       0,
		Reasoning:        fmt.Sprintf("moderation pipeline timed out after %s; queued for human review", s.cfg.PipelineTimeout),
		AgentLevel:       enums.TierPlatform,
		AIModel:          s.oracle.Model(),
		ProcessingTimeMS: elapsed,
	}
	s.logDecision(ctx, req, decision)

	return model.PipelineResult{
		FinalDecision: enums.DecisionFlagged,
		TierDecisions: []model.TierDecision{decision},
		TotalTimeMS:   elapsed,
	}
}

// logDecision hands a tier decision to the audit collaborator. Audit is
// best-effort: a failed write never alters the moderation outcome. The
// write is detached from the pipeline deadline so a timed-out request
// still leaves a trail.
func (s *Service) logDecision(ctx context.Context, req Request, decision model.TierDecision) {
	if s.audit == nil {
		return
	}

	err := s.audit.Insert(context.WithoutCancel(ctx), pgrepo.ModerationLogRecord{
		ContentType:       string(req.Content.ContentType),
		ContentID:         req.ContentID,
		CommunityID:       req.Community.ID,
		AuthorID:          req.AuthorID,
		AgentLevel:        string(decision.AgentLevel),
		Decision:          string(decision.Decision),
		Confidence:        decision.Confidence,
		Reasoning:         decision.Reasoning,
		AIModel:           decision.AIModel,
		PromptVersion:     decision.PromptVersion,
		InjectionDetected: decision.InjectionDetected,
		InjectionPatterns: decision.InjectionPatterns,
		ProcessingTimeMS:  decision.ProcessingTimeMS,
	})
	if err != nil && s.logger != nil {
		s.logger.Error("audit log write failed",
			zap.Int64("content_id", req.ContentID),
			zap.String("agent_level", string(decision.AgentLevel)),
			zap.Error(err),
		)
	}
}
