package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fuega-ai/backend/internal/domain/enums"
	"github.com/fuega-ai/backend/internal/domain/model"
	"github.com/fuega-ai/backend/internal/pkg/validate"
	pgrepo "github.com/fuega-ai/backend/internal/repo/postgres"
	modsvc "github.com/fuega-ai/backend/internal/services/moderation"
	"github.com/fuega-ai/backend/internal/transport/http/dto"
	httperrors "github.com/fuega-ai/backend/internal/transport/http/errors"
)

type CommunityStore interface {
	GetContext(ctx context.Context, communityID int64) (pgrepo.CommunityContextRecord, error)
}

type AuditReader interface {
	ListByContent(ctx context.Context, contentID int64) ([]pgrepo.ModerationLogRecord, error)
}

type RateLimiter interface {
	AllowModeration(ctx context.Context, authorID int64) (int64, bool, error)
	RetryAfterModeration(ctx context.Context, authorID int64) (int64, error)
}

type ModerationHandler struct {
	service     *modsvc.Service
	communities CommunityStore
	audit       AuditReader
	limiter     RateLimiter
	logger      *zap.Logger
}

func NewModerationHandler(service *modsvc.Service, communities CommunityStore, audit AuditReader, limiter RateLimiter, log *zap.Logger) *ModerationHandler {
	return &ModerationHandler{
		service:     service,
		communities: communities,
		audit:       audit,
		limiter:     limiter,
		logger:      log,
	}
}

func (h *ModerationHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		writeInternal(w, "MODERATION_SERVICE_UNAVAILABLE", "moderation service is unavailable")
		return
	}

	var req dto.ModerateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "request body is not valid json")
		return
	}
	if code, msg, ok := validateModerateRequest(req); !ok {
		writeBadRequest(w, code, msg)
		return
	}

	if h.limiter != nil {
		retryAfter, allowed, err := h.limiter.AllowModeration(r.Context(), req.AuthorID)
		if err != nil {
			// Budget accounting must not take moderation down with it.
			if h.logger != nil {
				h.logger.Warn("moderation rate check failed", zap.Error(err))
			}
		} else if !allowed {
			writeRateLimited(w, retryAfter)
			return
		}
	}

	community, err := h.loadCommunity(r.Context(), req.CommunityID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCommunityNotFound) {
			writeNotFound(w, "COMMUNITY_NOT_FOUND", "community does not exist")
			return
		}
		writeInternal(w, "INTERNAL_ERROR", "failed to load community context")
		return
	}

	result := h.service.ModerateContent(r.Context(), modsvc.Request{
		ContentID: req.ContentID,
		AuthorID:  req.AuthorID,
		Content: model.ModerationContent{
			ContentType:    enums.ContentType(req.ContentType),
			Title:          req.Title,
			Body:           req.Body,
			AuthorUsername: req.AuthorUsername,
		},
		Community: community,
	})

	httperrors.Write(w, http.StatusOK, toModerateResponse(result))
}

func (h *ModerationHandler) Log(w http.ResponseWriter, r *http.Request) {
	if h.audit == nil {
		writeInternal(w, "AUDIT_STORE_UNAVAILABLE", "moderation log store is unavailable")
		return
	}

	contentID, err := strconv.ParseInt(chi.URLParam(r, "content_id"), 10, 64)
	if err != nil || contentID <= 0 {
		writeBadRequest(w, "INVALID_REQUEST", "content_id must be a positive integer")
		return
	}

	records, err := h.audit.ListByContent(r.Context(), contentID)
	if err != nil {
		writeInternal(w, "INTERNAL_ERROR", "failed to load moderation log")
		return
	}

	entries := make([]dto.ModerationLogEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, dto.ModerationLogEntry{
			ID:                rec.ID,
			ContentType:       rec.ContentType,
			ContentID:         rec.ContentID,
			CommunityID:       rec.CommunityID,
			AgentLevel:        rec.AgentLevel,
			Decision:          rec.Decision,
			Confidence:        rec.Confidence,
			Reasoning:         rec.Reasoning,
			AIModel:           rec.AIModel,
			PromptVersion:     rec.PromptVersion,
			InjectionDetected: rec.InjectionDetected,
			InjectionPatterns: rec.InjectionPatterns,
			ProcessingTimeMS:  rec.ProcessingTimeMS,
			CreatedAt:         rec.CreatedAt,
		})
	}

	httperrors.Write(w, http.StatusOK, dto.ModerationLogResponse{
		ContentID: contentID,
		Entries:   entries,
	})
}

// Budget reports the caller's remaining moderation budget without spending
// any of it. Submission flows use it to back off before enqueueing content.
func (h *ModerationHandler) Budget(w http.ResponseWriter, r *http.Request) {
	authorID, err := strconv.ParseInt(chi.URLParam(r, "author_id"), 10, 64)
	if err != nil || authorID <= 0 {
		writeBadRequest(w, "INVALID_REQUEST", "author_id must be a positive integer")
		return
	}

	resp := dto.ModerationBudgetResponse{AuthorID: authorID, Allowed: true}
	if h.limiter != nil {
		retryAfter, err := h.limiter.RetryAfterModeration(r.Context(), authorID)
		if err != nil {
			writeInternal(w, "INTERNAL_ERROR", "failed to read moderation budget")
			return
		}
		resp.RetryAfterSec = retryAfter
		resp.Allowed = retryAfter == 0
	}

	httperrors.Write(w, http.StatusOK, resp)
}

func (h *ModerationHandler) loadCommunity(ctx context.Context, communityID int64) (model.CommunityContext, error) {
	if h.communities == nil {
		return model.CommunityContext{}, errors.New("community store is unavailable")
	}

	rec, err := h.communities.GetContext(ctx, communityID)
	if err != nil {
		return model.CommunityContext{}, err
	}

	return model.CommunityContext{
		ID:                    rec.ID,
		Name:                  rec.Name,
		AIPrompt:              rec.AIPrompt,
		AIPromptVersion:       rec.AIPromptVersion,
		CategoryRules:         rec.CategoryRules,
		CategoryPromptVersion: rec.CategoryPromptVersion,
	}, nil
}

func validateModerateRequest(req dto.ModerateRequest) (string, string, bool) {
	if req.ContentID <= 0 {
		return "INVALID_REQUEST", "content_id must be a positive integer", false
	}
	if req.CommunityID <= 0 {
		return "INVALID_REQUEST", "community_id must be a positive integer", false
	}
	if req.AuthorID <= 0 {
		return "INVALID_REQUEST", "author_id must be a positive integer", false
	}
	if !enums.ContentType(req.ContentType).Valid() {
		return "INVALID_CONTENT_TYPE", "content_type must be post or comment", false
	}
	if !validate.Required(req.Title) && !validate.Required(req.Body) {
		return "EMPTY_CONTENT", "title or body is required", false
	}
	return "", "", true
}

func toModerateResponse(result model.PipelineResult) dto.ModerateResponse {
	decisions := make([]dto.TierDecisionResponse, 0, len(result.TierDecisions))
	for _, d := range result.TierDecisions {
		decisions = append(decisions, dto.TierDecisionResponse{
			Decision:          string(d.Decision),
			Confidence:        d.Confidence,
			Reasoning:         d.Reasoning,
			AgentLevel:        string(d.AgentLevel),
			AIModel:           d.AIModel,
			PromptVersion:     d.PromptVersion,
			InjectionDetected: d.InjectionDetected,
			InjectionPatterns: d.InjectionPatterns,
			ProcessingTimeMS:  d.ProcessingTimeMS,
		})
	}

	return dto.ModerateResponse{
		FinalDecision: string(result.FinalDecision),
		TierDecisions: decisions,
		TotalTimeMS:   result.TotalTimeMS,
		StoppedAtTier: string(result.StoppedAtTier),
	}
}
