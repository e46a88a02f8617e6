package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	pgrepo "github.com/fuega-ai/backend/internal/repo/postgres"
	modsvc "github.com/fuega-ai/backend/internal/services/moderation"
	"github.com/fuega-ai/backend/internal/transport/http/dto"
)

type stubOracle struct {
	response string
}

func (o *stubOracle) Complete(_ context.Context, _, _ string) (string, error) {
	return o.response, nil
}

func (o *stubOracle) Model() string { return "test-model" }

type stubCommunities struct {
	rec pgrepo.CommunityContextRecord
	err error
}

func (s *stubCommunities) GetContext(_ context.Context, _ int64) (pgrepo.CommunityContextRecord, error) {
	if s.err != nil {
		return pgrepo.CommunityContextRecord{}, s.err
	}
	return s.rec, nil
}

type stubAudit struct {
	records []pgrepo.ModerationLogRecord
	err     error
}

func (s *stubAudit) ListByContent(_ context.Context, _ int64) ([]pgrepo.ModerationLogRecord, error) {
	return s.records, s.err
}

type stubLimiter struct {
	retryAfter int64
	allowed    bool
	err        error
}

func (s *stubLimiter) AllowModeration(_ context.Context, _ int64) (int64, bool, error) {
	return s.retryAfter, s.allowed, s.err
}

func (s *stubLimiter) RetryAfterModeration(_ context.Context, _ int64) (int64, error) {
	return s.retryAfter, s.err
}

func testCommunities() *stubCommunities {
	return &stubCommunities{rec: pgrepo.CommunityContextRecord{
		ID:              3,
		Name:            "hiking",
		AIPrompt:        "No commercial posts.",
		AIPromptVersion: 4,
	}}
}

func moderateBody() string {
	return `{
		"content_id": 101,
		"community_id": 3,
		"author_id": 7,
		"content_type": "post",
		"title": "Trail conditions",
		"body": "The north trail is muddy this week.",
		"author_username": "trailmix"
	}`
}

func TestModerateReturnsPipelineResult(t *testing.T) {
	service := modsvc.NewService(&stubOracle{response: `{"decision": "approve", "reason": "ok"}`}, nil, modsvc.Config{}, nil)
	handler := NewModerationHandler(service, testCommunities(), nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/moderate", strings.NewReader(moderateBody()))
	rr := httptest.NewRecorder()
	handler.Moderate(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rr.Code, rr.Body.String())
	}

	var resp dto.ModerateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.FinalDecision != "approved" {
		t.Fatalf("unexpected final decision: %s", resp.FinalDecision)
	}
	if len(resp.TierDecisions) != 2 {
		t.Fatalf("expected platform+community decisions, got %d", len(resp.TierDecisions))
	}
	if resp.StoppedAtTier != "" {
		t.Fatalf("unexpected stopped_at_tier: %s", resp.StoppedAtTier)
	}
}

func TestModerateRejectsMalformedBody(t *testing.T) {
	service := modsvc.NewService(nil, nil, modsvc.Config{}, nil)
	handler := NewModerationHandler(service, testCommunities(), nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/moderate", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	handler.Moderate(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestModerateRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{
			name: "missing content id",
			body: `{"community_id": 3, "author_id": 7, "content_type": "post", "body": "x"}`,
			code: "INVALID_REQUEST",
		},
		{
			name: "unknown content type",
			body: `{"content_id": 1, "community_id": 3, "author_id": 7, "content_type": "poll", "body": "x"}`,
			code: "INVALID_CONTENT_TYPE",
		},
		{
			name: "empty content",
			body: `{"content_id": 1, "community_id": 3, "author_id": 7, "content_type": "post", "title": "  ", "body": ""}`,
			code: "EMPTY_CONTENT",
		},
	}

	service := modsvc.NewService(nil, nil, modsvc.Config{}, nil)
	handler := NewModerationHandler(service, testCommunities(), nil, nil, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/moderate", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.Moderate(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("unexpected status: %d", rr.Code)
			}
			var apiErr struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &apiErr); err != nil {
				t.Fatalf("decode error payload: %v", err)
			}
			if apiErr.Code != tt.code {
				t.Fatalf("unexpected error code: got %s want %s", apiErr.Code, tt.code)
			}
		})
	}
}

func TestModerateReturnsNotFoundForUnknownCommunity(t *testing.T) {
	service := modsvc.NewService(nil, nil, modsvc.Config{}, nil)
	handler := NewModerationHandler(service, &stubCommunities{err: pgrepo.ErrCommunityNotFound}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/moderate", strings.NewReader(moderateBody()))
	rr := httptest.NewRecorder()
	handler.Moderate(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestModerateReturnsTooManyRequestsWhenBudgetExhausted(t *testing.T) {
	service := modsvc.NewService(nil, nil, modsvc.Config{}, nil)
	handler := NewModerationHandler(service, testCommunities(), nil, &stubLimiter{retryAfter: 42, allowed: false}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/moderate", strings.NewReader(moderateBody()))
	rr := httptest.NewRecorder()
	handler.Moderate(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var payload struct {
		Code          string `json:"code"`
		RetryAfterSec int64  `json:"retry_after_sec"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode rate limit payload: %v", err)
	}
	if payload.Code != "RATE_LIMITED" || payload.RetryAfterSec != 42 {
		t.Fatalf("unexpected rate limit payload: %+v", payload)
	}
}

func TestModerateProceedsWhenLimiterFails(t *testing.T) {
	service := modsvc.NewService(&stubOracle{response: `{"decision": "approve", "reason": "ok"}`}, nil, modsvc.Config{}, nil)
	handler := NewModerationHandler(service, testCommunities(), nil, &stubLimiter{err: context.DeadlineExceeded}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/moderate", strings.NewReader(moderateBody()))
	rr := httptest.NewRecorder()
	handler.Moderate(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("limiter failure must not block moderation: %d", rr.Code)
	}
}

func TestBudgetReportsRetryAfter(t *testing.T) {
	handler := NewModerationHandler(nil, nil, nil, &stubLimiter{retryAfter: 17}, nil)

	router := chi.NewRouter()
	router.Get("/v1/moderation/budget/{author_id}", handler.Budget)

	req := httptest.NewRequest(http.MethodGet, "/v1/moderation/budget/7", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp dto.ModerationBudgetResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.AuthorID != 7 || resp.Allowed || resp.RetryAfterSec != 17 {
		t.Fatalf("unexpected budget payload: %+v", resp)
	}
}

func TestBudgetAllowsWhenWindowsClear(t *testing.T) {
	handler := NewModerationHandler(nil, nil, nil, &stubLimiter{retryAfter: 0}, nil)

	router := chi.NewRouter()
	router.Get("/v1/moderation/budget/{author_id}", handler.Budget)

	req := httptest.NewRequest(http.MethodGet, "/v1/moderation/budget/7", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp dto.ModerationBudgetResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Allowed || resp.RetryAfterSec != 0 {
		t.Fatalf("unexpected budget payload: %+v", resp)
	}
}

func TestBudgetRejectsInvalidAuthorID(t *testing.T) {
	handler := NewModerationHandler(nil, nil, nil, &stubLimiter{}, nil)

	router := chi.NewRouter()
	router.Get("/v1/moderation/budget/{author_id}", handler.Budget)

	req := httptest.NewRequest(http.MethodGet, "/v1/moderation/budget/zero", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestLogReturnsAuditTrail(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	audit := &stubAudit{records: []pgrepo.ModerationLogRecord{
		{
			ID:               "rec-1",
			ContentType:      "post",
			ContentID:        101,
			CommunityID:      3,
			AgentLevel:       "platform",
			Decision:         "approved",
			Confidence:       0.85,
			Reasoning:        "ok",
			AIModel:          "test-model",
			PromptVersion:    1,
			ProcessingTimeMS: 12,
			CreatedAt:        created,
		},
		{
			ID:            "rec-2",
			ContentType:   "post",
			ContentID:     101,
			CommunityID:   3,
			AgentLevel:    "community",
			Decision:      "flagged",
			Confidence:    0.85,
			Reasoning:     "borderline",
			AIModel:       "test-model",
			PromptVersion: 4,
			CreatedAt:     created.Add(time.Second),
		},
	}}
	handler := NewModerationHandler(nil, nil, audit, nil, nil)

	router := chi.NewRouter()
	router.Get("/v1/moderation/log/{content_id}", handler.Log)

	req := httptest.NewRequest(http.MethodGet, "/v1/moderation/log/101", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", rr.Code, rr.Body.String())
	}

	var resp dto.ModerationLogResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ContentID != 101 {
		t.Fatalf("unexpected content id: %d", resp.ContentID)
	}
	if len(resp.Entries) != 2 {
		t.Fatalf("unexpected entry count: %d", len(resp.Entries))
	}
	if resp.Entries[0].AgentLevel != "platform" || resp.Entries[1].AgentLevel != "community" {
		t.Fatalf("unexpected entry order: %+v", resp.Entries)
	}
}

func TestLogRejectsInvalidContentID(t *testing.T) {
	handler := NewModerationHandler(nil, nil, &stubAudit{}, nil, nil)

	router := chi.NewRouter()
	router.Get("/v1/moderation/log/{content_id}", handler.Log)

	req := httptest.NewRequest(http.MethodGet, "/v1/moderation/log/abc", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestLogReturnsEmptyTrailForUnseenContent(t *testing.T) {
	handler := NewModerationHandler(nil, nil, &stubAudit{}, nil, nil)

	router := chi.NewRouter()
	router.Get("/v1/moderation/log/{content_id}", handler.Log)

	req := httptest.NewRequest(http.MethodGet, "/v1/moderation/log/999", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}

	var resp dto.ModerationLogResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Entries) != 0 {
		t.Fatalf("expected empty trail, got %d entries", len(resp.Entries))
	}
}
