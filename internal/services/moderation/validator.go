package moderation

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/fuega-ai/backend/internal/domain/enums"
)

const maxReasonLength = 1000

// Validated is the parsed oracle response. When Valid is false the verdict
// has already been forced to the safe fallback (flag); nothing downstream
// should treat an invalid response as anything but a request for human
// review.
type Validated struct {
	Verdict enums.Verdict
	Reason  string
	Valid   bool
}

// ValidateResponse parses the oracle's raw text into a strict decision
// value. This is an allow-list parser: anything not unambiguously
// well-formed falls back to flag, never to approve.
func ValidateResponse(raw string) Validated {
	text := stripCodeFence(strings.TrimSpace(raw))

	var payload struct {
		Decision *string `json:"decision"`
		Reason   *string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return fallback("oracle response is not a valid JSON object")
	}
	if payload.Decision == nil {
		return fallback("oracle response is missing the decision field")
	}
	if payload.Reason == nil {
		return fallback("oracle response is missing the reason field")
	}

	verdict := enums.Verdict(strings.ToLower(strings.TrimSpace(*payload.Decision)))
	if !verdict.Valid() {
		return fallback("oracle response decision is not one of approve/remove/flag")
	}
	if utf8.RuneCountInString(*payload.Reason) > maxReasonLength {
		return fallback("oracle response reason exceeds the length limit")
	}

	return Validated{
		Verdict: verdict,
		Reason:  *payload.Reason,
		Valid:   true,
	}
}

func fallback(msg string) Validated {
	return Validated{
		Verdict: enums.VerdictFlag,
		Reason:  msg,
		Valid:   false,
	}
}

// stripCodeFence removes one leading/trailing markdown code fence so that
// an oracle answering with a ```json block still parses.
func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	body := strings.TrimPrefix(text, "```")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
