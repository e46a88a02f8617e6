package moderation

import (
	"strings"

	"github.com/fuega-ai/backend/internal/domain/enums"
	"github.com/fuega-ai/backend/internal/domain/model"
)

const basicFilterModel = "basic-safety-filter"

// extremeContentTerms is the degraded-mode keyword catalog. It covers only
// categorically extreme content; everything subtler waits for the full
// pipeline. Matching is case-insensitive substring.
var extremeContentTerms = []struct {
	Category string
	Terms    []string
}{
	{
		Category: "self-harm incitement",
		Terms: []string{
			"kill yourself",
			"kill urself",
			"go end your life",
			"you should commit suicide",
		},
	},
	{
		Category: "violent threat",
		Terms: []string{
			"i will bomb",
			"going to bomb",
			"plant a bomb",
			"pipe bomb",
			"blow up the building",
			"shoot up the",
		},
	},
	{
		Category: "child sexual abuse material",
		Terms: []string{
			"child porn",
			"child pornography",
			"csam",
		},
	},
}

// runBasicFilter is the decision path used when no oracle credential is
// configured. It removes categorically extreme content and auto-approves
// the rest; it is a deliberately coarse stopgap, not a substitute for the
// pipeline.
func runBasicFilter(content model.ModerationContent) model.TierDecision {
	haystack := strings.ToLower(content.Title + "\n" + content.Body)

	for _, group := range extremeContentTerms {
		for _, term := range group.Terms {
			if strings.Contains(haystack, term) {
				return model.TierDecision{
					Decision:   enums.DecisionRemoved,
					Confidence: 1.0,
					Reasoning:  "basic safety filter: " + group.Category,
					AgentLevel: enums.TierPlatform,
					AIModel:    basicFilterModel,
				}
			}
		}
	}

	return model.TierDecision{
		Decision:   enums.DecisionApproved,
		Confidence: 0.5,
		Reasoning:  "basic safety filter: no extreme content terms matched (AI moderation unavailable)",
		AgentLevel: enums.TierPlatform,
		AIModel:    basicFilterModel,
	}
}
