package sanitize

import (
	"regexp"

	"golang.org/x/text/unicode/norm"
)

// Default length caps per field kind.
const (
	MaxContentLength = 50000
	MaxRulesLength   = 10000
	MaxTitleLength   = 500
)

type Result struct {
	Sanitized         string
	InjectionDetected bool
	PatternsFound     []string
	OriginalLength    int
	WasTruncated      bool
}

var (
	tripleFenceRe = regexp.MustCompile("```" + `|"""`)
	roleTagRe     = regexp.MustCompile(`(?i)<\s*(/?)\s*(system|assistant|human|user)\s*>`)
	pseudoHeadRe  = regexp.MustCompile(`(?im)^([ \t]*)(systems?|assistants?|humans?|users?|instructions?|rules?):`)
)

// Sanitize normalizes, truncates and defangs untrusted text. Step order is
// fixed: NFC normalization, truncation, pattern detection, then delimiter
// neutralization. Detection runs before neutralization so the audit trail
// records the attacker's original phrasing while the text sent to the oracle
// is already defanged. Sanitize never fails; empty input passes through.
func Sanitize(text string, maxLength int) Result {
	normalized := norm.NFC.String(text)

	runes := []rune(normalized)
	originalLength := len(runes)
	truncated := normalized
	wasTruncated := false
	if maxLength > 0 && originalLength > maxLength {
		truncated = string(runes[:maxLength])
		wasTruncated = true
	}

	patterns := DetectPatterns(truncated)

	neutralized := tripleFenceRe.ReplaceAllString(truncated, "'''")
	neutralized = roleTagRe.ReplaceAllString(neutralized, "[$1$2]")
	neutralized = pseudoHeadRe.ReplaceAllString(neutralized, "$1[$2]:")

	return Result{
		Sanitized:         neutralized,
		InjectionDetected: len(patterns) > 0,
		PatternsFound:     patterns,
		OriginalLength:    originalLength,
		WasTruncated:      wasTruncated,
	}
}
