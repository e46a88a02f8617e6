package sanitize

import "regexp"

// CatalogVersion identifies the injection-pattern catalog below. Bump it on
// any pattern change so audit rows written before and after the change can
// be told apart.
const CatalogVersion = 1

type Pattern struct {
	Name string
	re   *regexp.Regexp
}

// catalog is ordered: DetectPatterns reports names in this order. Detection
// runs against truncated but not-yet-neutralized text, so these patterns
// describe the attacker's original phrasing, not the defanged form.
var catalog = []Pattern{
	{
		Name: "instruction_override",
		re:   regexp.MustCompile(`(?i)ignore\s+(all\s+)?(previous|prior|above)\s+(instructions?|rules?|prompts?|context)`),
	},
	{
		Name: "memory_reset",
		re:   regexp.MustCompile(`(?i)forget\s+(everything|all\b|your\s+(instructions?|rules?))`),
	},
	{
		Name: "role_reassignment",
		re:   regexp.MustCompile(`(?i)you\s+are\s+now\s+(a|an|the|my)\b`),
	},
	{
		Name: "system_tag",
		re:   regexp.MustCompile(`(?im)<\s*/?\s*system\s*>|^[ \t]*system\s*:`),
	},
	{
		Name: "assistant_tag",
		re:   regexp.MustCompile(`(?im)<\s*/?\s*assistant\s*>|^[ \t]*assistant\s*:`),
	},
	{
		Name: "human_tag",
		re:   regexp.MustCompile(`(?im)<\s*/?\s*(human|user)\s*>|^[ \t]*(human|user)\s*:`),
	},
	{
		Name: "output_hijack",
		re:   regexp.MustCompile(`(?i)respond\s+with\s+(only|just|the\s+following)|output\s+only\s+(the|this|json|text)\b`),
	},
	{
		Name: "new_instructions",
		re:   regexp.MustCompile(`(?i)new\s+instructions?\s*:`),
	},
	{
		Name: "prompt_exfiltration",
		re:   regexp.MustCompile(`(?i)(show|reveal|print|output|display|repeat)\s+(me\s+)?(your|the)\s+(system\s+prompt|instructions?|rules?|prompt)`),
	},
	{
		Name: "jailbreak_dan",
		re:   regexp.MustCompile(`(?i)do\s+anything\s+now`),
	},
	{
		Name: "decision_forgery",
		re:   regexp.MustCompile(`(?i)\{\s*"decision"\s*:\s*"approve`),
	},
	{
		Name: "delimiter_escape",
		re:   regexp.MustCompile(`(?i)\b(end|stop|done)\b[ \t]*(of[ \t]+)?(system|assistant|instructions?|rules?|user_content|prompt)\b`),
	},
}

// Catalog returns the pattern names in detection order.
func Catalog() []string {
	names := make([]string, 0, len(catalog))
	for _, p := range catalog {
		names = append(names, p.Name)
	}
	return names
}

// DetectPatterns returns the ordered set of distinct pattern names matched.
func DetectPatterns(text string) []string {
	var found []string
	for _, p := range catalog {
		if p.re.MatchString(text) {
			found = append(found, p.Name)
		}
	}
	return found
}
