package chat

import (
	"regexp"
	"strings"
)

// Judgment is the parsed outcome of a reasoning-model reply
type Judgment struct {
	Sufficient  bool
	Reason      string
	Instruction string // raw JSON array text, set only when insufficient
}

var (
	sufficientPattern = regexp.MustCompile(`(?i)SUFFICIENT:\s*(true|false)`)
	reasonPattern     = regexp.MustCompile(`(?is)REASON:\s*(.*?)(?:NEXT_INSTRUCTION:|$)`)
)

// ParseJudgment extracts the judgment grammar from a model reply. An
// unparseable reply fails safe to sufficient so the loop terminates and
// answers with whatever has been gathered.
func ParseJudgment(reply string) Judgment {
	match := sufficientPattern.FindStringSubmatch(reply)
	if match == nil {
		return Judgment{
			Sufficient: true,
			Reason:     "judgment reply did not follow the expected format",
		}
	}

	judgment := Judgment{
		Sufficient: strings.EqualFold(match[1], "true"),
	}

	if reasonMatch := reasonPattern.FindStringSubmatch(reply); reasonMatch != nil {
		judgment.Reason = strings.TrimSpace(reasonMatch[1])
	}

	if !judgment.Sufficient {
		judgment.Instruction = extractJSONArray(reply)
	}

	return judgment
}

// extractJSONArray returns the first balanced [...] block in the text, or ""
func extractJSONArray(text string) string {
	start := strings.Index(text, "[")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '[':
			depth++
		case ch == ']':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
