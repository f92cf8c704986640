package backend

import "strings"

// AssessProse scores generated section prose in [0,1]. The heuristics are
// deliberately cheap: the score only needs to separate drafts worth keeping
// from drafts worth flagging for review.
func AssessProse(content string) float64 {
	text := strings.TrimSpace(content)
	if text == "" {
		return 0
	}

	score := 1.0
	lines := strings.Split(text, "\n")
	total := 0
	bullets := 0
	paragraphs := 0
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		total++
		if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
			bullets++
		}
		if !strings.HasPrefix(line, "#") && !strings.HasPrefix(line, "- ") && !strings.HasPrefix(line, "* ") {
			paragraphs++
		}
	}
	if total > 0 && float64(bullets)/float64(total) > 0.45 {
		score -= 0.25
	}
	if paragraphs < 2 {
		score -= 0.2
	}

	words := len(strings.Fields(text))
	if words < 40 {
		score -= 0.2
	}

	lower := strings.ToLower(text)
	for _, token := range []string{"as an ai", "i cannot", "explain the", "describe the", "tbd", "placeholder", "lorem ipsum"} {
		if strings.Contains(lower, token) {
			score -= 0.2
			break
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}
