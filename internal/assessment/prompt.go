package assessment

import (
	"regexp"
	"strings"

	"mindmosaic-backend/internal/models"
)

// SuggestionCount is how many suggestions are requested and kept.
const SuggestionCount = 6

var numberedLine = regexp.MustCompile(`^\s*(\d+)\.\s*(.*)$`)

// BuildPrompt renders every question with the chosen option, then the fixed
// formatting instructions.
func BuildPrompt(questions []models.Question, answers []models.Answer) string {
	chosen := make(map[int]string, len(answers))
	for _, a := range answers {
		chosen[a.QuestionID] = a.Answer
	}

	var b strings.Builder
	b.WriteString("Based on the following mental health questionnaire responses, provide 6 concise, one-line suggestions for improving mental well-being:\n\n")
	for _, q := range questions {
		b.WriteString(q.Text)
		b.WriteString(": ")
		b.WriteString(chosen[q.ID])
		b.WriteString("\n")
	}
	b.WriteString("\nRespond with exactly 6 short suggestions, numbered 1. to 6., one sentence each, one per line.")
	b.WriteString(" Do not add any introduction, heading or closing remarks.")
	return b.String()
}

// ParseSuggestions keeps the numbered lines of a reply, at most SuggestionCount
// of them, with the numbering removed. Unformatted text yields an empty list.
func ParseSuggestions(text string) []string {
	suggestions := []string{}
	for _, line := range strings.Split(text, "\n") {
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		suggestions = append(suggestions, strings.TrimSpace(m[2]))
		if len(suggestions) == SuggestionCount {
			break
		}
	}
	return suggestions
}
