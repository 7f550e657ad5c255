package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/joseteiadirector/teia-geo/internal/models"
)

// insightSection is the parser state while walking the generator output.
type insightSection int

const (
	sectionDiagnosis insightSection = iota
	sectionInsights
	sectionRecommendations
	sectionUrgent
	sectionUnknown
)

var (
	listItemPattern = regexp.MustCompile(`^\s*(?:[-*•+]|\d{1,2}[.)])\s+`)
	markdownPattern = regexp.MustCompile(`[*_` + "`" + `]+`)
	headingPattern  = regexp.MustCompile(`^\s*#{1,6}\s*`)

	sectionKeywords = []struct {
		section  insightSection
		keywords []string
	}{
		{sectionUrgent, []string{"urgent", "urgen", "immediate action"}},
		{sectionRecommendations, []string{"recommend", "recomend", "next step", "action plan"}},
		{sectionInsights, []string{"insight", "key finding", "findings"}},
		{sectionDiagnosis, []string{"diagnos", "diagnós", "summary", "overview", "resumo"}},
	}

	// Words allowed next to a section keyword in an unmarked header line.
	headerFillerWords = map[string]struct{}{
		"key": {}, "main": {}, "top": {}, "next": {}, "step": {}, "steps": {},
		"action": {}, "actions": {}, "immediate": {}, "principais": {}, "principal": {},
		"ação": {}, "ações": {}, "próximos": {}, "passos": {},
	}

	emptyUrgentValues = map[string]struct{}{
		"none": {}, "n/a": {}, "na": {}, "no": {}, "-": {}, "nenhuma": {}, "nenhum": {},
		"no urgent action": {}, "none required": {},
	}
)

// ParseInsightText normalizes free text from the generator into an InsightResult.
// It is best-effort: unrecognized content lands in an unknown section and is
// dropped, and missing sections stay empty. It never fails.
func ParseInsightText(text string, maxItems, maxDiagnosisRunes int) models.InsightResult {
	result := models.InsightResult{
		KeyInsights:     []string{},
		Recommendations: []string{},
		Source:          models.InsightSourceGenerator,
	}

	section := sectionDiagnosis
	var diagnosis []string

	for _, raw := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if next, rest, ok := parseSectionHeader(line); ok {
			section = next
			if rest == "" {
				continue
			}
			line = rest
		}

		content := cleanInsightLine(line)
		if content == "" {
			continue
		}

		switch section {
		case sectionDiagnosis:
			diagnosis = append(diagnosis, content)
		case sectionInsights:
			result.KeyInsights = appendCapped(result.KeyInsights, content, maxItems)
		case sectionRecommendations:
			result.Recommendations = appendCapped(result.Recommendations, content, maxItems)
		case sectionUrgent:
			if result.UrgentAction == nil && !isEmptyUrgent(content) {
				urgent := content
				result.UrgentAction = &urgent
			}
		case sectionUnknown:
		}
	}

	result.Diagnosis = truncateRunes(strings.Join(diagnosis, " "), maxDiagnosisRunes)
	return result
}

// parseSectionHeader recognizes lines such as "## Key Insights", "**Recommendations:**",
// "KEY INSIGHTS", "2. Recommendations:" or "Urgent action: rotate the landing page".
// Inline content after a colon is returned as rest. Marked-up header lines without
// a known keyword switch to the unknown section. List items and unmarked lines are
// headers only when their label is made of section keywords.
func parseSectionHeader(line string) (insightSection, string, bool) {
	isItem := listItemPattern.MatchString(line)
	isHeading := !isItem && headingPattern.MatchString(line)

	stripped := strings.TrimSpace(headingPattern.ReplaceAllString(line, ""))
	if isItem {
		stripped = strings.TrimSpace(listItemPattern.ReplaceAllString(line, ""))
	}

	label, rest := stripped, ""
	hasColon := false
	if idx := strings.Index(stripped, ":"); idx >= 0 {
		label = stripped[:idx]
		rest = strings.TrimSpace(stripped[idx+1:])
		hasColon = true
	}
	label = strings.ToLower(strings.TrimSpace(markdownPattern.ReplaceAllString(label, "")))
	isBold := !isItem && (strings.HasPrefix(stripped, "**") || strings.HasPrefix(stripped, "__"))

	if utf8.RuneCountInString(label) > 40 {
		return 0, "", false
	}
	// Prose or list content that merely mentions a keyword is not a header.
	marked := isHeading || isBold || (hasColon && !isItem)
	if !marked && !isKeywordLabel(label) {
		return 0, "", false
	}

	if section, ok := matchSection(label); ok {
		return section, cleanInsightLine(rest), true
	}

	if isHeading || (isBold && rest == "") {
		return sectionUnknown, "", true
	}
	return 0, "", false
}

func matchSection(label string) (insightSection, bool) {
	for _, candidate := range sectionKeywords {
		for _, keyword := range candidate.keywords {
			if strings.Contains(label, keyword) {
				return candidate.section, true
			}
		}
	}
	return 0, false
}

// isKeywordLabel reports whether every word of label is a section keyword or a
// header filler word, as in "key insights" or "urgent action".
func isKeywordLabel(label string) bool {
	words := strings.Fields(strings.Trim(label, ".:!- "))
	if len(words) == 0 {
		return false
	}
	for _, word := range words {
		if _, ok := headerFillerWords[word]; ok {
			continue
		}
		if _, ok := matchSection(word); !ok {
			return false
		}
	}
	_, ok := matchSection(label)
	return ok
}

func cleanInsightLine(line string) string {
	line = headingPattern.ReplaceAllString(line, "")
	line = listItemPattern.ReplaceAllString(line, "")
	line = markdownPattern.ReplaceAllString(line, "")
	return strings.TrimSpace(line)
}

func appendCapped(items []string, item string, limit int) []string {
	if limit > 0 && len(items) >= limit {
		return items
	}
	return append(items, item)
}

func isEmptyUrgent(content string) bool {
	normalized := strings.ToLower(strings.TrimRight(strings.TrimSpace(content), "."))
	_, ok := emptyUrgentValues[normalized]
	return ok
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit]))
}
