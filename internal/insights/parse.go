package insights

import (
	"encoding/json"
	"fmt"
	"strings"

	"safetube-pipeline/internal/types"
)

// Parse turns free-form model output into a normalized InsightDocument. The
// text is cleaned of markdown fences and reduced to its first balanced JSON
// object, then parsed strictly: anything that is not valid JSON fails the
// stage outright. There is no raw-text fallback.
func Parse(raw string) (types.InsightDocument, error) {
	candidate := extractJSON(raw)
	if candidate == "" {
		return types.InsightDocument{}, fmt.Errorf("no JSON object in model output")
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return types.InsightDocument{}, fmt.Errorf("model output is not valid JSON: %w", err)
	}
	return Normalize(obj), nil
}

// extractJSON finds the first balanced JSON object in a string, stripping
// common markdown fences first.
func extractJSON(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, fence := range []string{"```json", "```yaml", "```text", "```", "`json", "`"} {
		s = strings.ReplaceAll(s, fence, "")
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}

// Normalize rebuilds the full fixed schema from whatever field names the model
// chose. Every absent array becomes an empty slice and every absent string
// becomes "", so downstream consumers never see nulls.
func Normalize(obj map[string]any) types.InsightDocument {
	doc := types.InsightDocument{
		Lessons:             normalizeLessons(anySliceAt(obj, "lessons", "key_lessons", "main_lessons")),
		Quotes:              stringsAt(obj, "quotes", "notable_quotes", "key_quotes"),
		MindsetShifts:       stringsAt(obj, "mindset_shifts", "mindset_changes", "perspective_shifts"),
		ReflectionQuestions: stringsAt(obj, "reflection_questions", "questions"),
		MistakesOrWarnings:  stringsAt(obj, "mistakes_or_warnings", "warnings", "mistakes", "pitfalls"),
		PersonalInsights:    stringsAt(obj, "personal_insights", "personal_stories", "insights"),
		EmotionalTone:       stringAt(obj, "emotional_tone", "tone"),
		Category:            stringAt(obj, "category", "topic"),
		Tags:                stringsAt(obj, "tags", "keywords"),
	}
	return doc
}

func normalizeLessons(items []any) []types.Lesson {
	lessons := make([]types.Lesson, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case map[string]any:
			lessons = append(lessons, types.Lesson{
				Title:               stringAt(v, "title", "lesson", "name"),
				Summary:             stringAt(v, "summary", "description", "short_summary"),
				DetailedExplanation: stringAt(v, "detailed_explanation", "details", "explanation"),
				ActionSteps:         stringsAt(v, "action_steps", "tips", "actions", "steps"),
				Examples:            stringsAt(v, "examples", "example"),
			})
		case string:
			// some outputs flatten lessons to bare strings
			lessons = append(lessons, types.Lesson{
				Title:       v,
				ActionSteps: []string{},
				Examples:    []string{},
			})
		}
	}
	return lessons
}

func stringAt(obj map[string]any, aliases ...string) string {
	for _, key := range aliases {
		if s, ok := obj[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func anySliceAt(obj map[string]any, aliases ...string) []any {
	for _, key := range aliases {
		if arr, ok := obj[key].([]any); ok && len(arr) > 0 {
			return arr
		}
	}
	return nil
}

func stringsAt(obj map[string]any, aliases ...string) []string {
	arr := anySliceAt(obj, aliases...)
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
