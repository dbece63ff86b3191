package insights

import (
	"encoding/json"
	"testing"
)

func TestParseNormalizesAliasedLessonFields(t *testing.T) {
	raw := `{
		"lessons": [
			{"lesson": "x", "details": "y", "tips": ["z"]}
		]
	}`

	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Lessons) != 1 {
		t.Fatalf("lessons = %d, want 1", len(doc.Lessons))
	}

	l := doc.Lessons[0]
	if l.Title != "x" {
		t.Errorf("title = %q, want x", l.Title)
	}
	if l.DetailedExplanation != "y" {
		t.Errorf("detailed_explanation = %q, want y", l.DetailedExplanation)
	}
	if len(l.ActionSteps) != 1 || l.ActionSteps[0] != "z" {
		t.Errorf("action_steps = %v, want [z]", l.ActionSteps)
	}
	if l.Summary != "" || l.Examples == nil || len(l.Examples) != 0 {
		t.Errorf("absent fields should default empty, got summary=%q examples=%v", l.Summary, l.Examples)
	}
}

func TestParseAlwaysEmitsFullSchema(t *testing.T) {
	doc, err := Parse(`{"category": "productivity"}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}

	var roundTrip map[string]any
	if err := json.Unmarshal(out, &roundTrip); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"lessons", "quotes", "mindset_shifts", "reflection_questions", "mistakes_or_warnings", "personal_insights", "emotional_tone", "category", "tags"} {
		v, ok := roundTrip[key]
		if !ok {
			t.Errorf("marshalled document missing %q", key)
			continue
		}
		if v == nil {
			t.Errorf("field %q marshalled as null", key)
		}
	}
	if roundTrip["category"] != "productivity" {
		t.Errorf("category = %v", roundTrip["category"])
	}
}

func TestParseTopLevelAliases(t *testing.T) {
	doc, err := Parse(`{
		"key_lessons": ["just a title"],
		"notable_quotes": ["stay hungry"],
		"warnings": ["don't skip rest"],
		"tone": "motivational",
		"keywords": ["habits", "focus"]
	}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Lessons) != 1 || doc.Lessons[0].Title != "just a title" {
		t.Errorf("lessons = %+v", doc.Lessons)
	}
	if len(doc.Quotes) != 1 || doc.Quotes[0] != "stay hungry" {
		t.Errorf("quotes = %v", doc.Quotes)
	}
	if len(doc.MistakesOrWarnings) != 1 {
		t.Errorf("mistakes_or_warnings = %v", doc.MistakesOrWarnings)
	}
	if doc.EmotionalTone != "motivational" {
		t.Errorf("emotional_tone = %q", doc.EmotionalTone)
	}
	if len(doc.Tags) != 2 {
		t.Errorf("tags = %v", doc.Tags)
	}
}

func TestParseStripsMarkdownFences(t *testing.T) {
	raw := "Here is the JSON you asked for:\n```json\n{\"category\": \"fitness\", \"tags\": [\"gym\"]}\n```\n"
	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Category != "fitness" || len(doc.Tags) != 1 {
		t.Errorf("doc = %+v", doc)
	}
}

func TestParseRejectsNonJSON(t *testing.T) {
	for _, raw := range []string{
		"",
		"the video is about cooking",
		"{\"category\": \"cooking\"",
		"{broken: json}",
	} {
		if _, err := Parse(raw); err == nil {
			t.Errorf("Parse(%q) should fail", raw)
		}
	}
}

func TestExtractJSONIgnoresBracesInsideStrings(t *testing.T) {
	raw := `{"category": "code", "quotes": ["use { and } carefully"]}`
	got := extractJSON("noise " + raw + " trailing")
	if got != raw {
		t.Errorf("extractJSON = %q", got)
	}
}
