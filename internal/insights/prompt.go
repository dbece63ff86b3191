package insights

import "fmt"

// BuildPrompt renders the fixed extraction prompt. The schema is spelled out
// field by field and the model is told to answer with JSON only; the response
// still gets the full fence-stripping and strict-parse treatment because the
// endpoint does not enforce any of this.
func BuildPrompt(transcript string) string {
	prompt := `You are an expert learning-content analyst.

Analyze the following video transcript and extract structured insights.

Return ONLY a JSON object with exactly these keys:

{
  "lessons": [
    {
      "title": "",
      "summary": "",
      "detailed_explanation": "",
      "action_steps": [],
      "examples": []
    }
  ],
  "quotes": [],
  "mindset_shifts": [],
  "reflection_questions": [],
  "mistakes_or_warnings": [],
  "personal_insights": [],
  "emotional_tone": "",
  "category": "",
  "tags": []
}

Guidelines:
- "lessons": the main teachable points. Each needs a short title, a one-line
  summary, a detailed explanation grounded in the transcript, concrete
  action_steps, and examples mentioned by the speaker.
- "quotes": memorable sentences quoted verbatim from the transcript.
- "mindset_shifts": changes in perspective the speaker argues for.
- "reflection_questions": questions a viewer should ask themselves.
- "mistakes_or_warnings": pitfalls or cautions raised in the video.
- "personal_insights": first-person experiences the speaker shares.
- "emotional_tone": one or two words describing the overall tone.
- "category": a single topical category for the video.
- "tags": short lowercase topic tags.

Do not invent content that is not supported by the transcript.
If a field has no supporting content, use an empty string or empty array.
Do not wrap the JSON in markdown fences. Do not add commentary.

TRANSCRIPT:
"""%s"""

Return ONLY valid JSON matching the schema above.
`
	return fmt.Sprintf(prompt, transcript)
}
