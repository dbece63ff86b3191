package types

import "time"

// Status is the lifecycle state of one video job in the ledger.
type Status string

const (
	StatusPending         Status = "pending"
	StatusProcessing      Status = "processing"
	StatusDone            Status = "done"
	StatusFailed          Status = "failed"
	StatusRetrying        Status = "retrying"
	StatusFailedPermanent Status = "failed_permanent"
)

// QueueMessage is the payload carried by one processing attempt.
type QueueMessage struct {
	VideoID           string `json:"video_id"`
	YouTubeLink       string `json:"youtube_link"`
	DynamoVideosTable string `json:"dynamo_videos_table"`
	RetryCount        int    `json:"retry_count"`
}

// DeadLetterMessage is the terminal variant sent once the retry budget is spent.
type DeadLetterMessage struct {
	VideoID           string `json:"video_id"`
	YouTubeLink       string `json:"youtube_link"`
	DynamoVideosTable string `json:"dynamo_videos_table"`
	FinalStatus       Status `json:"final_status"`
}

// VideoRecord is the ledger row keyed by video_id. Source metadata is written
// once at submission and never changed by the pipeline; the pipeline only
// touches status, failure context and artifact keys.
type VideoRecord struct {
	VideoID     string `json:"video_id" dynamodbav:"video_id"`
	Title       string `json:"title,omitempty" dynamodbav:"title,omitempty"`
	Description string `json:"description,omitempty" dynamodbav:"description,omitempty"`
	Picture     string `json:"picture,omitempty" dynamodbav:"picture,omitempty"`
	Duration    int    `json:"duration,omitempty" dynamodbav:"duration,omitempty"`
	UserName    string `json:"user_name,omitempty" dynamodbav:"user_name,omitempty"`
	YouTubeLink string `json:"youtube_link" dynamodbav:"youtube_link"`
	UploadedBy  string `json:"uploaded_by,omitempty" dynamodbav:"uploaded_by,omitempty"`
	Status      Status `json:"status" dynamodbav:"status"`
	CreatedAt   string `json:"created_at" dynamodbav:"created_at"`

	Error        string `json:"error,omitempty" dynamodbav:"error,omitempty"`
	RetryCount   int    `json:"retry_count,omitempty" dynamodbav:"retry_count,omitempty"`
	LastFailedAt string `json:"last_failed_at,omitempty" dynamodbav:"last_failed_at,omitempty"`

	TranscriptS3Key   string `json:"transcript_s3_key,omitempty" dynamodbav:"transcript_s3_key,omitempty"`
	TranscriptSavedAt string `json:"transcript_saved_at,omitempty" dynamodbav:"transcript_saved_at,omitempty"`
	InsightsS3Key     string `json:"insights_s3_key,omitempty" dynamodbav:"insights_s3_key,omitempty"`
	InsightsSavedAt   string `json:"insights_saved_at,omitempty" dynamodbav:"insights_saved_at,omitempty"`
}

// Lesson is one teachable item inside an InsightDocument.
type Lesson struct {
	Title               string   `json:"title"`
	Summary             string   `json:"summary"`
	DetailedExplanation string   `json:"detailed_explanation"`
	ActionSteps         []string `json:"action_steps"`
	Examples            []string `json:"examples"`
}

// InsightDocument is the normalized structured output of insight extraction.
// Every array field is non-nil after normalization so the stored JSON always
// carries the full schema.
type InsightDocument struct {
	Lessons             []Lesson `json:"lessons"`
	Quotes              []string `json:"quotes"`
	MindsetShifts       []string `json:"mindset_shifts"`
	ReflectionQuestions []string `json:"reflection_questions"`
	MistakesOrWarnings  []string `json:"mistakes_or_warnings"`
	PersonalInsights    []string `json:"personal_insights"`
	EmotionalTone       string   `json:"emotional_tone"`
	Category            string   `json:"category"`
	Tags                []string `json:"tags"`
}

// Timestamp is the single time format used across ledger writes and artifacts.
func Timestamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }
