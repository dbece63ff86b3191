package pipeline

import (
	"context"

	transcribetypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"

	"safetube-pipeline/internal/ledger"
	"safetube-pipeline/internal/types"
)

// Collaborators are constructor-injected so one job-attempt's pipeline can be
// assembled against fakes in tests. Service clients are never package globals.

type Ledger interface {
	UpsertStatus(ctx context.Context, videoID string, status types.Status, errMsg string, retryCount int) error
	RecordArtifact(ctx context.Context, videoID string, kind ledger.ArtifactKind, s3Key string) error
}

type Store interface {
	UploadFile(ctx context.Context, bucket, key, filePath, contentType string) error
	UploadJSON(ctx context.Context, bucket, key string, body []byte) error
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Delete(ctx context.Context, bucket, key string) error
	FetchCookies(ctx context.Context, bucket, key, workDir string) (string, error)
}

type Downloader interface {
	DownloadAudio(ctx context.Context, sourceURL, cookiesPath, outPath string) error
	DownloadMuxed(ctx context.Context, sourceURL, cookiesPath, outPath string) error
}

type Transcriber interface {
	Start(ctx context.Context, jobName, mediaURI string, format transcribetypes.MediaFormat) error
	AwaitCompletion(ctx context.Context, jobName string) (string, error)
	OutputBucket() string
}

type Extractor interface {
	Extract(ctx context.Context, transcript string) (types.InsightDocument, error)
}

type Requeuer interface {
	SendAttempt(ctx context.Context, msg types.QueueMessage) error
	SendDeadLetter(ctx context.Context, msg types.DeadLetterMessage) error
}
