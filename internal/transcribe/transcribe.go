package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribe"
	transcribetypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"

	"safetube-pipeline/internal/logger"
)

type api interface {
	StartTranscriptionJob(ctx context.Context, in *transcribe.StartTranscriptionJobInput, opts ...func(*transcribe.Options)) (*transcribe.StartTranscriptionJobOutput, error)
	GetTranscriptionJob(ctx context.Context, in *transcribe.GetTranscriptionJobInput, opts ...func(*transcribe.Options)) (*transcribe.GetTranscriptionJobOutput, error)
}

// Client drives asynchronous transcription jobs. AwaitCompletion blocks with
// no timeout of its own; the container-level deadline is the only bound.
type Client struct {
	client       api
	outputBucket string
	pollInterval time.Duration
	log          *logger.Logger
}

func New(client *transcribe.Client, outputBucket string, pollInterval time.Duration) *Client {
	return newWithAPI(client, outputBucket, pollInterval)
}

func newWithAPI(client api, outputBucket string, pollInterval time.Duration) *Client {
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	return &Client{
		client:       client,
		outputBucket: outputBucket,
		pollInterval: pollInterval,
		log:          logger.New(),
	}
}

// JobName builds the unique transcription job name for one submission. The
// timestamp keeps retries of the same video from colliding with earlier jobs.
func JobName(videoID string, submittedAt time.Time) string {
	return fmt.Sprintf("transcription-%s-%d", videoID, submittedAt.UnixMilli())
}

// Start submits a transcription job against a durable media location.
func (c *Client) Start(ctx context.Context, jobName, mediaURI string, format transcribetypes.MediaFormat) error {
	_, err := c.client.StartTranscriptionJob(ctx, &transcribe.StartTranscriptionJobInput{
		TranscriptionJobName: aws.String(jobName),
		LanguageCode:         transcribetypes.LanguageCodeEnUs,
		MediaFormat:          format,
		Media: &transcribetypes.Media{
			MediaFileUri: aws.String(mediaURI),
		},
		OutputBucketName: aws.String(c.outputBucket),
	})
	if err != nil {
		return fmt.Errorf("start transcription job %s: %w", jobName, err)
	}
	c.log.WithField("job_name", jobName).Info("started transcription job")
	return nil
}

// AwaitCompletion polls the job on a fixed interval until it reaches a
// terminal state. COMPLETED yields the transcript file URI; FAILED raises an
// error naming the job; any other status waits another cycle.
func (c *Client) AwaitCompletion(ctx context.Context, jobName string) (string, error) {
	for {
		out, err := c.client.GetTranscriptionJob(ctx, &transcribe.GetTranscriptionJobInput{
			TranscriptionJobName: aws.String(jobName),
		})
		if err != nil {
			return "", fmt.Errorf("poll transcription job %s: %w", jobName, err)
		}

		job := out.TranscriptionJob
		switch job.TranscriptionJobStatus {
		case transcribetypes.TranscriptionJobStatusCompleted:
			c.log.WithField("job_name", jobName).Info("transcription job completed")
			return aws.ToString(job.Transcript.TranscriptFileUri), nil
		case transcribetypes.TranscriptionJobStatusFailed:
			return "", fmt.Errorf("transcription job %s failed: %s", jobName, aws.ToString(job.FailureReason))
		}

		c.log.WithField("job_name", jobName).WithField("status", string(job.TranscriptionJobStatus)).Debug("waiting for transcription job")
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

// OutputBucket is where the service writes the result artifact.
func (c *Client) OutputBucket() string { return c.outputBucket }

// ResultKey is the object key the service writes for a job.
func ResultKey(jobName string) string { return jobName + ".json" }

// TranscriptText pulls the plain transcript out of the result artifact.
// A missing or empty shape is a valid empty transcript, not an error.
func TranscriptText(doc []byte) (string, error) {
	var parsed struct {
		Results struct {
			Transcripts []struct {
				Transcript string `json:"transcript"`
			} `json:"transcripts"`
		} `json:"results"`
	}
	if err := json.Unmarshal(doc, &parsed); err != nil {
		return "", fmt.Errorf("parse transcription result: %w", err)
	}
	if len(parsed.Results.Transcripts) == 0 {
		return "", nil
	}
	return parsed.Results.Transcripts[0].Transcript, nil
}
