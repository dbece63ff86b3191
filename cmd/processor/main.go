package main

import (
	"context"
	"os"
	"strconv"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	awstranscribe "github.com/aws/aws-sdk-go-v2/service/transcribe"
	"github.com/joho/godotenv"

	"safetube-pipeline/internal/artifact"
	"safetube-pipeline/internal/config"
	"safetube-pipeline/internal/download"
	"safetube-pipeline/internal/insights"
	"safetube-pipeline/internal/ledger"
	"safetube-pipeline/internal/logger"
	"safetube-pipeline/internal/pipeline"
	"safetube-pipeline/internal/queuemsg"
	"safetube-pipeline/internal/transcribe"
	"safetube-pipeline/internal/types"
)

const receiveWaitSeconds = 20

// The processor runs one attempt per container invocation. The message comes
// from the environment when the task launcher injects it, or from one queue
// receive otherwise. The exit code reports this attempt's outcome: 0 only on
// success, 1 on any failure even after the retry controller has requeued or
// dead-lettered the job.
func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "safetube-processor").Info("starting processor")

	cfg := config.Load()
	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		log.WithError(err).Fatal("failed to load aws config")
	}

	queue := queuemsg.New(sqs.NewFromConfig(awsCfg), cfg.QueueURL, cfg.DLQURL)

	msg, receiptHandle, err := resolveMessage(ctx, cfg, queue)
	if err != nil {
		log.WithError(err).Fatal("failed to obtain a job")
	}
	if msg == nil {
		log.Info("no work available")
		return
	}

	table := msg.DynamoVideosTable
	if table == "" {
		table = cfg.VideosTable
	}

	p := pipeline.New(
		cfg,
		ledger.New(dynamodb.NewFromConfig(awsCfg), table),
		artifact.New(s3.NewFromConfig(awsCfg)),
		download.New(cfg.YtdlpPath),
		transcribe.New(awstranscribe.NewFromConfig(awsCfg), cfg.TranscribeOutputBucket, cfg.TranscribePollInterval),
		insights.NewExtractor(cfg.LLMEndpoint, cfg.LLMModel, cfg.LLMAPIKeys),
		queue,
	)

	runErr := p.Execute(ctx, *msg)

	// Acknowledge regardless of outcome. A failed attempt was already routed
	// by the retry controller, so redelivering the consumed message would
	// double-count the retry budget.
	if receiptHandle != "" {
		if err := queue.Delete(ctx, receiptHandle); err != nil {
			log.WithError(err).Warn("failed to acknowledge consumed message")
		}
	}

	if runErr != nil {
		log.WithError(runErr).Error("processing failed")
		os.Exit(1)
	}
	log.WithField("video_id", msg.VideoID).Info("processing succeeded")
}

// resolveMessage prefers an env-injected job over the queue. Fargate tasks
// launched per video carry the job in container overrides.
func resolveMessage(ctx context.Context, cfg *config.Config, queue *queuemsg.Queue) (*types.QueueMessage, string, error) {
	if videoID := os.Getenv("VIDEO_ID"); videoID != "" {
		retryCount, _ := strconv.Atoi(os.Getenv("RETRY_COUNT"))
		return &types.QueueMessage{
			VideoID:           videoID,
			YouTubeLink:       os.Getenv("YOUTUBE_LINK"),
			DynamoVideosTable: os.Getenv("DYNAMO_VIDEOS_TABLE"),
			RetryCount:        retryCount,
		}, "", nil
	}

	if cfg.QueueURL == "" {
		return nil, "", nil
	}
	received, err := queue.ReceiveOne(ctx, receiveWaitSeconds)
	if err != nil {
		return nil, "", err
	}
	if received == nil {
		return nil, "", nil
	}
	return &received.Message, received.ReceiptHandle, nil
}
