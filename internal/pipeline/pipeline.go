package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	transcribetypes "github.com/aws/aws-sdk-go-v2/service/transcribe/types"

	"safetube-pipeline/internal/artifact"
	"safetube-pipeline/internal/config"
	"safetube-pipeline/internal/insights"
	"safetube-pipeline/internal/ledger"
	"safetube-pipeline/internal/logger"
	"safetube-pipeline/internal/transcribe"
	"safetube-pipeline/internal/types"
	"safetube-pipeline/internal/youtube"
)

// Pipeline runs one job attempt end to end: acquire media, transcribe,
// extract insights, record artifacts, clean up. It performs no per-stage
// retries of its own: a failed attempt is retried whole, from the top, and
// surviving artifacts from earlier attempts are not consulted.
type Pipeline struct {
	cfg         *config.Config
	ledger      Ledger
	store       Store
	downloader  Downloader
	transcriber Transcriber
	extractor   Extractor
	controller  *Controller
	log         *logger.Logger
	now         func() time.Time
}

func New(cfg *config.Config, l Ledger, s Store, d Downloader, t Transcriber, e Extractor, q Requeuer) *Pipeline {
	return &Pipeline{
		cfg:         cfg,
		ledger:      l,
		store:       s,
		downloader:  d,
		transcriber: t,
		extractor:   e,
		controller:  NewController(l, q, cfg.MaxRetries),
		log:         logger.New(),
		now:         time.Now,
	}
}

// Execute handles one queue message. Validation failures are terminal and
// never reach the retry controller; everything after the processing
// transition does.
func (p *Pipeline) Execute(ctx context.Context, msg types.QueueMessage) error {
	log := p.log.WithJob(msg.VideoID, msg.RetryCount)

	if msg.VideoID == "" || msg.YouTubeLink == "" || p.cfg.MediaBucket == "" {
		log.Error("missing required job inputs")
		p.bestEffortStatus(ctx, msg.VideoID, types.StatusFailed, ErrMissingInput.Error(), msg.RetryCount)
		return ErrMissingInput
	}

	youtubeID := youtube.ExtractID(msg.YouTubeLink)
	if youtubeID == "" {
		log.WithField("youtube_link", msg.YouTubeLink).Error("invalid youtube link")
		p.bestEffortStatus(ctx, msg.VideoID, types.StatusFailed, ErrInvalidLink.Error(), msg.RetryCount)
		return ErrInvalidLink
	}

	p.bestEffortStatus(ctx, msg.VideoID, types.StatusProcessing, "", msg.RetryCount)

	if err := p.run(ctx, msg, youtubeID); err != nil {
		log.WithError(err).Error("pipeline attempt failed")
		p.controller.HandleFailure(ctx, msg, err)
		return err
	}

	log.Info("pipeline attempt complete")
	return nil
}

func (p *Pipeline) run(ctx context.Context, msg types.QueueMessage, youtubeID string) error {
	log := p.log.WithJob(msg.VideoID, msg.RetryCount)

	ext, contentType, mediaFormat, keyPrefix := "mp3", "audio/mpeg", transcribetypes.MediaFormatMp3, "audio/by_video_id"
	if p.cfg.DownloadMode == "probe" {
		ext, contentType, mediaFormat, keyPrefix = "mp4", "video/mp4", transcribetypes.MediaFormatMp4, "video/by_video_id"
	}

	localPath := filepath.Join(p.cfg.WorkDir, youtubeID+"."+ext)
	mediaKey := keyPrefix + "/" + youtubeID + "." + ext

	var cookiesPath string
	if p.cfg.CookiesBucket != "" {
		path, err := p.store.FetchCookies(ctx, p.cfg.CookiesBucket, p.cfg.CookiesKey, p.cfg.WorkDir)
		if err != nil {
			return stageErr("media acquisition", err)
		}
		cookiesPath = path
	}

	if p.cfg.DownloadMode == "probe" {
		if err := p.downloader.DownloadMuxed(ctx, msg.YouTubeLink, cookiesPath, localPath); err != nil {
			return stageErr("media acquisition", err)
		}
	} else {
		if err := p.downloader.DownloadAudio(ctx, msg.YouTubeLink, cookiesPath, localPath); err != nil {
			return stageErr("media acquisition", err)
		}
	}

	if err := p.store.UploadFile(ctx, p.cfg.MediaBucket, mediaKey, localPath, contentType); err != nil {
		return stageErr("media upload", err)
	}
	log.WithField("media_key", mediaKey).Info("uploaded media artifact")

	jobName := transcribe.JobName(youtubeID, p.now())
	if err := p.transcriber.Start(ctx, jobName, artifact.URI(p.cfg.MediaBucket, mediaKey), mediaFormat); err != nil {
		return stageErr("transcription", err)
	}
	if _, err := p.transcriber.AwaitCompletion(ctx, jobName); err != nil {
		return stageErr("transcription", err)
	}

	resultKey := transcribe.ResultKey(jobName)
	resultDoc, err := p.store.Get(ctx, p.transcriber.OutputBucket(), resultKey)
	if err != nil {
		return stageErr("transcription", err)
	}
	text, err := transcribe.TranscriptText(resultDoc)
	if err != nil {
		return stageErr("transcription", err)
	}
	p.bestEffortArtifact(ctx, msg.VideoID, ledger.ArtifactTranscript, resultKey)

	if text == "" {
		// nothing to analyze; the job still completes
		log.Info("empty transcript, skipping insight extraction")
	} else {
		doc, err := p.extractor.Extract(ctx, text)
		if errors.Is(err, insights.ErrEmptyTranscript) {
			log.Info("transcript rejected as empty, skipping insight extraction")
		} else if err != nil {
			return stageErr("insight extraction", err)
		} else {
			body, merr := json.MarshalIndent(doc, "", "  ")
			if merr != nil {
				return stageErr("insight extraction", merr)
			}
			insightsKey := "insights/" + youtubeID + ".json"
			if err := p.store.UploadJSON(ctx, p.cfg.MediaBucket, insightsKey, body); err != nil {
				return stageErr("insight upload", err)
			}
			p.bestEffortArtifact(ctx, msg.VideoID, ledger.ArtifactInsights, insightsKey)
			log.WithField("insights_key", insightsKey).Info("uploaded insight artifact")
		}
	}

	// transient artifact cleanup is best-effort on the success path
	if err := os.Remove(localPath); err != nil {
		log.WithError(err).Warn("failed to delete local media file")
	}
	if err := p.store.Delete(ctx, p.cfg.MediaBucket, mediaKey); err != nil {
		log.WithError(err).Warn("failed to delete uploaded media artifact")
	}

	p.bestEffortStatus(ctx, msg.VideoID, types.StatusDone, "", msg.RetryCount)
	return nil
}

// Ledger writes are an observability aid, never a lock: failures are logged
// and swallowed so they cannot mask the job's primary outcome.
func (p *Pipeline) bestEffortStatus(ctx context.Context, videoID string, status types.Status, errMsg string, retryCount int) {
	if err := p.ledger.UpsertStatus(ctx, videoID, status, errMsg, retryCount); err != nil {
		p.log.WithError(err).WithField("video_id", videoID).Warn("ledger status write failed")
	}
}

func (p *Pipeline) bestEffortArtifact(ctx context.Context, videoID string, kind ledger.ArtifactKind, key string) {
	if err := p.ledger.RecordArtifact(ctx, videoID, kind, key); err != nil {
		p.log.WithError(err).WithField("video_id", videoID).Warn("ledger artifact write failed")
	}
}
