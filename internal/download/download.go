package download

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"safetube-pipeline/internal/logger"
)

// Runner abstracts the external tool invocation so tests can substitute the
// binary.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Metadata is the slice of probe output the submission path persists.
type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	Duration    int    `json:"duration"`
	Uploader    string `json:"uploader"`
}

// ProbeResult carries source metadata plus every available stream variant.
type ProbeResult struct {
	Metadata
	Formats []Format `json:"formats"`
}

// Downloader invokes yt-dlp for media acquisition. Failures are wrapped and
// propagated; the tool is never retried here, retry policy lives at the job
// level.
type Downloader struct {
	runner    Runner
	ytdlpPath string
	log       *logger.Logger
}

func New(ytdlpPath string) *Downloader {
	return &Downloader{runner: execRunner{}, ytdlpPath: ytdlpPath, log: logger.New()}
}

func newWithRunner(r Runner, ytdlpPath string) *Downloader {
	return &Downloader{runner: r, ytdlpPath: ytdlpPath, log: logger.New()}
}

// Probe dumps source metadata and the stream variant list without downloading.
func (d *Downloader) Probe(ctx context.Context, sourceURL, cookiesPath string) (*ProbeResult, error) {
	args := []string{"-J", "--no-download", "--no-warnings"}
	if cookiesPath != "" {
		args = append(args, "--cookies", cookiesPath)
	}
	args = append(args, sourceURL)

	out, err := d.runner.Run(ctx, d.ytdlpPath, args...)
	if err != nil {
		return nil, fmt.Errorf("metadata probe: %w", err)
	}

	var res ProbeResult
	if err := json.Unmarshal(out, &res); err != nil {
		return nil, fmt.Errorf("parse probe output: %w", err)
	}
	return &res, nil
}

// DownloadAudio extracts the audio track straight to mp3 at outPath. This is
// the single-invocation mode the default deployment runs.
func (d *Downloader) DownloadAudio(ctx context.Context, sourceURL, cookiesPath, outPath string) error {
	args := []string{}
	if cookiesPath != "" {
		args = append(args, "--cookies", cookiesPath)
	}
	args = append(args, "-x", "--audio-format", "mp3", "-o", outPath, sourceURL)

	d.log.WithField("url", sourceURL).Info("downloading audio")
	if _, err := d.runner.Run(ctx, d.ytdlpPath, args...); err != nil {
		return fmt.Errorf("audio download: %w", err)
	}
	return nil
}

// DownloadMuxed probes available streams, picks the best video and audio
// variants, and merges them into one mp4 at outPath.
func (d *Downloader) DownloadMuxed(ctx context.Context, sourceURL, cookiesPath, outPath string) error {
	probe, err := d.Probe(ctx, sourceURL, cookiesPath)
	if err != nil {
		return err
	}

	// webm merges poorly with the transcoder downstream
	sel, err := SelectFormats(probe.Formats, "webm")
	if err != nil {
		return err
	}
	d.log.WithField("video_format", sel.VideoID).WithField("audio_format", sel.AudioID).Info("selected formats")

	args := []string{}
	if cookiesPath != "" {
		args = append(args, "--cookies", cookiesPath)
	}
	args = append(args,
		"-f", sel.VideoID+"+"+sel.AudioID,
		"--merge-output-format", "mp4",
		"-o", outPath,
		sourceURL,
	)

	if _, err := d.runner.Run(ctx, d.ytdlpPath, args...); err != nil {
		return fmt.Errorf("muxed download: %w", err)
	}
	return nil
}
