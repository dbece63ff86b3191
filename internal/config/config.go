package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the processor and the API read from the
// environment. Defaults suit local runs; deployments override through
// container env vars.
type Config struct {
	Region string

	// Artifact store
	MediaBucket            string
	TranscribeOutputBucket string
	CookiesBucket          string
	CookiesKey             string

	// Ledger
	VideosTable string

	// Queue
	QueueURL string
	DLQURL   string

	// Retry budget for one deployment variant. Observed values 0 or 1.
	MaxRetries int
	// Starting retry_count stamped on the first attempt at submission time.
	InitialRetryCount int

	// Media acquisition
	DownloadMode string // "audio" or "probe"
	YtdlpPath    string
	WorkDir      string

	// Transcription
	TranscribePollInterval time.Duration

	// Insight extraction
	LLMEndpoint string
	LLMModel    string
	LLMAPIKeys  []string

	// API server
	ServerPort     string
	AllowedOrigins string
}

func Load() *Config {
	maxRetries, _ := strconv.Atoi(getEnvOrDefault("MAX_RETRIES", "1"))
	if maxRetries < 0 {
		maxRetries = 0
	}
	initialRetry, _ := strconv.Atoi(getEnvOrDefault("INITIAL_RETRY_COUNT", "0"))

	pollSec, _ := strconv.Atoi(getEnvOrDefault("TRANSCRIBE_POLL_SECONDS", "5"))
	if pollSec <= 0 {
		pollSec = 5
	}

	var keys []string
	for _, k := range strings.Split(os.Getenv("LLM_API_KEYS"), ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}

	return &Config{
		Region:                 getEnvOrDefault("AWS_REGION", "us-east-1"),
		MediaBucket:            os.Getenv("S3_BUCKET_NAME"),
		TranscribeOutputBucket: os.Getenv("TRANSCRIBE_OUTPUT_BUCKET"),
		CookiesBucket:          os.Getenv("COOKIES_BUCKET"),
		CookiesKey:             getEnvOrDefault("COOKIES_KEY", "cookies.txt"),
		VideosTable:            os.Getenv("DYNAMO_VIDEOS_TABLE"),
		QueueURL:               os.Getenv("SQS_QUEUE_URL"),
		DLQURL:                 os.Getenv("VIDEO_DLQ_URL"),
		MaxRetries:             maxRetries,
		InitialRetryCount:      initialRetry,
		DownloadMode:           getEnvOrDefault("DOWNLOAD_MODE", "audio"),
		YtdlpPath:              getEnvOrDefault("YTDLP_PATH", "yt-dlp"),
		WorkDir:                getEnvOrDefault("WORK_DIR", os.TempDir()),
		TranscribePollInterval: time.Duration(pollSec) * time.Second,
		LLMEndpoint:            os.Getenv("LLM_GATEWAY_URL"),
		LLMModel:               getEnvOrDefault("LLM_MODEL", "gemini-1.5-flash"),
		LLMAPIKeys:             keys,
		ServerPort:             getEnvOrDefault("PORT", "8080"),
		AllowedOrigins:         getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:5173"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
