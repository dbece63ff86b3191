package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"safetube-pipeline/internal/logger"
	"safetube-pipeline/internal/types"
)

// ErrEmptyTranscript marks input the stage refuses to send to the model.
// Callers decide whether that skips insights or fails the job; the pipeline
// treats it as a skip.
var ErrEmptyTranscript = errors.New("empty transcript")

// Extractor turns transcript text into a normalized InsightDocument via an
// external text-generation endpoint.
type Extractor struct {
	endpoint     string
	model        string
	keys         []string
	httpClient   *http.Client
	maxRetryTime time.Duration
	log          *logger.Logger
}

func NewExtractor(endpoint, model string, keys []string) *Extractor {
	return &Extractor{
		endpoint:     endpoint,
		model:        model,
		keys:         keys,
		httpClient:   &http.Client{Timeout: 25 * time.Second},
		maxRetryTime: 20 * time.Second,
		log:          logger.New(),
	}
}

// Extract rejects empty input, prompts the model with the fixed extraction
// template, and strictly parses the response into the full fixed schema.
func (e *Extractor) Extract(ctx context.Context, transcript string) (types.InsightDocument, error) {
	if strings.TrimSpace(transcript) == "" {
		return types.InsightDocument{}, ErrEmptyTranscript
	}
	if e.endpoint == "" || len(e.keys) == 0 {
		return types.InsightDocument{}, fmt.Errorf("text generation endpoint not configured")
	}

	raw, err := e.generate(ctx, BuildPrompt(transcript))
	if err != nil {
		return types.InsightDocument{}, fmt.Errorf("insight generation: %w", err)
	}
	return Parse(raw)
}

// generate walks the credential pool in order until one call returns a
// non-empty body. Order is fixed so quota burn stays predictable; any single
// key may be rate-limited or revoked independently of the others.
func (e *Extractor) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model": e.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.0,
	}
	data, _ := json.Marshal(reqBody)

	var lastErr error
	for i, key := range e.keys {
		body, err := e.callOnce(ctx, key, data)
		if err != nil {
			lastErr = err
			e.log.WithError(err).WithField("key_index", i).Warn("text generation call failed, rotating credential")
			continue
		}
		if len(bytes.TrimSpace(body)) == 0 {
			lastErr = fmt.Errorf("empty response body")
			e.log.WithField("key_index", i).Warn("empty response body, rotating credential")
			continue
		}
		return contentFromBody(body), nil
	}
	return "", fmt.Errorf("all credentials exhausted: %w", lastErr)
}

// callOnce performs one credentialed request with exponential backoff on
// transient failures. Client errors are permanent: retrying the same key on a
// 4xx only burns quota.
func (e *Extractor) callOnce(ctx context.Context, key string, payload []byte) ([]byte, error) {
	var body []byte
	var lastErr error

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+key)

		resp, err := e.httpClient.Do(req)
		if err != nil {
			lastErr = err
			return err
		}
		defer resp.Body.Close()

		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", strings.TrimSpace(string(data)))
			return lastErr
		}
		if resp.StatusCode >= 400 {
			lastErr = fmt.Errorf("client error %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
			return backoff.Permanent(lastErr)
		}
		body = data
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = e.maxRetryTime
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}
	return body, nil
}

// contentFromBody unwraps an OpenAI-shaped envelope when present; otherwise
// the body itself is the free-form text.
func contentFromBody(body []byte) string {
	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Choices) > 0 && parsed.Choices[0].Message.Content != "" {
		return parsed.Choices[0].Message.Content
	}
	return string(body)
}
