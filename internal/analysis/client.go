// Package analysis talks to the remote risk-analysis backend and drives
// the re-analysis schedule for the live transcript. No risk judgment is
// made here; every score comes back from the remote service.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Dulateaad/TrustChecker/internal/models"
)

// RequestError is a non-2xx response from the analysis backend, carrying
// the backend's message when one was provided.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("analysis request failed: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("analysis request failed: %d", e.StatusCode)
}

// Client is the HTTP client for the analysis endpoints.
type Client struct {
	baseURL      string
	liveTextPath string
	httpClient   *http.Client
}

// NewClient creates an analysis client against baseURL. liveTextPath is
// the path of the live-transcript endpoint (the media endpoints hang off
// fixed paths under the same base).
func NewClient(baseURL, liveTextPath string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:      baseURL,
		liveTextPath: liveTextPath,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// mediaRequest is the request body for the per-media-type endpoints.
// Job fields are set when resubmitting a pending job.
type mediaRequest struct {
	Text          string `json:"text,omitempty"`
	URL           string `json:"url,omitempty"`
	S3Key         string `json:"s3Key,omitempty"`
	FileType      string `json:"fileType,omitempty"`
	JobID         string `json:"jobId,omitempty"`
	TranscribeJob string `json:"transcribe_job,omitempty"`
}

// AnalyzeText submits text (the growing live transcript, or a pasted
// message) and returns the risk report.
func (c *Client) AnalyzeText(ctx context.Context, text string) (*models.RiskReport, error) {
	return c.post(ctx, c.liveTextPath, mediaRequest{Text: text})
}

// AnalyzeLink submits a URL for analysis.
func (c *Client) AnalyzeLink(ctx context.Context, url string) (*models.RiskReport, error) {
	return c.post(ctx, "/analyze-link", mediaRequest{URL: url})
}

// AnalyzeImage submits an uploaded image by storage key.
func (c *Client) AnalyzeImage(ctx context.Context, s3Key string) (*models.RiskReport, error) {
	return c.post(ctx, "/analyze-image", mediaRequest{S3Key: s3Key})
}

// AnalyzeDocument submits an uploaded document by storage key. jobID is
// empty on first submission and carries the pending job identifier on
// subsequent polls of the same endpoint.
func (c *Client) AnalyzeDocument(ctx context.Context, s3Key, fileType, jobID string) (*models.RiskReport, error) {
	return c.post(ctx, "/analyze-document", mediaRequest{S3Key: s3Key, FileType: fileType, JobID: jobID})
}

// AnalyzeAudio submits an uploaded audio file by storage key.
// transcribeJob carries the pending job identifier on polls.
func (c *Client) AnalyzeAudio(ctx context.Context, s3Key, transcribeJob string) (*models.RiskReport, error) {
	return c.post(ctx, "/analyze-audio", mediaRequest{S3Key: s3Key, TranscribeJob: transcribeJob})
}

// PollUntilComplete resubmits a pending report to its endpoint until the
// backend completes the job or the context is cancelled.
func (c *Client) PollUntilComplete(ctx context.Context, report *models.RiskReport, s3Key, fileType string, interval time.Duration) (*models.RiskReport, error) {
	if interval <= 0 {
		interval = 3 * time.Second
	}

	for report.Pending() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}

		var err error
		if report.TranscribeJob != "" {
			report, err = c.AnalyzeAudio(ctx, s3Key, report.TranscribeJob)
		} else {
			report, err = c.AnalyzeDocument(ctx, s3Key, fileType, report.JobID)
		}
		if err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (c *Client) post(ctx context.Context, path string, body mediaRequest) (*models.RiskReport, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read analysis response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		reqErr := &RequestError{StatusCode: resp.StatusCode}
		var failure struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(respBody, &failure); err == nil {
			reqErr.Message = failure.Message
		}
		return nil, reqErr
	}

	var report models.RiskReport
	if err := json.Unmarshal(respBody, &report); err != nil {
		return nil, fmt.Errorf("parse analysis response: %w", err)
	}
	return &report, nil
}
