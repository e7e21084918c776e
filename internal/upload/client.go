// Package upload implements the pre-signed upload flow: ask the issuer
// for a time-limited storage URL, PUT the file bytes there, and hand the
// resulting storage key to the caller for analysis.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Ticket is one issued pre-signed upload: the URL to PUT the bytes to
// and the storage key the analysis endpoints accept afterwards.
type Ticket struct {
	UploadURL string `json:"uploadUrl"`
	S3Key     string `json:"s3Key"`
}

// RequestError is a non-2xx response from the issuer or the storage
// backend.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upload request failed: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upload request failed: %d", e.StatusCode)
}

// Client drives the pre-signed upload flow against the issuer endpoint.
type Client struct {
	issuerURL  string
	httpClient *http.Client
}

// NewClient creates an upload client against the issuer endpoint.
func NewClient(issuerURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		issuerURL: issuerURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// issueRequest is the request body the issuer accepts.
type issueRequest struct {
	ContentType string `json:"contentType"`
	Ext         string `json:"ext"`
}

// RequestTicket asks the issuer for a pre-signed upload URL for a file
// of the given content type and extension.
func (c *Client) RequestTicket(ctx context.Context, contentType, ext string) (*Ticket, error) {
	payload, err := json.Marshal(issueRequest{ContentType: contentType, Ext: ext})
	if err != nil {
		return nil, fmt.Errorf("marshal upload-url request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.issuerURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create upload-url request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload-url request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upload-url response: %w", err)
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

	var ticket Ticket
	if err := json.Unmarshal(respBody, &ticket); err != nil {
		return nil, fmt.Errorf("parse upload-url response: %w", err)
	}
	return &ticket, nil
}

// Put uploads the file bytes to the ticket's pre-signed URL.
func (c *Client) Put(ctx context.Context, ticket *Ticket, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, ticket.UploadURL, body)
	if err != nil {
		return fmt.Errorf("create storage upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &RequestError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(message))}
	}
	return nil
}

// UploadFile runs the full proxy flow for one file: issue a ticket for
// the filename's extension, PUT the bytes, return the storage key.
func (c *Client) UploadFile(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	ticket, err := c.RequestTicket(ctx, contentType, Ext(filename))
	if err != nil {
		return "", err
	}
	if err := c.Put(ctx, ticket, contentType, body); err != nil {
		return "", err
	}
	return ticket.S3Key, nil
}

// Ext returns the filename's extension without the dot, empty when the
// name has none.
func Ext(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return filename[i+1:]
}
