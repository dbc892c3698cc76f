// Package analyzer calls the external body-analysis HTTP service.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Client uploads staged images to the analysis service and decodes the
// score response.
type Client struct {
	logger     *slog.Logger
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the given analyzer base URL.
func NewClient(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		logger:     log.With(slog.String("component", "analyzer")),
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Analyze uploads the image at imagePath as a multipart form field named
// "image" and returns the decoded scores. Any non-200 status or malformed
// body is an error; the caller owns the user-facing failure handling.
func (c *Client) Analyze(ctx context.Context, imagePath string) (Result, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return Result{}, fmt.Errorf("open image: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return Result{}, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return Result{}, fmt.Errorf("read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", &body)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("analyze request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("analyze status: %d", resp.StatusCode)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decode analysis: %w", err)
	}
	if err := result.Validate(); err != nil {
		return Result{}, fmt.Errorf("analysis response: %w", err)
	}
	return result, nil
}
