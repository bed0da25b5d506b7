// Package client is a Go SDK for the HireSense API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/terra-clan/hiresense/internal/models"
)

// Client is a Go SDK for the HireSense API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new HireSense client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a non-2xx response
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("API error: %s - %s", e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// AnalyzeRequest represents a pasted resume analysis request
type AnalyzeRequest struct {
	Resume     string `json:"resume"`
	JD         string `json:"jd,omitempty"`
	TargetRole string `json:"target_role,omitempty"`
}

// Analyze analyzes a pasted resume
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (*models.AnalysisResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/analyze", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var result models.AnalysisResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// AnalyzeFile uploads a .pdf, .docx or .txt resume
func (c *Client) AnalyzeFile(ctx context.Context, filename string, file io.Reader, jd, targetRole string) (*models.AnalysisResponse, error) {
	contentType, body, err := multipartBody("resume", filename, file, map[string]string{
		"jd":          jd,
		"target_role": targetRole,
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/analyze_file", contentType, body)
	if err != nil {
		return nil, err
	}

	var result models.AnalysisResponse
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// AnalyzeCode uploads a Python or Go source file for summarization
func (c *Client) AnalyzeCode(ctx context.Context, filename string, file io.Reader) (*models.CodeReport, error) {
	contentType, body, err := multipartBody("code_file", filename, file, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/code/analyze", contentType, body)
	if err != nil {
		return nil, err
	}

	var result models.CodeReport
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &result, nil
}

// History retrieves past analyses, newest first
func (c *Client) History(ctx context.Context) ([]models.HistoryEntry, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/history", "", nil)
	if err != nil {
		return nil, err
	}

	var entries []models.HistoryEntry
	if err := json.Unmarshal(resp, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return entries, nil
}

// Roles retrieves the role names of the catalog
func (c *Client) Roles(ctx context.Context) ([]string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/roles", "", nil)
	if err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal(resp, &names); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return names, nil
}

// RoleInsights retrieves the insights document as raw JSON
func (c *Client) RoleInsights(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/role_insights", "", nil)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp), nil
}

// DownloadReport retrieves the PDF report of an analysis
func (c *Client) DownloadReport(ctx context.Context, id string) ([]byte, error) {
	return c.doRequest(ctx, http.MethodGet, "/download/"+url.PathEscape(id), "", nil)
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", "", nil)
	return err
}

func multipartBody(field, filename string, file io.Reader, fields map[string]string) (string, io.Reader, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fw, file); err != nil {
		return "", nil, fmt.Errorf("failed to read file: %w", err)
	}

	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return "", nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return "", nil, fmt.Errorf("failed to finish form: %w", err)
	}
	return mw.FormDataContentType(), &buf, nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
		var errBody struct {
			Error *struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if json.Unmarshal(respBody, &errBody) == nil && errBody.Error != nil {
			apiErr.Code = errBody.Error.Code
			apiErr.Message = errBody.Error.Message
		}
		return nil, apiErr
	}

	return respBody, nil
}
