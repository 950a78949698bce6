package triage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/nikola-djokovic-web/MiNi-Property-sub001/internal/domain"
)

// HTTPClient abstracts HTTP operations for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// RemoteClassifier calls an external AI classification service.
// Any failure is returned to the caller; Service handles the fallback.
type RemoteClassifier struct {
	url    string
	apiKey string
	client HTTPClient
}

// NewRemoteClassifier creates a classifier against the given endpoint.
// A nil client gets a default with a 10s timeout.
func NewRemoteClassifier(url, apiKey string, client HTTPClient) *RemoteClassifier {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RemoteClassifier{url: url, apiKey: apiKey, client: client}
}

// Configured reports whether the remote service can be called at all.
func (r *RemoteClassifier) Configured() bool {
	return r != nil && r.url != "" && r.apiKey != ""
}

type classifyRequest struct {
	Title   string `json:"title"`
	Details string `json:"details"`
}

type classifyResponse struct {
	Priority string `json:"priority"`
	Category string `json:"category"`
}

// Classify asks the remote service for a triage result. The response is
// validated against the known enums; anything out of range is an error so
// the caller falls back to the keyword classifier.
func (r *RemoteClassifier) Classify(ctx context.Context, title, details string) (Result, error) {
	body, err := json.Marshal(classifyRequest{Title: title, Details: details})
	if err != nil {
		return Result{}, fmt.Errorf("marshal classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("classify request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("classify request: status %d", resp.StatusCode)
	}

	var out classifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("decode classify response: %w", err)
	}

	result := Result{
		Priority: domain.Priority(out.Priority),
		Category: domain.Category(out.Category),
	}
	if !domain.ValidPriority(result.Priority) {
		return Result{}, fmt.Errorf("classify response: unknown priority %q", out.Priority)
	}
	if !domain.ValidCategory(result.Category) {
		return Result{}, fmt.Errorf("classify response: unknown category %q", out.Category)
	}
	return result, nil
}
