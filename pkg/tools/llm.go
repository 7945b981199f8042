package tools

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

	"github.com/talentbase/resumeflow/pkg/core"
)

const (
	defaultChatEndpoint = "https://api.openai.com/v1/chat/completions"
	defaultChatModel    = "gpt-4o-mini"
	llmRequestTimeout   = 2 * time.Minute
	defaultConfidence   = 0.7
)

var extractionSystemPrompt = strings.TrimSpace(`
You extract professional role information from resumes. Extract ALL roles,
including internships, part-time roles, and consulting positions. Return
ONLY a valid JSON array of role objects with these fields: company, title,
start_year, end_year, start_month, end_month, manager_title, direct_reports,
budget_responsibility, headcount, quota, peer_functions, achievements,
responsibilities, location, employment_type, confidence_score. Use null for
fields not found. If employment is listed as "2020 - Present", set end_year
to null. No additional text or formatting.`)

// HTTPRoleExtractor performs structured role extraction against an
// OpenAI-compatible chat-completions endpoint.
type HTTPRoleExtractor struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
}

// ExtractorOption configures an HTTPRoleExtractor.
type ExtractorOption func(*HTTPRoleExtractor)

// WithEndpoint overrides the chat-completions URL.
func WithEndpoint(url string) ExtractorOption {
	return func(e *HTTPRoleExtractor) { e.endpoint = url }
}

// WithModel overrides the extraction model.
func WithModel(model string) ExtractorOption {
	return func(e *HTTPRoleExtractor) { e.model = model }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) ExtractorOption {
	return func(e *HTTPRoleExtractor) { e.httpClient = c }
}

// NewHTTPRoleExtractor creates an extractor using the given API key.
func NewHTTPRoleExtractor(apiKey string, opts ...ExtractorOption) *HTTPRoleExtractor {
	e := &HTTPRoleExtractor{
		apiKey:     apiKey,
		endpoint:   defaultChatEndpoint,
		model:      defaultChatModel,
		httpClient: &http.Client{Timeout: llmRequestTimeout},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractRoles implements RoleExtractor. The model's response must be a
// JSON array of role objects; anything else is a total failure. Individual
// model-reported problems come back in errs without failing the call.
func (e *HTTPRoleExtractor) ExtractRoles(ctx context.Context, text, clientID string) ([]core.Role, float64, []string, error) {
	if strings.TrimSpace(e.apiKey) == "" {
		return nil, 0, nil, errors.New("extraction api key is not configured")
	}

	payload := map[string]any{
		"model": e.model,
		"messages": []map[string]string{
			{"role": "system", "content": extractionSystemPrompt},
			{"role": "user", "content": text},
		},
		"temperature": 0.1,
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		return nil, 0, nil, fmt.Errorf("encode extraction payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, buf)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("create extraction request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("extraction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, nil, fmt.Errorf("extraction api error: status %d body %s", resp.StatusCode, string(body))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, 0, nil, fmt.Errorf("decode extraction response: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, 0, nil, errors.New("no extraction returned")
	}

	roles, errs, err := ParseRolePayload(response.Choices[0].Message.Content)
	if err != nil {
		return nil, 0, nil, err
	}
	return roles, averageConfidence(roles), errs, nil
}

// ParseRolePayload decodes a model response into roles. Markdown code
// fences are tolerated; the body must be an ordered JSON array of role
// objects.
func ParseRolePayload(content string) ([]core.Role, []string, error) {
	content = stripFences(content)

	var roles []core.Role
	if err := json.Unmarshal([]byte(content), &roles); err != nil {
		return nil, nil, fmt.Errorf("extraction response is not a role array: %w", err)
	}

	var errs []string
	for i := range roles {
		switch {
		case roles[i].Confidence == 0:
			roles[i].Confidence = defaultConfidence
			errs = append(errs, fmt.Sprintf("role %d missing confidence score, defaulted", i))
		case roles[i].Confidence < 0:
			roles[i].Confidence = defaultConfidence
			errs = append(errs, fmt.Sprintf("role %d confidence score out of range, defaulted", i))
		case roles[i].Confidence > 1:
			roles[i].Confidence = 1
			errs = append(errs, fmt.Sprintf("role %d confidence score out of range, clamped", i))
		}
	}
	return roles, errs, nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}

func averageConfidence(roles []core.Role) float64 {
	if len(roles) == 0 {
		return 0
	}
	var sum float64
	for _, r := range roles {
		sum += r.Confidence
	}
	return sum / float64(len(roles))
}
