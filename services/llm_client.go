package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LLMClient talks to an Ollama-compatible generate/chat HTTP backend. The
// pipeline depends only on this request/response contract, not on which
// model or runtime serves it.
type LLMClient struct {
	baseURL    string
	httpClient *http.Client
	formModel  string
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Images  []string        `json:"images,omitempty"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type generateResponse struct {
	Response string `json:"response"`
	Model    string `json:"model"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string          `json:"model"`
	Messages []ChatMessage   `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  generateOptions `json:"options"`
}

type chatResponse struct {
	Message ChatMessage `json:"message"`
}

// GenerateParams tunes one generation call. Zero values fall back to the
// client defaults.
type GenerateParams struct {
	Model       string
	System      string
	Temperature float64
	MaxTokens   int
	Images      [][]byte
	Timeout     time.Duration
}

func NewLLMClient(baseURL, formModel string, timeout time.Duration) *LLMClient {
	return &LLMClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		formModel:  formModel,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Generate sends one prompt (optionally with images) and returns the raw
// response text. Non-2xx statuses and malformed bodies are returned as
// errors; callers decide whether to degrade.
func (c *LLMClient) Generate(ctx context.Context, prompt string, params GenerateParams) (string, error) {
	model := params.Model
	if model == "" {
		model = c.formModel
	}
	maxTokens := params.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	reqBody := generateRequest{
		Model:  model,
		Prompt: prompt,
		System: params.System,
		Stream: false,
		Options: generateOptions{
			Temperature: params.Temperature,
			NumPredict:  maxTokens,
		},
	}
	for _, img := range params.Images {
		reqBody.Images = append(reqBody.Images, base64.StdEncoding.EncodeToString(img))
	}

	body, err := c.post(ctx, "/api/generate", reqBody, params.Timeout)
	if err != nil {
		return "", err
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("malformed generate response: %w", err)
	}
	return result.Response, nil
}

// GenerateJSON runs Generate and extracts the first balanced JSON object
// from the reply. Models routinely wrap JSON in prose, so the raw text is
// scanned rather than unmarshalled directly. Callers decode the returned
// block into their own types.
func (c *LLMClient) GenerateJSON(ctx context.Context, prompt string, params GenerateParams) (string, error) {
	text, err := c.Generate(ctx, prompt, params)
	if err != nil {
		return "", err
	}

	block, ok := ExtractJSONBlock(text)
	if !ok {
		return "", fmt.Errorf("no JSON object in model response")
	}
	return block, nil
}

// Chat sends a message list to the chat endpoint.
func (c *LLMClient) Chat(ctx context.Context, messages []ChatMessage, model string) (string, error) {
	if model == "" {
		model = c.formModel
	}
	reqBody := chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options:  generateOptions{Temperature: 0.1, NumPredict: 2048},
	}

	body, err := c.post(ctx, "/api/chat", reqBody, 0)
	if err != nil {
		return "", err
	}

	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("malformed chat response: %w", err)
	}
	return result.Message.Content, nil
}

// ListModels returns the model names the backend reports.
func (c *LLMClient) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model listing failed: status %d", resp.StatusCode)
	}

	var listing struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(listing.Models))
	for _, m := range listing.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// HealthCheck reports whether the backend answers at all.
func (c *LLMClient) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := c.ListModels(ctx)
	return err == nil
}

func (c *LLMClient) post(ctx context.Context, path string, payload interface{}, timeout time.Duration) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("LLM backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("LLM backend error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	return io.ReadAll(resp.Body)
}

// ExtractJSONBlock finds the first balanced {...} block in s, respecting
// string literals and escapes. Returns false if none exists.
func ExtractJSONBlock(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
