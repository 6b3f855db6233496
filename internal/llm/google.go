package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const defaultGoogleBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// googleClient implements Client using Google Gemini (Generative Language API).
type googleClient struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

func newGoogleClient(apiKey, baseURL, model string, httpClient *http.Client) *googleClient {
	if baseURL == "" {
		baseURL = defaultGoogleBaseURL
	}
	return &googleClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    httpClient,
	}
}

// googleGenerateContentRequest & response are minimal shapes for Gemini's generateContent.
type googleGenerateContentRequest struct {
	SystemInstruction *googleContent         `json:"systemInstruction,omitempty"`
	Contents          []googleContent        `json:"contents"`
	GenerationConfig  googleGenerationConfig `json:"generationConfig"`
}

type googleGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type googleContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []googlePart `json:"parts"`
}

type googlePart struct {
	Text string `json:"text,omitempty"`
}

type googleGenerateContentResponse struct {
	Candidates []struct {
		Content googleContent `json:"content"`
	} `json:"candidates"`
}

func (c *googleClient) Complete(ctx context.Context, req Completion) (string, error) {
	system, rest := splitSystem(req.Messages)

	body := googleGenerateContentRequest{
		GenerationConfig: googleGenerationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if system != "" {
		body.SystemInstruction = &googleContent{Parts: []googlePart{{Text: system}}}
	}
	for _, m := range rest {
		body.Contents = append(body.Contents, googleContent{Role: "user", Parts: []googlePart{{Text: m.Content}}})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", &UpstreamError{Provider: ProviderGoogle, Model: c.model, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", &UpstreamError{Provider: ProviderGoogle, Model: c.model, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamError{
			Provider:   ProviderGoogle,
			Model:      c.model,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("generateContent returned %s", resp.Status),
		}
	}

	var parsed googleGenerateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &UpstreamError{Provider: ProviderGoogle, Model: c.model, Err: err}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &UpstreamError{Provider: ProviderGoogle, Model: c.model, Err: ErrEmptyResponse}
	}

	// Concatenate all parts' text.
	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", &UpstreamError{Provider: ProviderGoogle, Model: c.model, Err: ErrEmptyResponse}
	}
	return sb.String(), nil
}
