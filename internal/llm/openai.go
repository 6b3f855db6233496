package llm

import (
	"context"
	"errors"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// openAIClient implements Client using OpenAI-compatible Chat Completions.
type openAIClient struct {
	client *openai.Client
	model  string
}

func newOpenAIClient(apiKey, baseURL, model string, httpClient *http.Client) *openAIClient {
	oc := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		oc.BaseURL = baseURL
	}
	oc.HTTPClient = httpClient
	return &openAIClient{client: openai.NewClientWithConfig(oc), model: model}
}

func (c *openAIClient) Complete(ctx context.Context, req Completion) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleSystem {
			role = openai.ChatMessageRoleSystem
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", &UpstreamError{Provider: ProviderOpenAI, Model: c.model, StatusCode: openAIStatus(err), Err: err}
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &UpstreamError{Provider: ProviderOpenAI, Model: c.model, Err: ErrEmptyResponse}
	}
	return resp.Choices[0].Message.Content, nil
}

func openAIStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
