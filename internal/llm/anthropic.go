package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// anthropicClient implements Client using Anthropic's Messages API.
type anthropicClient struct {
	client anthropic.Client
	model  string
}

func newAnthropicClient(apiKey, baseURL, model string, httpClient *http.Client) *anthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
		// the pipeline falls back instead of retrying
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &anthropicClient{client: anthropic.NewClient(opts...), model: model}
}

func (c *anthropicClient) Complete(ctx context.Context, req Completion) (string, error) {
	system, rest := splitSystem(req.Messages)

	msgs := make([]anthropic.MessageParam, 0, len(rest))
	for _, m := range rest {
		msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   int64(req.MaxTokens),
		Messages:    msgs,
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		status := 0
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return "", &UpstreamError{Provider: ProviderAnthropic, Model: c.model, StatusCode: status, Err: err}
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", &UpstreamError{Provider: ProviderAnthropic, Model: c.model, Err: ErrEmptyResponse}
	}
	return sb.String(), nil
}
