package extraction

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIExtractor reads reservation screenshots with a vision-capable chat model.
// The chat API does not accept PDFs inline, so those are rejected up front.
type OpenAIExtractor struct {
	client *openai.Client
	model  string
}

var _ Extractor = (*OpenAIExtractor)(nil)

type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
}

func NewOpenAIExtractor(opts OpenAIOptions) (*OpenAIExtractor, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingCredentials
	}
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}

	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}

	return &OpenAIExtractor{client: openai.NewClientWithConfig(cfg), model: opts.Model}, nil
}

func (o *OpenAIExtractor) Name() string {
	return "openai"
}

// openAIWrapperKey holds the array, since JSON mode only returns objects
const openAIWrapperKey = "reservations"

func (o *OpenAIExtractor) Extract(ctx context.Context, doc Document) (string, error) {
	if !strings.HasPrefix(doc.MIMEType, "image/") {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDocument, doc.MIMEType)
	}

	dataURL := "data:" + doc.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(doc.Data)
	instruction := Instruction + "\nWrap the array in a JSON object under the key \"" + openAIWrapperKey + "\"."

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You extract structured reservation data from booking platform screenshots.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: instruction},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
						URL:    dataURL,
						Detail: openai.ImageURLDetailHigh,
					}},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0,
		MaxTokens:      8192,
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", Transient(errors.New("openai returned no choices"))
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonContentFilter || choice.Message.Refusal != "" {
		return "", ErrContentBlocked
	}
	return choice.Message.Content, nil
}

func classifyOpenAIError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: %v", ErrMissingCredentials, err)
	case status != 0 && IsRetryableStatus(status):
		return Transient(err)
	case status == 0 && errors.Is(err, context.DeadlineExceeded):
		return Transient(err)
	}
	return fmt.Errorf("openai request failed: %w", err)
}
