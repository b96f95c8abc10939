package extraction

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiExtractor sends documents inline to the Gemini API with a JSON response schema
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

var _ Extractor = (*GeminiExtractor)(nil)

// GeminiOptions configures the Gemini client. BaseURL and HTTPClient are for tests and proxies.
type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

func NewGeminiExtractor(ctx context.Context, opts GeminiOptions) (*GeminiExtractor, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingCredentials
	}
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiExtractor{client: client, model: opts.Model}, nil
}

func (g *GeminiExtractor) Name() string {
	return "gemini"
}

func (g *GeminiExtractor) Extract(ctx context.Context, doc Document) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromText(Instruction),
		genai.NewPartFromBytes(doc.Data, doc.MIMEType),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   geminiSchema(),
			Temperature:      genai.Ptr[float32](0),
			MaxOutputTokens:  8192,
		},
	)
	if err != nil {
		return "", classifyGeminiError(err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: %s", ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	for _, c := range resp.Candidates {
		if c != nil && c.FinishReason == genai.FinishReasonSafety {
			return "", ErrContentBlocked
		}
	}

	text := resp.Text()
	if text == "" {
		return "", Transient(errors.New("gemini returned an empty response"))
	}
	return text, nil
}

func classifyGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrMissingCredentials, apiErr.Message)
		case IsRetryableStatus(apiErr.Code):
			return Transient(err)
		}
		return fmt.Errorf("gemini request failed: %w", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Transient(err)
	}
	return fmt.Errorf("gemini request failed: %w", err)
}

func geminiSchema() *genai.Schema {
	props := make(map[string]*genai.Schema, len(RecordFields))
	for _, f := range RecordFields {
		props[f] = &genai.Schema{Type: genai.TypeString}
		if isNumericField(f) {
			props[f].Type = genai.TypeNumber
		}
	}
	props["status"].Enum = StatusLabels
	props["platform"].Enum = PlatformLabels

	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type:             genai.TypeObject,
			Properties:       props,
			Required:         RequiredFields,
			PropertyOrdering: RecordFields,
		},
	}
}
