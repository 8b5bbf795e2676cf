package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1/"
	DefaultModel   = "gpt-4o"

	temperature = 0.7
	topP        = 0.8
)

// DefaultSystemPrompt is used when no instruction prompt is configured
const DefaultSystemPrompt = "You are a helpful assistant that fixes grammar, spelling, punctuation, and formatting errors in text. " +
	"Any time you receive a message, you will immediately fix the errors and return the corrected message. " +
	"You will not add any new text, only fix the errors. If there isn't anything to format, you will return nothing. " +
	"You will only return the corrected message, nothing else. " +
	"If there is a way to rewrite the text to convey the same sentiment but in a better or more optimal way, you're allowed to do that."

// ErrMalformedResponse is returned when the response lacks choices[0].message.content
var ErrMalformedResponse = errors.New("malformed completion response")

// Request is a single rewrite request
type Request struct {
	Text   string
	Prompt string
	APIKey string
	Model  string
}

// Completer rewrites text with a chat-completion model
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Client implements Completer against an OpenAI-compatible chat-completions endpoint
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new completion client. An empty baseURL selects the OpenAI API.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Complete sends one request and returns the first choice's content. Nothing is retried.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	prompt := req.Prompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	client := openai.NewClient(
		option.WithAPIKey(req.APIKey),
		option.WithBaseURL(c.baseURL),
		option.WithHTTPClient(c.httpClient),
		option.WithMaxRetries(0),
	)

	var httpResp *http.Response
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{OfString: openai.String(prompt)},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{OfString: openai.String(req.Text)},
				},
			},
		},
		Temperature: openai.Float(temperature),
		TopP:        openai.Float(topP),
	}, option.WithResponseInto(&httpResp))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("completion request failed with status %d: %w", apiErr.StatusCode, err)
		}
		// a 2xx response that failed to decode
		if httpResp != nil && httpResp.StatusCode < 300 {
			return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return "", fmt.Errorf("completion request failed: %w", err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	msg := resp.Choices[0].Message
	if !msg.JSON.Content.Valid() {
		return "", fmt.Errorf("%w: missing message content", ErrMalformedResponse)
	}

	return msg.Content, nil
}
