package insights

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// ErrUnavailable is returned by completers that have no model behind them.
var ErrUnavailable = errors.New("insights: no language model configured")

// Completer answers a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewCompleter returns an OpenAI completer, or a noop one when apiKey is empty.
func NewCompleter(apiKey, model string) Completer {
	if strings.TrimSpace(apiKey) == "" {
		return NoopCompleter{}
	}
	return NewOpenAICompleter(apiKey, model)
}

func NewOpenAICompleter(apiKey, model string) *OpenAICompleter {
	if model == "" {
		model = "gpt-4o"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAICompleter{client: &client, model: model}
}

func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
	}

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai responses error: %w", err)
	}

	content := strings.TrimSpace(resp.OutputText())
	if content == "" {
		return "", fmt.Errorf("empty response content")
	}
	return content, nil
}

type NoopCompleter struct{}

func (NoopCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return "", ErrUnavailable
}
