package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// MessagesClient captures the subset of the Anthropic SDK used here. It is
// satisfied by *sdk.MessageService so tests can substitute a fake.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// AnthropicOptions configures the Anthropic-backed client.
type AnthropicOptions struct {
	// Model is the Claude model identifier used for every request.
	Model string

	// MaxTokens caps completion length when a request does not set its own.
	MaxTokens int

	// Temperature applies when a request does not set its own.
	Temperature float64
}

// AnthropicClient implements Client on top of the Claude Messages API.
type AnthropicClient struct {
	msg         MessagesClient
	model       string
	maxTokens   int
	temperature float64
}

// NewAnthropic builds a client from an existing Messages client.
func NewAnthropic(msg MessagesClient, opts AnthropicOptions) (*AnthropicClient, error) {
	if msg == nil {
		return nil, errors.New("anthropic messages client is required")
	}
	if opts.Model == "" {
		return nil, errors.New("model identifier is required")
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &AnthropicClient{
		msg:         msg,
		model:       opts.Model,
		maxTokens:   maxTokens,
		temperature: opts.Temperature,
	}, nil
}

// NewAnthropicFromAPIKey constructs a client using the default Anthropic
// HTTP transport.
func NewAnthropicFromAPIKey(apiKey string, opts AnthropicOptions) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return NewAnthropic(&ac.Messages, opts)
}

// Complete issues one Messages.New call and translates the response. Errors
// are classified into the package sentinels so the retry wrapper can branch
// on outcome kind.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Response{}, errors.New("prompt is required")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.SystemInstruction != "" {
		params.System = []sdk.TextBlockParam{{Text: req.SystemInstruction}}
	}
	if t := req.Temperature; t > 0 {
		params.Temperature = sdk.Float(t)
	} else if c.temperature > 0 {
		params.Temperature = sdk.Float(c.temperature)
	}
	if tools := encodeTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return Response{}, classifyError(err)
	}
	return translateMessage(msg)
}

func encodeTools(specs []ToolSpec) []sdk.ToolUnionParam {
	if len(specs) == 0 {
		return nil
	}
	out := make([]sdk.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			continue
		}
		schema := sdk.ToolInputSchemaParam{}
		if len(spec.InputSchema) > 0 {
			schema.ExtraFields = spec.InputSchema
		}
		u := sdk.ToolUnionParamOfTool(schema, spec.Name)
		if u.OfTool != nil && spec.Description != "" {
			u.OfTool.Description = sdk.String(spec.Description)
		}
		out = append(out, u)
	}
	return out
}

func translateMessage(msg *sdk.Message) (Response, error) {
	if msg == nil {
		return Response{}, errors.New("anthropic: response message is nil")
	}
	if msg.StopReason == sdk.StopReasonRefusal {
		return Response{}, ErrSafetyBlocked
	}

	resp := Response{
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}
	var text strings.Builder
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			input := map[string]any{}
			if raw := block.Input; len(raw) > 0 {
				// Input is raw JSON; a decode failure leaves the map empty
				// rather than failing the whole response.
				_ = json.Unmarshal(raw, &input)
			}
			resp.ToolInvocation = &ToolInvocation{
				ID:    block.ID,
				Name:  block.Name,
				Input: input,
			}
		}
	}
	resp.Text = text.String()
	return resp, nil
}

func classifyError(err error) error {
	var apierr *sdk.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == 429:
			return fmt.Errorf("%w: %w", ErrRateLimited, err)
		case apierr.StatusCode >= 500:
			return fmt.Errorf("%w: %w", ErrOverloaded, err)
		}
		return fmt.Errorf("anthropic messages.new: %w", err)
	}
	// Network-level failures have no status code; treat them as transient.
	return fmt.Errorf("%w: %w", ErrOverloaded, err)
}
