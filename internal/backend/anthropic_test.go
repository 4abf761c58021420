package backend

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMessages struct {
	lastParams sdk.MessageNewParams
	resp       *sdk.Message
	err        error
}

func (s *stubMessages) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	s.lastParams = body
	return s.resp, s.err
}

func TestAnthropicCompleteText(t *testing.T) {
	stub := &stubMessages{
		resp: &sdk.Message{
			Content: []sdk.ContentBlockUnion{
				{Type: "text", Text: "All findings look "},
				{Type: "text", Text: "consistent."},
			},
			StopReason: sdk.StopReasonEndTurn,
			Usage:      sdk.Usage{InputTokens: 12, OutputTokens: 7},
		},
	}
	client, err := NewAnthropic(stub, AnthropicOptions{Model: "claude-sonnet-4-20250514", Temperature: 0.2})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{
		Prompt:            "Review these outputs.",
		SystemInstruction: "You are the Critic agent.",
	})
	require.NoError(t, err)

	assert.Equal(t, "All findings look consistent.", resp.Text)
	assert.Equal(t, 12, resp.InputTokens)
	assert.Equal(t, 7, resp.OutputTokens)
	assert.Nil(t, resp.ToolInvocation)

	assert.Equal(t, sdk.Model("claude-sonnet-4-20250514"), stub.lastParams.Model)
	assert.Equal(t, int64(1024), stub.lastParams.MaxTokens)
	require.Len(t, stub.lastParams.System, 1)
	assert.Equal(t, "You are the Critic agent.", stub.lastParams.System[0].Text)
}

func TestAnthropicCompleteToolUse(t *testing.T) {
	stub := &stubMessages{
		resp: &sdk.Message{
			Content: []sdk.ContentBlockUnion{
				{Type: "tool_use", ID: "tu-1", Name: "detect_anomalies", Input: json.RawMessage(`{"method":"iqr"}`)},
			},
			StopReason: sdk.StopReasonToolUse,
		},
	}
	client, err := NewAnthropic(stub, AnthropicOptions{Model: "claude-sonnet-4-20250514"})
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), Request{
		Prompt: "Check the revenue series.",
		Tools: []ToolSpec{
			{Name: "detect_anomalies", Description: "Detect anomalies", InputSchema: map[string]any{"type": "object"}},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, resp.ToolInvocation)
	assert.Equal(t, "tu-1", resp.ToolInvocation.ID)
	assert.Equal(t, "detect_anomalies", resp.ToolInvocation.Name)
	assert.Equal(t, map[string]any{"method": "iqr"}, resp.ToolInvocation.Input)
	require.Len(t, stub.lastParams.Tools, 1)
}

func TestAnthropicRefusalBecomesSentinel(t *testing.T) {
	stub := &stubMessages{
		resp: &sdk.Message{StopReason: sdk.StopReasonRefusal},
	}
	client, err := NewAnthropic(stub, AnthropicOptions{Model: "claude-sonnet-4-20250514"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Prompt: "Summarize."})
	assert.ErrorIs(t, err, ErrSafetyBlocked)
}

func TestAnthropicEmptyPromptRejected(t *testing.T) {
	client, err := NewAnthropic(&stubMessages{}, AnthropicOptions{Model: "claude-sonnet-4-20250514"})
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), Request{Prompt: "   "})
	assert.Error(t, err)
}

func TestAnthropicConstructorValidation(t *testing.T) {
	_, err := NewAnthropic(nil, AnthropicOptions{Model: "m"})
	assert.Error(t, err)

	_, err = NewAnthropic(&stubMessages{}, AnthropicOptions{})
	assert.Error(t, err)

	_, err = NewAnthropicFromAPIKey("", AnthropicOptions{Model: "m"})
	assert.Error(t, err)
}

func TestClassifyErrorStatusCodes(t *testing.T) {
	rateLimited := classifyError(&sdk.Error{StatusCode: 429})
	assert.ErrorIs(t, rateLimited, ErrRateLimited)
	assert.True(t, IsTransient(rateLimited))

	overloaded := classifyError(&sdk.Error{StatusCode: 529})
	assert.ErrorIs(t, overloaded, ErrOverloaded)
	assert.True(t, IsTransient(overloaded))

	badRequest := classifyError(&sdk.Error{StatusCode: 400})
	assert.False(t, IsTransient(badRequest))

	network := classifyError(errors.New("connection reset"))
	assert.ErrorIs(t, network, ErrOverloaded)
}
