package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"customsagent/internal/llm"
)

func TestAnalyzeInsufficientContext(t *testing.T) {
	model := &fakeLLM{response: "unused"}
	a := NewAnalyzer(model, testLogger())

	for _, contextBlock := range []string{"", "   ", "short"} {
		_, err := a.Analyze(context.Background(), "питання", contextBlock)
		assert.ErrorIs(t, err, ErrInsufficientContext)
	}
	assert.Zero(t, model.invokeCalls, "analysis must not be attempted")
}

func TestAnalyzeInsufficientContextReportsTrimmedLength(t *testing.T) {
	a := NewAnalyzer(&fakeLLM{response: "unused"}, testLogger())

	_, err := a.Analyze(context.Background(), "питання", "      short      ")
	assert.ErrorIs(t, err, ErrInsufficientContext)
	assert.Contains(t, err.Error(), "5 bytes", "padding must not inflate the reported length")
}

func TestAnalyzeClientFailure(t *testing.T) {
	model := &fakeLLM{err: errors.New("connection refused")}
	a := NewAnalyzer(model, testLogger())

	_, err := a.Analyze(context.Background(), "питання", strings.Repeat("context ", 10))
	assert.ErrorIs(t, err, ErrAnalysis)
}

func TestAnalyzeEmptyAnswer(t *testing.T) {
	model := &fakeLLM{response: "   "}
	a := NewAnalyzer(model, testLogger())

	_, err := a.Analyze(context.Background(), "питання", strings.Repeat("context ", 10))
	assert.ErrorIs(t, err, ErrAnalysis)
}

func TestAnalyzePromptContents(t *testing.T) {
	captured := &capturingLLM{response: "відповідь"}
	a := NewAnalyzer(captured, testLogger())

	contextBlock := "Record 1:\ndeclaration_number: 123\ninvoice_value: 500"
	_, err := a.Analyze(context.Background(), "скільки коштує деталь?", contextBlock)
	require.NoError(t, err)

	require.Len(t, captured.messages, 2)
	assert.Equal(t, llm.RoleSystem, captured.messages[0].Role)
	assert.Equal(t, llm.RoleUser, captured.messages[1].Role)
	assert.Contains(t, captured.messages[1].Content, contextBlock)
	assert.Contains(t, captured.messages[1].Content, "скільки коштує деталь?")
}

type capturingLLM struct {
	messages []llm.Message
	response any
}

func (c *capturingLLM) Invoke(ctx context.Context, messages []llm.Message) (any, error) {
	c.messages = messages
	return c.response, nil
}

func (c *capturingLLM) Ping(ctx context.Context) error { return nil }

func TestNormalizeResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    string
		wantErr bool
	}{
		{"plain string", "привіт", "привіт", false},
		{"message value", llm.Message{Content: "текст"}, "текст", false},
		{"message pointer", &llm.Message{Content: "текст"}, "текст", false},
		{"nil message pointer", (*llm.Message)(nil), "", true},
		{"map with content", map[string]any{"content": "текст"}, "текст", false},
		{"map without content", map[string]any{"text": "ні"}, "", true},
		{"raw integer", 7, "", true},
		{"nil", nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeResponse(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrAnalysis)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
