package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"customsagent/internal/llm"
)

// systemPrompt constrains the model: context-only answers, no invented
// figures, Ukrainian output, concrete identifiers cited.
const systemPrompt = `Ти — аналітик митних декларацій. Відповідай лише на основі наданого контексту.
Не вигадуй цифри, дати чи факти, яких немає в контексті.
Відповідай українською мовою.
Наводь конкретні ідентифікатори з контексту: номери декларацій, дати, суми.
Якщо контекст не містить відповіді на питання, прямо скажи про це.`

const userPromptFormat = "Контекст:\n%s\n\nПитання: %s"

// minContextBytes is the threshold below which analysis is not attempted;
// shorter context cannot hold even one rendered record.
const minContextBytes = 20

// Analyzer renders the two-part prompt and interprets the model response.
type Analyzer struct {
	client llm.Client
	log    *log.Logger
}

func NewAnalyzer(client llm.Client, logger *log.Logger) *Analyzer {
	return &Analyzer{
		client: client,
		log:    logger.With("component", "analyzer"),
	}
}

// Analyze asks the model the question grounded in the rendered context and
// returns the plain-text answer.
func (a *Analyzer) Analyze(ctx context.Context, question, contextBlock string) (string, error) {
	if trimmed := len(strings.TrimSpace(contextBlock)); trimmed < minContextBytes {
		return "", fmt.Errorf("%w: %d bytes of context", ErrInsufficientContext, trimmed)
	}

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: fmt.Sprintf(userPromptFormat, contextBlock, question)},
	}

	raw, err := a.client.Invoke(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAnalysis, err)
	}

	text, err := normalizeResponse(raw)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: model returned an empty answer", ErrAnalysis)
	}
	a.log.Debug("analysis finished", "chars", len(text))
	return text, nil
}

// normalizeResponse folds the known model response shapes into plain text.
// Anything unrecognized is an analysis error, never a silent empty answer.
func normalizeResponse(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case llm.Message:
		return v.Content, nil
	case *llm.Message:
		if v != nil {
			return v.Content, nil
		}
	case map[string]any:
		if content, ok := v["content"].(string); ok {
			return content, nil
		}
	}
	return "", fmt.Errorf("%w: unrecognized response shape %T", ErrAnalysis, raw)
}
