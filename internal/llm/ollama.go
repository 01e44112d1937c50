package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"customsagent/internal/config"
)

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatResponse struct {
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// Ollama implements Client against the Ollama HTTP API.
type Ollama struct {
	baseURL string
	model   string
	httpc   *http.Client
	log     *log.Logger
}

func NewOllama(cfg config.OllamaConfig, logger *log.Logger) *Ollama {
	return &Ollama{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		model:   cfg.Model,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		log:     logger.With("component", "ollama"),
	}
}

// Invoke sends the chat messages and returns the assistant turn as a
// Message value.
func (o *Ollama) Invoke(ctx context.Context, messages []Message) (any, error) {
	body, err := json.Marshal(chatRequest{Model: o.model, Messages: messages, Stream: false})
	if err != nil {
		return nil, fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding ollama response: %w", err)
	}

	o.log.Debug("model call finished", "model", o.model, "chars", len(out.Message.Content))
	return out.Message, nil
}

// Ping verifies the Ollama server is reachable.
func (o *Ollama) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := o.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("could not connect to ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decoding tags response: %w", err)
	}
	return nil
}
