// Package translator sends content-tree texts to a chat model in batches
// and merges the translations back into a copy of the tree.
package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"pptx-translator/internal/logger"
	"pptx-translator/internal/types"
)

// Request is one batch of texts for a single target language.
type Request struct {
	Texts          []string
	TargetLanguage string
}

// Response carries one translation per request text, in request order.
type Response struct {
	Texts       []string
	TotalTokens int
}

// Engine translates a batch. Implementations must return exactly
// len(req.Texts) texts or an error.
type Engine interface {
	Translate(ctx context.Context, req Request) (*Response, error)
}

// ChatEngine 基于 eino ChatModel 的翻译引擎
type ChatEngine struct {
	model model.BaseChatModel
	log   logger.Logger
}

// NewChatEngine creates an engine backed by an OpenAI-compatible endpoint.
func NewChatEngine(ctx context.Context, cfg *types.Config) (*ChatEngine, error) {
	if cfg == nil || strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		return nil, types.NewAppError(types.ErrConfig, "OpenAI API key is not configured", nil)
	}
	if cfg.OpenAIModel == "" {
		return nil, types.NewAppError(types.ErrConfig, "OpenAI model is not configured", nil)
	}

	temperature := cfg.Temperature
	chatModelConfig := &openai.ChatModelConfig{
		Model:       cfg.OpenAIModel,
		APIKey:      cfg.OpenAIAPIKey,
		Temperature: &temperature,
		Timeout:     cfg.RequestTimeout(),
	}
	if cfg.OpenAIBaseURL != "" {
		chatModelConfig.BaseURL = strings.TrimRight(cfg.OpenAIBaseURL, "/")
	}

	chatModel, err := openai.NewChatModel(ctx, chatModelConfig)
	if err != nil {
		return nil, types.NewAppError(types.ErrConfig, "failed to create chat model", err)
	}
	return NewEngine(chatModel), nil
}

// NewEngine wraps an existing chat model.
func NewEngine(m model.BaseChatModel) *ChatEngine {
	return &ChatEngine{model: m, log: logger.Named("engine")}
}

// wireItem is the JSON shape exchanged with the model.
type wireItem struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// Translate sends the batch as a JSON array and validates the reply.
func (e *ChatEngine) Translate(ctx context.Context, req Request) (*Response, error) {
	if len(req.Texts) == 0 {
		return &Response{Texts: []string{}}, nil
	}
	user, err := buildUserPrompt(req.Texts)
	if err != nil {
		return nil, types.NewAppError(types.ErrInternal, "failed to encode batch", err)
	}

	e.log.Debug("calling chat model",
		logger.Int("texts", len(req.Texts)),
		logger.String("target", req.TargetLanguage))

	msg, err := e.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(buildSystemPrompt(req.TargetLanguage)),
		schema.UserMessage(user),
	})
	if err != nil {
		return nil, classifyError(ctx, err)
	}
	if msg == nil {
		return nil, types.NewAppError(types.ErrAPICall, "chat model returned no message", nil)
	}

	texts, err := parseResponse(msg.Content, len(req.Texts))
	if err != nil {
		return nil, err
	}
	resp := &Response{Texts: texts}
	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		resp.TotalTokens = msg.ResponseMeta.Usage.TotalTokens
	}
	return resp, nil
}

func buildSystemPrompt(target string) string {
	return fmt.Sprintf(`You are a professional translator for presentation slides.
Translate every item into %s.

Rules:
1. The input is a JSON array of objects {"id": number, "text": string}.
2. Reply with a JSON array of the same length, one object per input id, in the same format.
3. Translate only the "text" values. Never merge, split, drop or add items.
4. Keep numbers, URLs, e-mail addresses, product names and code unchanged.
5. Keep the text concise; it must fit the same slide element.
6. Output only the JSON array, without explanations or markdown.`, target)
}

func buildUserPrompt(texts []string) (string, error) {
	items := make([]wireItem, len(texts))
	for i, t := range texts {
		items[i] = wireItem{ID: i, Text: t}
	}
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}

// parseResponse extracts the JSON array from the reply and returns texts
// ordered by id. Any disagreement with the submitted batch is a
// structural mismatch.
func parseResponse(reply string, want int) ([]string, error) {
	body := strings.TrimSpace(reply)
	start := strings.Index(body, "[")
	end := strings.LastIndex(body, "]")
	if start < 0 || end < start {
		return nil, types.NewAppErrorWithDetails(types.ErrStructuralMismatch,
			"response is not a JSON array", truncate(body, 200), nil)
	}

	var items []wireItem
	if err := json.Unmarshal([]byte(body[start:end+1]), &items); err != nil {
		return nil, types.NewAppErrorWithDetails(types.ErrStructuralMismatch,
			"response is not a JSON array", truncate(body, 200), err)
	}
	if len(items) != want {
		return nil, types.Errorf(types.ErrStructuralMismatch,
			"response has %d items, batch has %d", len(items), want)
	}

	out := make([]string, want)
	seen := make([]bool, want)
	for _, it := range items {
		if it.ID < 0 || it.ID >= want {
			return nil, types.Errorf(types.ErrStructuralMismatch, "response id %d is not in the batch", it.ID)
		}
		if seen[it.ID] {
			return nil, types.Errorf(types.ErrStructuralMismatch, "response id %d appears twice", it.ID)
		}
		seen[it.ID] = true
		out[it.ID] = it.Text
	}
	return out, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

var serverStatus = regexp.MustCompile(`\b5\d\d\b`)

// classifyError maps a chat model failure onto the error taxonomy.
// Rate limits and transient network failures are retryable; everything
// else (authentication, bad request) is not.
func classifyError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "invalid api key") || strings.Contains(msg, "incorrect api key"):
		return types.NewAppErrorWithDetails(types.ErrAPICall, "API call failed", "authentication failed", err)
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit"):
		return types.NewAppErrorWithDetails(types.ErrAPIRateLimit, "API call failed", "rate limit", err)
	case serverStatus.MatchString(msg) ||
		strings.Contains(msg, "connection") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "deadline exceeded") ||
		strings.Contains(msg, "network") ||
		strings.Contains(msg, "eof") ||
		strings.Contains(msg, "reset by peer"):
		return types.NewAppErrorWithDetails(types.ErrNetwork, "API call failed", "transient failure", err)
	}
	return types.NewAppError(types.ErrAPICall, "API call failed", err)
}
