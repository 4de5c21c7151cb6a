package translator

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"pptx-translator/internal/types"
)

// fakeChatModel answers every Generate call with a fixed reply.
type fakeChatModel struct {
	reply string
	err   error
	input []*schema.Message
}

func (m *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.input = input
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{
		Role:    schema.Assistant,
		Content: m.reply,
		ResponseMeta: &schema.ResponseMeta{
			Usage: &schema.TokenUsage{PromptTokens: 30, CompletionTokens: 12, TotalTokens: 42},
		},
	}, nil
}

func (m *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, stderrors.New("streaming is not used")
}

func TestChatEngineTranslate(t *testing.T) {
	m := &fakeChatModel{reply: "```json\n[{\"id\":1,\"text\":\"monde\"},{\"id\":0,\"text\":\"Bonjour <b>\"}]\n```"}
	e := NewEngine(m)

	resp, err := e.Translate(context.Background(), Request{Texts: []string{"Hello <b>", "world"}, TargetLanguage: "French"})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if strings.Join(resp.Texts, "|") != "Bonjour <b>|monde" {
		t.Errorf("texts = %q", resp.Texts)
	}
	if resp.TotalTokens != 42 {
		t.Errorf("tokens = %d", resp.TotalTokens)
	}

	if len(m.input) != 2 || m.input[0].Role != schema.System || m.input[1].Role != schema.User {
		t.Fatalf("unexpected messages: %+v", m.input)
	}
	if !strings.Contains(m.input[0].Content, "French") {
		t.Error("system prompt must name the target language")
	}
	var items []wireItem
	if err := json.Unmarshal([]byte(m.input[1].Content), &items); err != nil {
		t.Fatalf("user message is not JSON: %v", err)
	}
	if len(items) != 2 || items[0].Text != "Hello <b>" || items[1].ID != 1 {
		t.Errorf("user items = %+v", items)
	}
}

func TestChatEngineEmptyBatch(t *testing.T) {
	m := &fakeChatModel{err: stderrors.New("must not be called")}
	resp, err := NewEngine(m).Translate(context.Background(), Request{TargetLanguage: "French"})
	if err != nil || len(resp.Texts) != 0 {
		t.Errorf("empty batch = %v, %v", resp, err)
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    int
		wantErr bool
		first   string
	}{
		{"plain", `[{"id":0,"text":"a"},{"id":1,"text":"b"}]`, 2, false, "a"},
		{"fenced with prose", "Here you go:\n```json\n[{\"id\":0,\"text\":\"x\"}]\n```", 1, false, "x"},
		{"permuted ids", `[{"id":1,"text":"b"},{"id":0,"text":"a"}]`, 2, false, "a"},
		{"too few", `[{"id":0,"text":"a"}]`, 2, true, ""},
		{"too many", `[{"id":0,"text":"a"},{"id":1,"text":"b"}]`, 1, true, ""},
		{"duplicate id", `[{"id":0,"text":"a"},{"id":0,"text":"b"}]`, 2, true, ""},
		{"unknown id", `[{"id":0,"text":"a"},{"id":5,"text":"b"}]`, 2, true, ""},
		{"not json", "Bonjour", 1, true, ""},
		{"broken json", `[{"id":0,"text":"a"`, 1, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseResponse(tt.reply, tt.want)
			if tt.wantErr {
				if !types.IsCode(err, types.ErrStructuralMismatch) {
					t.Errorf("expected structural mismatch, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseResponse() error = %v", err)
			}
			if len(got) != tt.want || got[0] != tt.first {
				t.Errorf("parseResponse() = %q", got)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		msg  string
		want types.ErrorCode
	}{
		{"error, status code: 429, status: 429 Too Many Requests, message: Rate limit reached", types.ErrAPIRateLimit},
		{"error, status code: 503, status: 503 Service Unavailable", types.ErrNetwork},
		{"read tcp 10.0.0.1:443: connection reset by peer", types.ErrNetwork},
		{"unexpected EOF", types.ErrNetwork},
		{"net/http: request canceled (Client.Timeout exceeded)", types.ErrNetwork},
		{"error, status code: 401, message: Incorrect API key provided", types.ErrAPICall},
		{"error, status code: 400, message: invalid request", types.ErrAPICall},
	}
	for _, tt := range tests {
		err := classifyError(context.Background(), stderrors.New(tt.msg))
		if got := types.CodeOf(err); got != tt.want {
			t.Errorf("classifyError(%q) = %s, want %s", tt.msg, got, tt.want)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := classifyError(ctx, stderrors.New("status code: 503")); err != context.Canceled {
		t.Errorf("cancelled context must win, got %v", err)
	}
}

func TestNewChatEngineRequiresKey(t *testing.T) {
	_, err := NewChatEngine(context.Background(), &types.Config{OpenAIModel: "gpt-4o-mini"})
	if !types.IsCode(err, types.ErrConfig) {
		t.Errorf("expected config error, got %v", err)
	}
}

// TestChatEngineOverHTTP tests the engine against an OpenAI-compatible server
func TestChatEngineOverHTTP(t *testing.T) {
	var status atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("authorization header = %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		if code := int(status.Load()); code != 0 {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached for requests","type":"requests","code":"rate_limit_exceeded"}}`))
			return
		}

		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		var items []wireItem
		if err := json.Unmarshal([]byte(req.Messages[len(req.Messages)-1].Content), &items); err != nil {
			t.Errorf("user message is not JSON: %v", err)
		}
		for i := range items {
			items[i].Text = "fr:" + items[i].Text
		}
		content, _ := json.Marshal(items)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": []map[string]interface{}{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": string(content)},
				"finish_reason": "stop",
			}},
			"usage": map[string]int{"prompt_tokens": 20, "completion_tokens": 10, "total_tokens": 30},
		})
	}))
	defer server.Close()

	cfg := &types.Config{
		OpenAIAPIKey:      "test-key",
		OpenAIBaseURL:     server.URL + "/v1/",
		OpenAIModel:       "gpt-4o-mini",
		Temperature:       0.3,
		RequestTimeoutSec: 10,
	}
	e, err := NewChatEngine(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewChatEngine() error = %v", err)
	}

	resp, err := e.Translate(context.Background(), Request{Texts: []string{"Brain", "Heart"}, TargetLanguage: "French"})
	if err != nil {
		t.Fatalf("Translate() error = %v", err)
	}
	if strings.Join(resp.Texts, "|") != "fr:Brain|fr:Heart" || resp.TotalTokens != 30 {
		t.Errorf("response = %+v", resp)
	}

	status.Store(http.StatusTooManyRequests)
	_, err = e.Translate(context.Background(), Request{Texts: []string{"Brain"}, TargetLanguage: "French"})
	if !types.IsCode(err, types.ErrAPIRateLimit) {
		t.Errorf("expected rate limit error, got %v", err)
	}
}
