package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/hrygo/agenthub/ai/stats"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string

	// Images are sent alongside Content as vision input (user messages only).
	Images []Image
}

// Image is an inline image attached to a message.
type Image struct {
	MIMEType string
	Data     []byte
}

// DataURL renders the image as a base64 data URL.
func (i Image) DataURL() string {
	mime := i.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// LoadImage reads an image file from disk.
func LoadImage(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("read image %s: %w", path, err)
	}
	return Image{MIMEType: http.DetectContentType(data), Data: data}, nil
}

// LLMCallStats represents statistics for a single LLM call.
type LLMCallStats struct {
	// PromptTokens is the number of tokens in the input prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the generated response.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the sum of prompt and completion tokens.
	TotalTokens int `json:"total_tokens"`

	// CacheReadTokens is the number of tokens read from cache (for providers that support it).
	CacheReadTokens int `json:"cache_read_tokens,omitempty"`

	// Estimated is set when the provider returned no usage and tokens were counted locally.
	Estimated bool `json:"estimated,omitempty"`

	// TotalDurationMs is the total wall-clock time for the request.
	TotalDurationMs int64 `json:"total_duration_ms"`
}

// Service is the LLM service interface.
type Service interface {
	// Chat performs synchronous chat. Returns content, statistics, and error.
	// Usage is also recorded on the request accumulator carried by ctx.
	Chat(ctx context.Context, messages []Message, opts ...CallOption) (string, *LLMCallStats, error)

	// Warmup sends a lightweight ping request to establish and warm up the LLM connection.
	Warmup(ctx context.Context)
}

// CallOption adjusts a single Chat call.
type CallOption func(*callOptions)

type callOptions struct {
	temperature *float32
	maxTokens   int
	jsonObject  bool
}

// WithTemperature overrides the configured temperature for one call.
func WithTemperature(t float32) CallOption {
	return func(o *callOptions) { o.temperature = &t }
}

// WithMaxTokens caps the completion length for one call.
func WithMaxTokens(n int) CallOption {
	return func(o *callOptions) { o.maxTokens = n }
}

// WithJSONObject asks the provider to return a single JSON object.
func WithJSONObject() CallOption {
	return func(o *callOptions) { o.jsonObject = true }
}

// Config represents LLM service configuration.
type Config struct {
	Provider    string // openai, azure, deepseek, siliconflow, ollama, openrouter
	Model       string // gpt-4o, deepseek-chat, ...
	APIKey      string
	BaseURL     string
	APIVersion  string  // azure only
	MaxTokens   int     // default: 2048
	Temperature float32 // default: 0.7
	Timeout     int     // Request timeout in seconds (default: 120)
}

type service struct {
	client      *openai.Client
	model       string
	provider    string
	maxTokens   int
	temperature float32
	timeout     int // Request timeout in seconds
	estimator   *TokenEstimator
}

var _ Service = (*service)(nil)

// Provider default base URLs, used when BaseURL is empty.
var providerBaseURLs = map[string]string{
	"deepseek":    "https://api.deepseek.com",
	"siliconflow": "https://api.siliconflow.cn/v1",
	"openrouter":  "https://openrouter.ai/api/v1",
	"ollama":      "http://localhost:11434/v1",
}

// NewService creates a new LLM Service.
func NewService(cfg *Config) (Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("llm config is required")
	}

	var clientConfig openai.ClientConfig
	switch cfg.Provider {
	case "azure":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("azure provider requires a base URL")
		}
		clientConfig = openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		if cfg.APIVersion != "" {
			clientConfig.APIVersion = cfg.APIVersion
		}

	case "openai", "deepseek", "siliconflow", "openrouter", "ollama":
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		if baseURL := cfg.BaseURL; baseURL != "" {
			clientConfig.BaseURL = baseURL
		} else if def, ok := providerBaseURLs[cfg.Provider]; ok {
			clientConfig.BaseURL = def
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
	clientConfig.HTTPClient = newHTTPClient()

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.7
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 // Default 120 seconds
	}

	return &service{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		provider:    cfg.Provider,
		maxTokens:   maxTokens,
		temperature: temperature,
		timeout:     timeout,
		estimator:   NewTokenEstimator(cfg.Model),
	}, nil
}

func (s *service) Chat(ctx context.Context, messages []Message, opts ...CallOption) (string, *LLMCallStats, error) {
	// Add timeout protection using configured timeout
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.timeout)*time.Second)
	defer cancel()

	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
		Messages:    convertMessages(messages),
	}
	if o.temperature != nil {
		req.Temperature = *o.temperature
	}
	if o.maxTokens > 0 {
		req.MaxTokens = o.maxTokens
	}
	if o.jsonObject {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	slog.Debug("LLM: Chat request",
		"model", s.model,
		"messages_count", len(messages),
		"max_tokens", req.MaxTokens,
	)

	startTime := time.Now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("LLM: Chat request failed", "error", err)
		return "", nil, fmt.Errorf("LLM chat failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("LLM: Empty response from LLM")
		return "", nil, fmt.Errorf("empty response from LLM")
	}

	content := resp.Choices[0].Message.Content
	totalDuration := time.Since(startTime)

	callStats := &LLMCallStats{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		TotalDurationMs:  totalDuration.Milliseconds(),
	}
	if resp.Usage.PromptTokensDetails != nil && resp.Usage.PromptTokensDetails.CachedTokens > 0 {
		callStats.CacheReadTokens = resp.Usage.PromptTokensDetails.CachedTokens
	}
	if callStats.TotalTokens == 0 {
		// Some OpenAI-compatible servers omit usage; count locally so cost is not under-reported.
		callStats.PromptTokens = s.estimator.CountMessages(messages)
		callStats.CompletionTokens = s.estimator.Count(content)
		callStats.TotalTokens = callStats.PromptTokens + callStats.CompletionTokens
		callStats.Estimated = true
	}
	stats.Record(ctx, callStats.PromptTokens, callStats.CompletionTokens)

	slog.Debug("LLM: Chat response received",
		"content_length", len(content),
		"total_tokens", callStats.TotalTokens,
		"estimated", callStats.Estimated,
		"duration_ms", totalDuration.Milliseconds(),
	)

	return content, callStats, nil
}

func (s *service) Warmup(ctx context.Context) {
	warmupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	slog.Info("LLM: starting connection warmup",
		"provider", s.provider,
		"model", s.model,
	)

	startTime := time.Now()
	_, err := s.client.CreateChatCompletion(warmupCtx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: 1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Hi"},
		},
	})
	duration := time.Since(startTime)

	if err != nil {
		slog.Warn("LLM: warmup ping failed (service will still work, first request may be slower)",
			"provider", s.provider,
			"model", s.model,
			"error", err,
			"duration_ms", duration.Milliseconds(),
		)
		return
	}

	slog.Info("LLM: connection warmed up successfully",
		"provider", s.provider,
		"model", s.model,
		"duration_ms", duration.Milliseconds(),
	)
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	llmMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}

		if len(m.Images) == 0 || role != openai.ChatMessageRoleUser {
			llmMessages[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
			continue
		}

		parts := make([]openai.ChatMessagePart, 0, len(m.Images)+1)
		if m.Content != "" {
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: m.Content,
			})
		}
		for _, img := range m.Images {
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    img.DataURL(),
					Detail: openai.ImageURLDetailAuto,
				},
			})
		}
		llmMessages[i] = openai.ChatCompletionMessage{Role: role, MultiContent: parts}
	}
	return llmMessages
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 150 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// Helper for creating system prompts.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// Helper for creating user messages.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// Helper for creating assistant messages.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// UserMessageWithImages builds a vision request.
func UserMessageWithImages(content string, images ...Image) Message {
	return Message{Role: "user", Content: content, Images: images}
}

// FormatMessages formats messages for prompt templates.
func FormatMessages(systemPrompt string, userContent string, history []Message) []Message {
	messages := []Message{}
	if systemPrompt != "" {
		messages = append(messages, SystemPrompt(systemPrompt))
	}
	messages = append(messages, history...)
	messages = append(messages, UserMessage(userContent))
	return messages
}
