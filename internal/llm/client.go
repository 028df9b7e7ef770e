// Package llm wraps langchaingo chat models behind a small backend
// interface with retry, usage accounting and cooperative shutdown.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/raphaelgruber/transdoc-go/internal/config"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/bedrock"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

// Response is a single chat completion with token usage. Token counts
// are zero when the provider reports no usage data.
type Response struct {
	Text         string
	InputTokens  int
	OutputTokens int
}

// Backend is the surface the translation protocol talks to.
type Backend interface {
	// Chat sends a system and user prompt and returns the completion.
	// Transient failures are retried internally; the returned error is
	// the last attempt's.
	Chat(ctx context.Context, system, user string) (Response, error)
	// SignalShutdown makes all subsequent Chat calls fail fast with
	// ErrShutdown. The first cause wins; later calls are no-ops.
	SignalShutdown(cause error)
	// Model returns the backing model name for logging.
	Model() string
}

// Client is a Backend over a langchaingo chat model.
type Client struct {
	llm       llms.Model
	modelName string
	attempts  uint

	down    atomic.Bool
	causeMu sync.Mutex
	cause   error
}

// NewClient creates an LLM client based on configuration.
func NewClient(ctx context.Context, cfg config.Config) (*Client, error) {
	var model llms.Model
	var err error

	switch cfg.LLMProvider {
	case config.ProviderOllama:
		model, err = ollama.New(
			ollama.WithModel(cfg.LLMModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if err != nil {
			return nil, fmt.Errorf("create ollama model: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		model, err = openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create openai model: %w", err)
		}

	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("Anthropic API key required")
		}
		model, err = anthropic.New(
			anthropic.WithToken(cfg.AnthropicAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
		if err != nil {
			return nil, fmt.Errorf("create anthropic model: %w", err)
		}

	case config.ProviderBedrock:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		model, err = bedrock.New(
			bedrock.WithModel(cfg.LLMModel),
			bedrock.WithClient(bedrockruntime.NewFromConfig(awsCfg)),
		)
		if err != nil {
			return nil, fmt.Errorf("create bedrock model: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	return &Client{
		llm:       model,
		modelName: cfg.LLMModel,
		attempts:  uint(attempts),
	}, nil
}

// Chat sends a system and user prompt, retrying transient failures with
// exponential backoff. Fatal API errors and shutdown abort immediately.
func (c *Client) Chat(ctx context.Context, system, user string) (Response, error) {
	if c.down.Load() {
		return Response{}, c.shutdownError()
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	var resp Response
	err := retry.Do(
		func() error {
			if c.down.Load() {
				return c.shutdownError()
			}
			result, err := c.llm.GenerateContent(ctx, messages)
			if err != nil {
				return wrapFatalError(err)
			}
			if len(result.Choices) == 0 {
				return fmt.Errorf("no response choices")
			}
			choice := result.Choices[0]
			resp = Response{
				Text:         choice.Content,
				InputTokens:  usageCount(choice.GenerationInfo, "PromptTokens", "InputTokens"),
				OutputTokens: usageCount(choice.GenerationInfo, "CompletionTokens", "OutputTokens"),
			}
			return nil
		},
		retry.Attempts(c.attempts),
		retry.Context(ctx),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !isFatalAPIError(err) && !isShutdownError(err)
		}),
	)
	if err != nil {
		return Response{}, fmt.Errorf("chat: %w", err)
	}
	return resp, nil
}

// SignalShutdown poisons the client so in-flight and future calls fail
// fast. The first recorded cause is kept.
func (c *Client) SignalShutdown(cause error) {
	c.causeMu.Lock()
	if c.cause == nil {
		c.cause = cause
	}
	c.causeMu.Unlock()
	c.down.Store(true)
}

// Model returns the LLM model name.
func (c *Client) Model() string {
	return c.modelName
}

func (c *Client) shutdownError() error {
	c.causeMu.Lock()
	cause := c.cause
	c.causeMu.Unlock()
	if cause != nil {
		return fmt.Errorf("%w: %v", ErrShutdown, cause)
	}
	return ErrShutdown
}

func isShutdownError(err error) bool {
	return errors.Is(err, ErrShutdown)
}

// usageCount pulls a token count out of GenerationInfo. Providers use
// different keys (openai: PromptTokens/CompletionTokens, anthropic:
// InputTokens/OutputTokens) and value types.
func usageCount(info map[string]any, keys ...string) int {
	for _, key := range keys {
		v, ok := info[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return 0
}
