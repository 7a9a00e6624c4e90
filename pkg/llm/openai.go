package llm

import (
	"context"
	"errors"
	"iter"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/minhyannv/agent-stream-go/pkg/config"
	loggerpkg "github.com/minhyannv/agent-stream-go/pkg/logger"
)

// Backend identifies the endpoint dialect a ChatClient talks to.
type Backend string

const (
	BackendOpenAI Backend = "openai"
	BackendAzure  Backend = "azure"
)

// ChatClient streams chat completions from OpenAI or Azure OpenAI. Both
// backends share the request and streaming code; they differ only in
// endpoint construction and authentication.
type ChatClient struct {
	client      openai.Client
	backend     Backend
	model       string
	temperature float64
	logger      loggerpkg.Logger
}

// Option configures optional ChatClient dependencies.
type Option func(*clientDeps)

type clientDeps struct {
	httpClient *http.Client
	logger     loggerpkg.Logger
}

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(d *clientDeps) {
		d.httpClient = c
	}
}

// WithLogger injects a logger dependency.
func WithLogger(l loggerpkg.Logger) Option {
	return func(d *clientDeps) {
		d.logger = l
	}
}

// New builds the backend selected by cfg. The configuration is validated
// first, so a missing credential surfaces as *config.Error before any request.
func New(cfg *config.Config, opts ...Option) (*ChatClient, error) {
	if cfg == nil {
		return nil, &config.Error{Err: errors.New("configuration is required")}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	deps := clientDeps{logger: loggerpkg.NopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&deps)
		}
	}

	// Retries are the caller's decision; the SDK default would retry silently.
	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if deps.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(deps.httpClient))
	}

	c := &ChatClient{
		temperature: cfg.Temperature,
		logger:      loggerpkg.OrNop(deps.logger),
	}
	switch cfg.Provider() {
	case config.ProviderAzure:
		c.backend = BackendAzure
		// Azure routes by deployment; the SDK maps the model field onto it.
		c.model = cfg.AzureDeployment
		reqOpts = append(reqOpts,
			azure.WithEndpoint(cfg.AzureEndpoint, cfg.AzureAPIVersion),
			azure.WithAPIKey(cfg.AzureAPIKey),
		)
	default:
		c.backend = BackendOpenAI
		c.model = cfg.Model
		if cfg.OpenAIBaseURL != "" {
			reqOpts = append(reqOpts, option.WithBaseURL(cfg.OpenAIBaseURL))
		}
		reqOpts = append(reqOpts, option.WithAPIKey(cfg.OpenAIAPIKey))
	}
	c.client = openai.NewClient(reqOpts...)

	loggerpkg.Debug(c.logger, "chat client ready", loggerpkg.Fields{
		"backend": c.backend,
		"model":   c.model,
	})
	return c, nil
}

// Backend reports which endpoint dialect the client uses.
func (c *ChatClient) Backend() Backend {
	return c.backend
}

// Model reports the model (or Azure deployment) sent with each request.
func (c *ChatClient) Model() string {
	return c.model
}

func (c *ChatClient) newParams(req Request) (openai.ChatCompletionNewParams, error) {
	messages, err := convertMessages(req.System, req.Messages)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}
	return openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model),
		Messages:    messages,
		Tools:       convertTools(req.Tools),
		Temperature: openai.Float(c.temperature),
		StreamOptions: openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.Bool(true),
		},
	}, nil
}

// Stream sends req and yields text tokens as they arrive, a pending marker at
// the first tool-call delta, and finally the completed tool calls, if any.
func (c *ChatClient) Stream(ctx context.Context, req Request) iter.Seq2[Fragment, error] {
	return func(yield func(Fragment, error) bool) {
		params, err := c.newParams(req)
		if err != nil {
			yield(Fragment{}, invalidRequest(err))
			return
		}

		loggerpkg.Debug(c.logger, "chat stream start", loggerpkg.Fields{
			"backend":  c.backend,
			"model":    c.model,
			"messages": len(params.Messages),
			"tools":    len(params.Tools),
		})
		stream := c.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()

		acc := openai.ChatCompletionAccumulator{}
		pending := false
		for stream.Next() {
			chunk := stream.Current()
			if !acc.AddChunk(chunk) {
				yield(Fragment{}, malformed("stream chunk %q could not be accumulated", chunk.ID))
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta
			if text := delta.Content; text != "" {
				if !yield(Fragment{Text: text}, nil) {
					return
				}
			}
			if !pending && len(delta.ToolCalls) > 0 {
				pending = true
				if !yield(Fragment{ToolCallsPending: true}, nil) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			yield(Fragment{}, wrapError(err))
			return
		}
		if len(acc.Choices) == 0 {
			yield(Fragment{}, malformed("no choices in streamed completion"))
			return
		}

		choice := acc.Choices[0]
		loggerpkg.Debug(c.logger, "chat stream end", loggerpkg.Fields{
			"finish_reason":     choice.FinishReason,
			"prompt_tokens":     acc.Usage.PromptTokens,
			"completion_tokens": acc.Usage.CompletionTokens,
		})
		calls, err := extractToolCalls(choice.Message.ToolCalls)
		if err != nil {
			yield(Fragment{}, err)
			return
		}
		if len(calls) > 0 {
			yield(Fragment{ToolCalls: calls}, nil)
		}
	}
}

var _ Client = (*ChatClient)(nil)
