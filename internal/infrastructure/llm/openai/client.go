// Package openai adapts the OpenAI API to the embedding and generation ports.
// All calls run through the shared resilience executor except streaming, which
// cannot be retried once increments have been emitted.
package openai

import (
	"context"
	"fmt"
	"strings"

	openaigo "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/akozlenkov/videoqa/internal/core/ports"
	"github.com/akozlenkov/videoqa/internal/infrastructure/resilience"
)

const (
	DefaultGenModel   = "gpt-4o-mini"
	DefaultEmbedModel = "text-embedding-3-small"
)

type Client struct {
	api        openaigo.Client
	genModel   string
	embedModel string
	executor   *resilience.Executor
}

// New builds a client against the given API endpoint. baseURL may be empty for
// the public OpenAI endpoint; setting it allows any OpenAI-compatible server.
func New(baseURL, apiKey, genModel, embedModel string, executor *resilience.Executor) *Client {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	if genModel == "" {
		genModel = DefaultGenModel
	}
	if embedModel == "" {
		embedModel = DefaultEmbedModel
	}
	return &Client{
		api:        openaigo.NewClient(opts...),
		genModel:   genModel,
		embedModel: embedModel,
		executor:   executor,
	}
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if c.executor == nil {
		return wrapTemporaryIfNeeded(operation, fn(ctx))
	}
	err := c.executor.Execute(ctx, operation, fn, classifyOpenAIError)
	return wrapTemporaryIfNeeded(operation, err)
}

type Embedder struct {
	client *Client
}

func NewEmbedder(client *Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var vectors [][]float32
	err := e.client.execute(ctx, "openai.embed", func(ctx context.Context) error {
		resp, err := e.client.api.Embeddings.New(ctx, openaigo.EmbeddingNewParams{
			Input: openaigo.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openaigo.EmbeddingModel(e.client.embedModel),
		})
		if err != nil {
			return err
		}
		vectors = make([][]float32, len(resp.Data))
		for i, data := range resp.Data {
			vectors[i] = toFloat32(data.Embedding)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vectors, nil
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vectors[0], nil
}

type Generator struct {
	client *Client
}

func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, prompt string, opts ports.GenerationOptions) (string, error) {
	var text string
	err := g.client.execute(ctx, "openai.generate", func(ctx context.Context) error {
		resp, err := g.client.api.Chat.Completions.New(ctx, g.client.completionParams(prompt, opts))
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("completion returned no choices")
		}
		text = strings.TrimSpace(resp.Choices[0].Message.Content)
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

// GenerateStream forwards each content delta to emit in arrival order. An emit
// error aborts the stream and is returned as-is so callers can tell a gone
// client from an upstream failure.
func (g *Generator) GenerateStream(ctx context.Context, prompt string, opts ports.GenerationOptions, emit func(string) error) error {
	stream := g.client.api.Chat.Completions.NewStreaming(ctx, g.client.completionParams(prompt, opts))
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if err := emit(delta); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return wrapTemporaryIfNeeded("openai.generate_stream", err)
	}
	return nil
}

func (c *Client) completionParams(prompt string, opts ports.GenerationOptions) openaigo.ChatCompletionNewParams {
	params := openaigo.ChatCompletionNewParams{
		Messages: []openaigo.ChatCompletionMessageParamUnion{
			openaigo.UserMessage(prompt),
		},
		Model:       openaigo.ChatModel(c.genModel),
		Temperature: openaigo.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openaigo.Int(int64(opts.MaxTokens))
	}
	return params
}

func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
