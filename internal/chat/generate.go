package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Generator streams a model response. onDelta is invoked for every chunk as
// it arrives; the joined full text is returned once the stream finishes. The
// stream is finite and not restartable. If onDelta returns an error the
// upstream call is aborted.
type Generator interface {
	Stream(ctx context.Context, prompt Prompt, onDelta func(delta string) error) (string, error)
}

type OpenAIGenerator struct {
	client *openai.LLM
}

func NewOpenAIGenerator(model, apiKey string) (*OpenAIGenerator, error) {
	client, err := openai.New(openai.WithToken(apiKey), openai.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("could not create OpenAI client: %w", err)
	}
	return &OpenAIGenerator{client: client}, nil
}

func (g *OpenAIGenerator) Stream(ctx context.Context, prompt Prompt, onDelta func(delta string) error) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompt.System),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt.User),
	}

	var full strings.Builder
	resp, err := g.client.GenerateContent(ctx, messages,
		llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			full.Write(chunk)
			return onDelta(string(chunk))
		}),
	)
	if err != nil {
		// Chunks already forwarded are not retracted; the caller decides
		// how to terminate the stream.
		return full.String(), fmt.Errorf("generation failed: %w", err)
	}

	if full.Len() == 0 && len(resp.Choices) > 0 {
		return resp.Choices[0].Content, nil
	}
	return full.String(), nil
}
