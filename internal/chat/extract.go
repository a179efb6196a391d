package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Extractor performs structured text-extraction calls: a short room title or
// a single representative keyword for a given text.
type Extractor interface {
	ExtractTitle(ctx context.Context, text string) (string, error)
	ExtractKeyword(ctx context.Context, text string) (string, error)
}

const (
	titleExtractionPrompt   = "다음 텍스트를 대표하는 10자 이내의 짧은 제목을 추출하세요."
	keywordExtractionPrompt = "다음 텍스트에서 가장 대표적인 법률 키워드 하나를 추출하세요."
)

var titleResponseFormat = jsonSchemaFormat("room_title", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title": map[string]any{"type": "string"},
	},
	"required":             []string{"title"},
	"additionalProperties": false,
})

var keywordResponseFormat = jsonSchemaFormat("keyword", map[string]any{
	"type": "object",
	"properties": map[string]any{
		"keyword": map[string]any{"type": "string"},
	},
	"required":             []string{"keyword"},
	"additionalProperties": false,
})

func jsonSchemaFormat(name string, schema map[string]any) openai.ChatCompletionNewParamsResponseFormatUnion {
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   name,
				Schema: schema,
			},
		},
	}
}

type OpenAIExtractor struct {
	client openai.Client
	model  string
}

func NewOpenAIExtractor(model, apiKey string) *OpenAIExtractor {
	return &OpenAIExtractor{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (e *OpenAIExtractor) ExtractTitle(ctx context.Context, text string) (string, error) {
	var out struct {
		Title string `json:"title"`
	}
	if err := e.extract(ctx, titleExtractionPrompt, text, titleResponseFormat, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Title), nil
}

func (e *OpenAIExtractor) ExtractKeyword(ctx context.Context, text string) (string, error) {
	var out struct {
		Keyword string `json:"keyword"`
	}
	if err := e.extract(ctx, keywordExtractionPrompt, text, keywordResponseFormat, &out); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.Keyword), nil
}

func (e *OpenAIExtractor) extract(ctx context.Context, instruction, text string, format openai.ChatCompletionNewParamsResponseFormatUnion, out any) error {
	params := openai.ChatCompletionNewParams{
		Model: e.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(instruction),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0),
	}
	params.ResponseFormat = format

	res, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return fmt.Errorf("extraction call failed: %w", err)
	}
	if len(res.Choices) == 0 {
		return fmt.Errorf("extraction call returned no choices")
	}

	if err := json.Unmarshal([]byte(res.Choices[0].Message.Content), out); err != nil {
		return fmt.Errorf("could not parse extraction response: %w", err)
	}
	return nil
}
