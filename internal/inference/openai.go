package inference

import (
	"context"
	_ "embed"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"facegate/internal/constants"
)

//go:embed prompts/badge_ocr.txt
var badgeOCRPrompt string

const openAIOCRModel = openai.ChatModelGPT4_1Mini

// OpenAIRecognizer reads badge text with an OpenAI vision model. It is an
// alternative to the model server's OCR route for deployments without a
// local text recognizer.
type OpenAIRecognizer struct {
	client *openai.Client
}

// NewOpenAIRecognizer creates an OpenAI-backed text recognizer.
func NewOpenAIRecognizer(apiKey string) *OpenAIRecognizer {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIRecognizer{client: &client}
}

// Name returns the model identifier.
func (r *OpenAIRecognizer) Name() string {
	return openAIOCRModel
}

// RecognizeText transcribes the badge region.
func (r *OpenAIRecognizer) RecognizeText(ctx context.Context, region []byte) (string, error) {
	// Shrink before upload.
	resized, err := ResizeImage(region, constants.MaxOCRImageSize)
	if err != nil {
		return "", fmt.Errorf("failed to resize region: %w", err)
	}

	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(resized)

	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openAIOCRModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(badgeOCRPrompt),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
							openai.TextContentPart("Transcribe this badge."),
							openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
								URL:    imageURL,
								Detail: "low",
							}),
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
