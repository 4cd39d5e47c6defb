package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"facegate/internal/constants"
)

const geminiOCRModel = "gemini-2.5-flash"

// GeminiRecognizer reads badge text with a Gemini vision model.
type GeminiRecognizer struct {
	client *genai.Client
}

// NewGeminiRecognizer creates a Gemini-backed text recognizer.
func NewGeminiRecognizer(ctx context.Context, apiKey string) (*GeminiRecognizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiRecognizer{client: client}, nil
}

// Name returns the model identifier.
func (r *GeminiRecognizer) Name() string {
	return geminiOCRModel
}

// RecognizeText transcribes the badge region.
func (r *GeminiRecognizer) RecognizeText(ctx context.Context, region []byte) (string, error) {
	resized, err := ResizeImage(region, constants.MaxOCRImageSize)
	if err != nil {
		return "", fmt.Errorf("failed to resize region: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: badgeOCRPrompt},
				{InlineData: &genai.Blob{Data: resized, MIMEType: "image/jpeg"}},
			},
		},
	}

	result, err := r.client.Models.GenerateContent(ctx, geminiOCRModel, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", errors.New("no response from Gemini")
	}
	return text, nil
}
