package sensory

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var errEmptyResponse = errors.New("generator returned no content")

// GeminiGenerator talks to the Gemini API
type GeminiGenerator struct {
	client     *genai.Client
	textModel  string
	imageModel string
}

// NewGemini creates a client for the Gemini developer API
func NewGemini(ctx context.Context, apiKey, textModel, imageModel string) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiGenerator{client: client, textModel: textModel, imageModel: imageModel}, nil
}

func (g *GeminiGenerator) Describe(ctx context.Context, productName string) (string, error) {
	prompt := fmt.Sprintf("Analiza sensorialmente el pan %q. Describe textura, aroma y regusto "+
		"en 10 palabras técnicas y poéticas de alta gastronomía.", productName)
	return g.text(ctx, prompt)
}

func (g *GeminiGenerator) Chat(ctx context.Context, message string) (string, error) {
	return g.text(ctx, message)
}

func (g *GeminiGenerator) GenerateImage(ctx context.Context, prompt string) (string, error) {
	full := "High-fashion gourmet cake photography, " + prompt + ", solid black background, studio lighting."
	resp, err := g.client.Models.GenerateContent(ctx, g.imageModel, genai.Text(full), nil)
	if err != nil {
		return "", err
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := part.InlineData.MIMEType
			if mime == "" {
				mime = "image/png"
			}
			return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
		}
	}
	return "", errEmptyResponse
}

func (g *GeminiGenerator) text(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.textModel, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", errEmptyResponse
	}
	return out, nil
}
