package matcher

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GeminiClassifier はGemini APIで関連性を分類するClassifier実装。
type GeminiClassifier struct {
	// generate はプロンプトを送信して出力テキストを返す。テストで差し替える。
	generate func(ctx context.Context, prompt string) (string, error)
}

// NewGeminiClassifier はGemini APIクライアントを生成してGeminiClassifierを返す。
func NewGeminiClassifier(ctx context.Context, httpClient *http.Client, apiKey, model string) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("Geminiクライアントの生成に失敗: %w", err)
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.3),
	}

	return &GeminiClassifier{
		generate: func(ctx context.Context, prompt string) (string, error) {
			result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), config)
			if err != nil {
				return "", fmt.Errorf("gemini API error: %w", err)
			}
			return result.Text(), nil
		},
	}, nil
}

// Classify はJSON形式の出力を要求し、Classificationにデコードする。
func (c *GeminiClassifier) Classify(ctx context.Context, paperText string, keywords []string) (*Classification, error) {
	text, err := c.generate(ctx, userPrompt(paperText, keywords))
	if err != nil {
		return nil, err
	}
	return parseClassification(text)
}

var _ Classifier = (*GeminiClassifier)(nil)
