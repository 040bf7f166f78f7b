package matcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOpenAIBaseURL = "https://api.openai.com"

// OpenAIClassifier はChat Completions APIで関連性を分類するClassifier実装。
type OpenAIClassifier struct {
	httpClient *http.Client
	apiKey     string
	model      string
	endpoint   string
}

// NewOpenAIClassifier はOpenAIClassifierの新しいインスタンスを生成する。
// baseURLが空の場合は https://api.openai.com を使用する。
func NewOpenAIClassifier(httpClient *http.Client, baseURL, apiKey, model string) *OpenAIClassifier {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIClassifier{
		httpClient: httpClient,
		apiKey:     apiKey,
		model:      model,
		endpoint:   strings.TrimRight(baseURL, "/") + "/v1/chat/completions",
	}
}

type openaiRequest struct {
	Model          string               `json:"model"`
	Messages       []openaiMessage      `json:"messages"`
	Temperature    float64              `json:"temperature"`
	ResponseFormat openaiResponseFormat `json:"response_format"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponseFormat struct {
	Type string `json:"type"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Classify はsystem/userの2メッセージでJSONオブジェクト形式の分類を要求する。
func (c *OpenAIClassifier) Classify(ctx context.Context, paperText string, keywords []string) (*Classification, error) {
	body, err := json.Marshal(openaiRequest{
		Model: c.model,
		Messages: []openaiMessage{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: userPrompt(paperText, keywords)},
		},
		Temperature:    0.3,
		ResponseFormat: openaiResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("リクエストのエンコードに失敗: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("openai API %d: %s", resp.StatusCode, string(b))
	}

	var or openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&or); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidClassification, err)
	}
	if len(or.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", errInvalidClassification)
	}
	return parseClassification(or.Choices[0].Message.Content)
}

var _ Classifier = (*OpenAIClassifier)(nil)
