package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hitoshi/arxivnotify/internal/model"
)

// DefaultEmailJSEndpoint はEmailJSの送信APIのURL。
const DefaultEmailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// Sender はテンプレートパラメータをメールリレーに送信する。
type Sender interface {
	Send(ctx context.Context, settings model.MailSettings, params map[string]any) error
}

// RelayError はメールリレーが送信を拒否した場合のエラー。
// Textにはリレーが返したレスポンス本文を保持する。
type RelayError struct {
	StatusCode int
	Text       string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("mail relay %d: %s", e.StatusCode, e.Text)
}

// EmailJSClient はEmailJSのREST APIで送信するSender実装。
type EmailJSClient struct {
	httpClient *http.Client
	endpoint   string
}

// NewEmailJSClient はEmailJSClientの新しいインスタンスを生成する。
// endpointが空の場合は既定のEmailJS APIを使用する。
func NewEmailJSClient(httpClient *http.Client, endpoint string) *EmailJSClient {
	if endpoint == "" {
		endpoint = DefaultEmailJSEndpoint
	}
	return &EmailJSClient{httpClient: httpClient, endpoint: endpoint}
}

type emailJSRequest struct {
	ServiceID      string         `json:"service_id"`
	TemplateID     string         `json:"template_id"`
	UserID         string         `json:"user_id"`
	TemplateParams map[string]any `json:"template_params"`
}

// Send はservice_id/template_id/user_id/template_paramsをJSONでPOSTする。
// 200以外のレスポンスはRelayErrorとして返す。
func (c *EmailJSClient) Send(ctx context.Context, settings model.MailSettings, params map[string]any) error {
	body, err := json.Marshal(emailJSRequest{
		ServiceID:      settings.ServiceID,
		TemplateID:     settings.TemplateID,
		UserID:         settings.PublicKey,
		TemplateParams: params,
	})
	if err != nil {
		return fmt.Errorf("リクエストのエンコードに失敗: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("リクエスト作成に失敗: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail relay error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RelayError{StatusCode: resp.StatusCode, Text: string(bytes.TrimSpace(b))}
	}
	return nil
}

var _ Sender = (*EmailJSClient)(nil)
