package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/arxivnotify/internal/model"
	"github.com/hitoshi/arxivnotify/internal/settings"
)

// SettingsServiceInterface は設定ハンドラーが必要とするサービスインターフェース。
type SettingsServiceInterface interface {
	// Get はマスク済みの設定内容を返す。
	Get(ctx context.Context) (*settings.View, error)
	// SaveOpenAIKey はAPIキーを保存する。
	SaveOpenAIKey(ctx context.Context, key string) error
	// SaveMailSettings はメールリレー設定を保存する。
	SaveMailSettings(ctx context.Context, mail model.MailSettings) error
	// ClearAll は認証情報、購読、配信履歴をすべて削除する。
	ClearAll(ctx context.Context) error
}

// SettingsHandler は設定管理のHTTPハンドラー。
type SettingsHandler struct {
	service SettingsServiceInterface
}

// NewSettingsHandler はSettingsHandlerを生成する。
func NewSettingsHandler(service SettingsServiceInterface) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// openAIKeyRequest はAPIキー保存リクエストのボディ。
type openAIKeyRequest struct {
	APIKey string `json:"api_key"`
}

// mailSettingsRequest はメール設定保存リクエストのボディ。
type mailSettingsRequest struct {
	ServiceID  string `json:"service_id"`
	TemplateID string `json:"template_id"`
	PublicKey  string `json:"public_key"`
}

type settingsResponse struct {
	Status   model.Status   `json:"status"`
	Settings *settings.View `json:"settings"`
}

// GetSettings はマスク済みの設定内容を返す。
// GET /api/settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Get(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.writeSettings(w, view, model.NewStatus(model.StatusSuccess, "設定を取得しました。"))
}

// SaveOpenAIKey はAPIキーを保存する。
// PUT /api/settings/openai
func (h *SettingsHandler) SaveOpenAIKey(w http.ResponseWriter, r *http.Request) {
	var req openAIKeyRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeInvalidRequest(w)
		return
	}
	if err := h.service.SaveOpenAIKey(r.Context(), req.APIKey); err != nil {
		handleServiceError(w, err)
		return
	}
	h.respondSaved(w, r, "APIキーを保存しました。")
}

// SaveMailSettings はメールリレー設定を保存する。
// PUT /api/settings/mail
func (h *SettingsHandler) SaveMailSettings(w http.ResponseWriter, r *http.Request) {
	var req mailSettingsRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeInvalidRequest(w)
		return
	}
	err := h.service.SaveMailSettings(r.Context(), model.MailSettings{
		ServiceID:  req.ServiceID,
		TemplateID: req.TemplateID,
		PublicKey:  req.PublicKey,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	h.respondSaved(w, r, "メール設定を保存しました。")
}

// ClearAll は認証情報、購読、配信履歴をすべて削除する。
// DELETE /api/settings
func (h *SettingsHandler) ClearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearAll(r.Context()); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Status: model.NewStatus(model.StatusSuccess, "すべてのデータを削除しました。"),
	})
}

func (h *SettingsHandler) respondSaved(w http.ResponseWriter, r *http.Request, message string) {
	view, err := h.service.Get(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	status := model.NewStatus(model.StatusSuccess, message)
	if !view.MailComplete {
		status = model.NewStatus(model.StatusWarning, message+"メール送信にはPublic Key、Service ID、Template IDがすべて必要です。")
	}
	h.writeSettings(w, view, status)
}

func (h *SettingsHandler) writeSettings(w http.ResponseWriter, view *settings.View, status model.Status) {
	writeJSON(w, http.StatusOK, settingsResponse{Status: status, Settings: view})
}
