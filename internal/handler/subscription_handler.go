package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/arxivnotify/internal/model"
	"github.com/hitoshi/arxivnotify/internal/recommend"
)

// SubscriptionServiceInterface は購読ハンドラーが必要とするサービスインターフェース。
type SubscriptionServiceInterface interface {
	// List は購読一覧を返す。
	List(ctx context.Context) ([]model.Subscription, error)
	// Get はIDで購読を取得する。
	Get(ctx context.Context, id string) (*model.Subscription, error)
	// Upsert は購読を登録し、同じメールアドレスの購読があればマージする。
	Upsert(ctx context.Context, email string, keywords, categories []string) (*model.Subscription, bool, error)
	// Delete は購読を削除し、削除したかどうかを返す。
	Delete(ctx context.Context, id string) (bool, error)
}

// WelcomeSender は購読登録の確認メールを送信する。
type WelcomeSender interface {
	SendWelcome(ctx context.Context, settings model.MailSettings, sub model.Subscription) bool
}

// CredentialReader は保存済みの認証情報を読み込む。
type CredentialReader interface {
	Credentials(ctx context.Context) (model.Credentials, error)
}

// SubscriptionHandler は購読管理のHTTPハンドラー。
type SubscriptionHandler struct {
	service     SubscriptionServiceInterface
	recommend   RecommendServiceInterface
	welcome     WelcomeSender
	credentials CredentialReader
}

// NewSubscriptionHandler はSubscriptionHandlerを生成する。
func NewSubscriptionHandler(
	service SubscriptionServiceInterface,
	recommend RecommendServiceInterface,
	welcome WelcomeSender,
	credentials CredentialReader,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		service:     service,
		recommend:   recommend,
		welcome:     welcome,
		credentials: credentials,
	}
}

// subscribeRequest は購読登録リクエストのボディ。
type subscribeRequest struct {
	Email      string   `json:"email"`
	Keywords   []string `json:"keywords"`
	Categories []string `json:"categories"`
}

// refreshRequest は購読更新リクエストのボディ。省略時は補助マッチングを使用する。
type refreshRequest struct {
	UseAssisted *bool `json:"use_assisted"`
}

type subscriptionsResponse struct {
	Status        model.Status         `json:"status"`
	Subscriptions []model.Subscription `json:"subscriptions"`
}

type subscriptionResponse struct {
	Status       model.Status       `json:"status"`
	Subscription model.Subscription `json:"subscription"`
	Created      bool               `json:"created"`
	WelcomeSent  bool               `json:"welcome_sent"`
}

type deleteResponse struct {
	Status  model.Status `json:"status"`
	Removed bool         `json:"removed"`
}

type refreshResponse struct {
	Status model.Status                    `json:"status"`
	Papers map[string][]model.MatchedPaper `json:"papers"`
	Total  int                             `json:"total"`
	Sent   bool                            `json:"sent"`
}

type refreshAllResponse struct {
	Status       model.Status `json:"status"`
	SuccessCount int          `json:"success_count"`
	TotalPapers  int          `json:"total_papers"`
	Failed       int          `json:"failed"`
}

// ListSubscriptions は購読一覧を取得する。
// GET /api/subscriptions
func (h *SubscriptionHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	status := model.NewStatus(model.StatusSuccess, fmt.Sprintf("%d件の購読があります。", len(subs)))
	if len(subs) == 0 {
		status = model.NewStatus(model.StatusInfo, "購読はまだありません。")
	}
	writeJSON(w, http.StatusOK, subscriptionsResponse{Status: status, Subscriptions: subs})
}

// Subscribe は購読を登録する。同じメールアドレスの購読があればキーワードとカテゴリをマージする。
// 送信設定が揃っていれば確認メールを送信する。
// POST /api/subscriptions
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeInvalidRequest(w)
		return
	}

	sub, created, err := h.service.Upsert(r.Context(), req.Email, req.Keywords, req.Categories)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	welcomeSent := false
	if creds, err := h.credentials.Credentials(r.Context()); err != nil {
		slog.Warn("確認メールの送信設定を読み込めません", slog.String("error", err.Error()))
	} else {
		welcomeSent = h.welcome.SendWelcome(r.Context(), creds.Mail, *sub)
	}

	statusCode := http.StatusOK
	message := fmt.Sprintf("%s の購読を更新しました。", sub.Email)
	if created {
		statusCode = http.StatusCreated
		message = fmt.Sprintf("%s の購読を登録しました。", sub.Email)
	}

	writeJSON(w, statusCode, subscriptionResponse{
		Status:       model.NewStatus(model.StatusSuccess, message),
		Subscription: *sub,
		Created:      created,
		WelcomeSent:  welcomeSent,
	})
}

// Unsubscribe は購読を削除する。存在しないIDの場合は何もしない。
// DELETE /api/subscriptions/{id}
func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	removed, err := h.service.Delete(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	status := model.NewStatus(model.StatusSuccess, "購読を削除しました。")
	if !removed {
		status = model.NewStatus(model.StatusInfo, "指定された購読は既に存在しません。")
	}
	writeJSON(w, http.StatusOK, deleteResponse{Status: status, Removed: removed})
}

// Refresh は1件の購読について新しい論文を検索し、ダイジェストを送信する。
// POST /api/subscriptions/{id}/refresh
func (h *SubscriptionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	opts, ok := decodeRefreshOptions(w, r)
	if !ok {
		return
	}

	sub, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	result, err := h.recommend.Refresh(r.Context(), *sub, opts)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		Status: result.Status,
		Papers: result.Papers,
		Total:  result.Total,
		Sent:   result.Sent,
	})
}

// RefreshAll は全購読を順番に更新する。
// POST /api/subscriptions/refresh
func (h *SubscriptionHandler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	opts, ok := decodeRefreshOptions(w, r)
	if !ok {
		return
	}

	summary, err := h.recommend.RefreshAll(r.Context(), opts)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, refreshAllResponse{
		Status:       summary.Status,
		SuccessCount: summary.SuccessCount,
		TotalPapers:  summary.TotalPapers,
		Failed:       summary.Failed,
	})
}

func decodeRefreshOptions(w http.ResponseWriter, r *http.Request) (recommend.Options, bool) {
	opts := recommend.DefaultOptions()
	var req refreshRequest
	if err := decodeJSON(r, &req, true); err != nil {
		writeInvalidRequest(w)
		return opts, false
	}
	if req.UseAssisted != nil {
		opts.UseAssisted = *req.UseAssisted
	}
	return opts, true
}
