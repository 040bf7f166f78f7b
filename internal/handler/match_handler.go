package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hitoshi/arxivnotify/internal/model"
	"github.com/hitoshi/arxivnotify/internal/recommend"
)

// RecommendServiceInterface は推薦系ハンドラーが必要とするサービスインターフェース。
type RecommendServiceInterface interface {
	// Refresh は1件の購読を更新してダイジェストを送信する。
	Refresh(ctx context.Context, sub model.Subscription, opts recommend.Options) (*recommend.RefreshResult, error)
	// RefreshAll は全購読を順番に更新する。
	RefreshAll(ctx context.Context, opts recommend.Options) (*recommend.Summary, error)
	// TestMatch はカテゴリの最新論文に対するマッチングを試す。
	TestMatch(ctx context.Context, keywords []string, useAssisted bool, category string) ([]model.MatchedPaper, error)
}

// MatchHandler はキーワードマッチングのテスト用HTTPハンドラー。
type MatchHandler struct {
	service RecommendServiceInterface
}

// NewMatchHandler はMatchHandlerを生成する。
func NewMatchHandler(service RecommendServiceInterface) *MatchHandler {
	return &MatchHandler{service: service}
}

// testMatchRequest はマッチングテストのリクエストボディ。
type testMatchRequest struct {
	Keywords    []string `json:"keywords"`
	UseAssisted bool     `json:"use_assisted"`
	Category    string   `json:"category"`
}

type testMatchResponse struct {
	Status model.Status         `json:"status"`
	Papers []model.MatchedPaper `json:"papers"`
}

// TestMatch はキーワードに一致する論文を返す。履歴の除外とメール送信は行わない。
// POST /api/match/test
func (h *MatchHandler) TestMatch(w http.ResponseWriter, r *http.Request) {
	var req testMatchRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeInvalidRequest(w)
		return
	}
	if req.Category == "" {
		req.Category = defaultCategory
	}

	papers, err := h.service.TestMatch(r.Context(), req.Keywords, req.UseAssisted, req.Category)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	status := model.NewStatus(model.StatusInfo, "一致する論文はありませんでした。")
	if len(papers) > 0 {
		status = model.NewStatus(model.StatusSuccess, fmt.Sprintf("%d件の論文が一致しました。", len(papers)))
	}
	writeJSON(w, http.StatusOK, testMatchResponse{Status: status, Papers: papers})
}
