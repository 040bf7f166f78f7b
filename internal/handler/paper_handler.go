package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/arxivnotify/internal/model"
	"github.com/hitoshi/arxivnotify/internal/paper"
)

// defaultCategory はカテゴリ未指定時に表示するカテゴリ。
const defaultCategory = "cs"

// PaperServiceInterface は論文ハンドラーが必要とするサービスインターフェース。
type PaperServiceInterface interface {
	// Fetch はカテゴリの最新論文を返す。
	Fetch(ctx context.Context, category string) []model.Paper
	// UpdateAll は全カテゴリを取得し、カテゴリごとの件数を返す。
	UpdateAll(ctx context.Context) []paper.CategoryCount
}

// PaperHandler は論文閲覧のHTTPハンドラー。
type PaperHandler struct {
	service PaperServiceInterface
}

// NewPaperHandler はPaperHandlerを生成する。
func NewPaperHandler(service PaperServiceInterface) *PaperHandler {
	return &PaperHandler{service: service}
}

type categoriesResponse struct {
	Status     model.Status     `json:"status"`
	Categories []model.Category `json:"categories"`
}

type papersResponse struct {
	Status   model.Status  `json:"status"`
	Category string        `json:"category"`
	Papers   []model.Paper `json:"papers"`
}

type updatePapersResponse struct {
	Status model.Status          `json:"status"`
	Counts []paper.CategoryCount `json:"counts"`
}

// ListCategories は購読可能なカテゴリ一覧を返す。
// GET /api/categories
func (h *PaperHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{
		Status:     model.NewStatus(model.StatusSuccess, "カテゴリ一覧を取得しました。"),
		Categories: paper.Categories(),
	})
}

// ListPapers はカテゴリの最新論文を返す。qを指定した場合はタイトルと要約で絞り込む。
// GET /api/papers?category=&q=
func (h *PaperHandler) ListPapers(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category == "" {
		category = defaultCategory
	}
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	papers := h.service.Fetch(r.Context(), category)

	status := model.NewStatus(model.StatusSuccess, fmt.Sprintf("%d件の論文を取得しました。", len(papers)))
	if len(papers) == 1 && papers[0].Unavailable {
		status = model.NewStatus(model.StatusWarning, "論文を取得できませんでした。しばらく待ってから再度お試しください。")
	}

	if query != "" {
		filtered := make([]model.Paper, 0, len(papers))
		for _, p := range papers {
			if strings.Contains(strings.ToLower(p.Title), query) || strings.Contains(strings.ToLower(p.Summary), query) {
				filtered = append(filtered, p)
			}
		}
		papers = filtered
	}

	writeJSON(w, http.StatusOK, papersResponse{
		Status:   status,
		Category: category,
		Papers:   papers,
	})
}

// UpdatePapers は全カテゴリの論文を取得し直す。
// POST /api/papers/update
func (h *PaperHandler) UpdatePapers(w http.ResponseWriter, r *http.Request) {
	counts := h.service.UpdateAll(r.Context())

	status := model.NewStatus(model.StatusSuccess, "論文の更新が完了しました。")
	for _, c := range counts {
		if c.Unavailable {
			status = model.NewStatus(model.StatusWarning, "一部のカテゴリで論文を取得できませんでした。")
			break
		}
	}

	writeJSON(w, http.StatusOK, updatePapersResponse{Status: status, Counts: counts})
}
