// Package middleware はHTTPミドルウェアと統一エラーレスポンスを提供する。
package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/arxivnotify/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 原因カテゴリと対処方法、画面表示用のステータスを含む。
type ErrorResponseBody struct {
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Category string       `json:"category"`
	Action   string       `json:"action"`
	Status   model.Status `json:"status"`
}

// StatusLevel はエラーカテゴリに対応するステータスレベルを返す。
// 利用者が設定や入力で解消できるエラーはwarning、それ以外はdanger。
func StatusLevel(category string) string {
	switch category {
	case model.CategoryValidation, model.CategoryConfiguration:
		return model.StatusWarning
	default:
		return model.StatusDanger
	}
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
		Status:   model.NewStatus(StatusLevel(apiErr.Category), apiErr.Message),
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: model.CategorySystem,
		Action:   "しばらく待ってから再度お試しください。",
	})
}
