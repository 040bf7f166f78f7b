// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, configuration, dispatch, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryValidation    = "validation"
	CategoryConfiguration = "configuration"
	CategoryDispatch      = "dispatch"
	CategorySystem        = "system"
)

// 定義済みエラーコード
const (
	ErrCodeInvalidEmail         = "INVALID_EMAIL"
	ErrCodeEmptyKeywords        = "EMPTY_KEYWORDS"
	ErrCodeEmptyCategories      = "EMPTY_CATEGORIES"
	ErrCodeSubscriptionNotFound = "SUBSCRIPTION_NOT_FOUND"
	ErrCodeMailNotConfigured    = "MAIL_NOT_CONFIGURED"
	ErrCodeEmptyAPIKey          = "EMPTY_API_KEY"
	ErrCodeDispatchRecipient    = "DISPATCH_RECIPIENT"
	ErrCodeDispatchTemplate     = "DISPATCH_TEMPLATE"
	ErrCodeDispatchService      = "DISPATCH_SERVICE"
	ErrCodeDispatchFailed       = "DISPATCH_FAILED"
)

// DispatchKind はメール送信失敗の分類を表す。
type DispatchKind string

const (
	// DispatchKindRecipient は宛先フィールドの不一致による失敗。
	DispatchKindRecipient DispatchKind = "recipient"
	// DispatchKindTemplate はテンプレートの不備による失敗。
	DispatchKindTemplate DispatchKind = "template"
	// DispatchKindService はサービス設定の不備による失敗。
	DispatchKindService DispatchKind = "service"
	// DispatchKindUnknown は分類できなかった失敗。
	DispatchKindUnknown DispatchKind = "unknown"
)

// NewInvalidEmailError はメールアドレス形式エラーを生成する。
func NewInvalidEmailError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  fmt.Sprintf("無効なメールアドレスです: %s", email),
		Category: CategoryValidation,
		Action:   "name@example.com の形式でメールアドレスを入力してください。",
	}
}

// NewEmptyKeywordsError はキーワード未指定エラーを生成する。
func NewEmptyKeywordsError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyKeywords,
		Message:  "キーワードが1つも指定されていません。",
		Category: CategoryValidation,
		Action:   "少なくとも1つのキーワードを入力してください。",
	}
}

// NewEmptyCategoriesError はカテゴリ未指定エラーを生成する。
func NewEmptyCategoriesError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyCategories,
		Message:  "カテゴリが1つも指定されていません。",
		Category: CategoryValidation,
		Action:   "少なくとも1つのカテゴリを選択してください。",
	}
}

// NewSubscriptionNotFoundError は購読が見つからない場合のエラーを生成する。
func NewSubscriptionNotFoundError(subscriptionID string) *APIError {
	return &APIError{
		Code:     ErrCodeSubscriptionNotFound,
		Message:  fmt.Sprintf("指定された購読が見つかりません: %s", subscriptionID),
		Category: CategoryValidation,
		Action:   "購読IDを確認してください。",
	}
}

// NewEmptyAPIKeyError はAPIキー未入力エラーを生成する。
func NewEmptyAPIKeyError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyAPIKey,
		Message:  "APIキーが入力されていません。",
		Category: CategoryValidation,
		Action:   "OpenAI APIキーを入力してください。",
	}
}

// NewConfigurationError はメール送信設定の不足エラーを生成する。
// missingには不足している設定項目名を渡す。
func NewConfigurationError(missing []string) *APIError {
	return &APIError{
		Code:     ErrCodeMailNotConfigured,
		Message:  fmt.Sprintf("メール送信設定が不足しています: %v", missing),
		Category: CategoryConfiguration,
		Action:   "設定画面でPublic Key、Service ID、Template IDをすべて保存してください。",
	}
}

// NewDispatchError はメールリレーの送信失敗を分類済みのエラーとして生成する。
func NewDispatchError(kind DispatchKind, raw string) *APIError {
	switch kind {
	case DispatchKindRecipient:
		return &APIError{
			Code:     ErrCodeDispatchRecipient,
			Message:  fmt.Sprintf("宛先の設定に問題があります: %s", raw),
			Category: CategoryDispatch,
			Action:   "メールテンプレートの To Email 欄に {{to_email}} を設定してください。",
		}
	case DispatchKindTemplate:
		return &APIError{
			Code:     ErrCodeDispatchTemplate,
			Message:  fmt.Sprintf("メールテンプレートに問題があります: %s", raw),
			Category: CategoryDispatch,
			Action:   "Template IDが正しいか、テンプレートが公開されているか確認してください。",
		}
	case DispatchKindService:
		return &APIError{
			Code:     ErrCodeDispatchService,
			Message:  fmt.Sprintf("メールサービスに問題があります: %s", raw),
			Category: CategoryDispatch,
			Action:   "Service IDとメールサービスの接続状態を確認してください。",
		}
	default:
		return &APIError{
			Code:     ErrCodeDispatchFailed,
			Message:  raw,
			Category: CategoryDispatch,
			Action:   "しばらく待ってから再度お試しください。",
		}
	}
}

// IsConfigurationError はerrが設定不足エラーかどうかを返す。
func IsConfigurationError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Category == CategoryConfiguration
}

// IsDispatchError はerrがメールリレーによる送信失敗かどうかを返す。
func IsDispatchError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Category == CategoryDispatch
}

// IsValidationError はerrが入力検証エラーかどうかを返す。
func IsValidationError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Category == CategoryValidation
}
