package model

// ステータスレベル
const (
	StatusSuccess = "success"
	StatusInfo    = "info"
	StatusWarning = "warning"
	StatusDanger  = "danger"
)

// Status はユーザー操作の最終結果を表す。
type Status struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// NewStatus はStatusを生成する。
func NewStatus(level, message string) Status {
	return Status{Level: level, Message: message}
}
