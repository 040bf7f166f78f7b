package model

// MailSettings はメールリレー（EmailJS）の送信に必要な識別子を表す。
type MailSettings struct {
	ServiceID  string `json:"serviceId"`
	TemplateID string `json:"templateId"`
	PublicKey  string `json:"emailjsId"`
}

// Missing は未設定の項目名を返す。すべて設定済みの場合は空スライスを返す。
func (m MailSettings) Missing() []string {
	var missing []string
	if m.PublicKey == "" {
		missing = append(missing, "public_key")
	}
	if m.ServiceID == "" {
		missing = append(missing, "service_id")
	}
	if m.TemplateID == "" {
		missing = append(missing, "template_id")
	}
	return missing
}

// Complete は3つの識別子がすべて設定されているかを返す。
func (m MailSettings) Complete() bool {
	return len(m.Missing()) == 0
}

// Credentials はプロセス全体で1件だけ保持する認証情報と送信設定。
// 保存時は上書きされ、全消去が可能。
type Credentials struct {
	OpenAIKey string
	Mail      MailSettings
}
