package model

import "time"

// Subscription は宛先メールアドレスごとのキーワード・カテゴリ購読を表す。
// 同じメールアドレスでの再購読はキーワードとカテゴリの和集合にマージされる。
type Subscription struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Keywords    []string  `json:"keywords"`
	Categories  []string  `json:"categories"`
	Created     time.Time `json:"created"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// History は宛先ごとの配信済み論文リンクの集合を表す。
// 単調増加し、有効期限は持たない。
type History map[string][]string
