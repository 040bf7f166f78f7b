package paper

// Rotator はリレーを順番に選択し、全リレー合計の試行回数を制限する。
// 状態は「次のリレーの選択」「試行の記録」「枯渇」の3つの操作だけで遷移する。
// 1回のフェッチにつき1つ生成し、ゴルーチン間で共有しない。
type Rotator struct {
	relays      []string
	maxAttempts int
	attempts    int
	cursor      int
}

// NewRotator はRotatorを生成する。maxAttemptsが1未満の場合は1として扱う。
func NewRotator(relays []string, maxAttempts int) *Rotator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Rotator{relays: relays, maxAttempts: maxAttempts}
}

// Next は次に試行するリレーを返す。枯渇している場合はfalseを返す。
// リレーの数より試行上限が大きい場合は先頭から再利用する。
func (r *Rotator) Next() (string, bool) {
	if r.Exhausted() {
		return "", false
	}
	relay := r.relays[r.cursor%len(r.relays)]
	r.cursor++
	return relay, true
}

// Attempt は試行を1回消費する。
func (r *Rotator) Attempt() {
	r.attempts++
}

// Attempts はこれまでの試行回数を返す。
func (r *Rotator) Attempts() int {
	return r.attempts
}

// Exhausted はリレーが未設定、または試行上限に達したかを返す。
func (r *Rotator) Exhausted() bool {
	return len(r.relays) == 0 || r.attempts >= r.maxAttempts
}
