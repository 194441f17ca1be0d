// Package model はドメインモデルを定義する。
package model

// User は認証済みユーザーのスナップショットを表す。
// IDトークン検証時点のクレームから構築され、セッションに埋め込まれる。
type User struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// SessionRecord はストアに永続化されるセッション本体。
// isAdminは意図的に含めない。管理者判定は読み出しのたびに
// 許可リストから再計算する（許可リスト変更を再ログインなしで反映するため）。
type SessionRecord struct {
	User User  `json:"user"`
	Ts   int64 `json:"ts"` // 作成時刻（エポックミリ秒）
}

// Session は読み出し時に復元されるセッション。
// IsAdminはストア由来ではなく、読み出しごとの再計算値。
type Session struct {
	ID      string `json:"-"`
	User    User   `json:"user"`
	Ts      int64  `json:"ts"`
	IsAdmin bool   `json:"isAdmin"`
}

// Record は永続化対象のSessionRecordを切り出す。
func (s *Session) Record() SessionRecord {
	return SessionRecord{User: s.User, Ts: s.Ts}
}
