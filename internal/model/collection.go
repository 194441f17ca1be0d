package model

// Confession は告白板の1件を表す。所有者情報は持たない（匿名投稿）。
type Confession struct {
	ID      string `json:"id"`
	Ts      int64  `json:"ts"` // エポックミリ秒
	Message string `json:"message"`
}

// DiaryEntry はユーザーごとの日記1件を表す。
// 格納キーがメールアドレスでスコープされるため、本体に所有者は持たない。
type DiaryEntry struct {
	ID    string `json:"id"`
	Ts    int64  `json:"ts"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Prefs はユーザープロファイル文書（user:{email}）を表す。
type Prefs struct {
	Favs []string `json:"favs"`
}

// GalleryItem はギャラリー表示の1件を表す。
// Tagは"pin"（管理者固定）または"seed"（候補プール）のいずれか。
type GalleryItem struct {
	Member     string `json:"member"`
	MemberName string `json:"memberName"`
	URL        string `json:"url"`
	Tag        string `json:"tag"`
	Caption    string `json:"caption"`
}

// VoteResult は月次投票の集計1件を表す。
type VoteResult struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// VoteState は投票状態の照会結果を表す。
type VoteState struct {
	Message string `json:"message"`
	Voted   bool   `json:"voted"`
}
