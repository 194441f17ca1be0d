package kv

// ストアのキーレイアウト。キーの不存在は「空」の正常状態を意味する。
const (
	// ConfessionListKey は告白板の全件リスト。
	ConfessionListKey = "confession:list"
	// GalleryPinsKey はメンバーキー→画像URLの固定マップ。
	GalleryPinsKey = "gallery:pins"
	// GallerySeedsKey はギャラリー候補プールのリスト。
	GallerySeedsKey = "gallery:seeds"
	// LiveListKey はライブ中メンバーキーの集合（リスト表現）。
	LiveListKey = "live:list"
)

// SessionKey はセッションレコードのキーを返す。
func SessionKey(sid string) string {
	return "sess:" + sid
}

// UserKey はユーザープロファイル文書のキーを返す。
func UserKey(email string) string {
	return "user:" + email
}

// DiaryKey はユーザーごとの日記リストのキーを返す。
func DiaryKey(email string) string {
	return "diary:" + email
}

// VoteUsersKey は月次バケットの投票者マップ（メール→投票先キー）のキーを返す。
// bucketは"YYYY-MM"形式。
func VoteUsersKey(bucket string) string {
	return "vote:" + bucket + ":users"
}

// VoteCountsKey は月次バケットの集計マップ（投票先キー→票数）のキーを返す。
func VoteCountsKey(bucket string) string {
	return "vote:" + bucket + ":counts"
}
