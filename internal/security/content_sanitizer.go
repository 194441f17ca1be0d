package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService は投稿テキストの無害化機能のインターフェースを定義する。
// 告白板のメッセージと日記のタイトル・本文の保存前に使用される。
type TextSanitizerService interface {
	// Sanitize は投稿テキストからHTMLタグを全て除去したプレーンテキストを返す。
	// 投稿はプレーンテキストとして扱う設計のため、許可タグは存在しない。
	// script, iframe, style等のタグおよびon*イベント属性は全て除去される。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全てのHTML要素と属性を除去し、テキストノードのみを残す。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は投稿テキストからHTMLを除去したプレーンテキストを返す。
func (s *textSanitizer) Sanitize(raw string) string {
	return s.policy.Sanitize(raw)
}
