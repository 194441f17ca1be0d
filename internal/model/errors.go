package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// CodeはAPIレスポンスの error フィールドにそのまま載るワイヤ文字列。
// Messageはユーザー向けの説明（省略可）。
type APIError struct {
	Code    string // ワイヤ上のエラー識別子
	Message string // ユーザー向けメッセージ（任意）
	Status  int    // 対応するHTTPステータスコード
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Code
}

// 定義済みエラーコード（フロントエンドが文字列一致で判定するため固定）
const (
	ErrCodeMissingCredential = "missing credential"
	ErrCodeVerifyFailed      = "google verify failed"
	ErrCodeAudienceMismatch  = "audience mismatch"
	ErrCodeEmailNotVerified  = "email not verified"
	ErrCodeLoginRequired     = "login required"
	ErrCodeAdminRequired     = "admin required"
	ErrCodeAlreadyVoted      = "already voted"
	ErrCodeEmpty             = "empty"
	ErrCodeNotFound          = "not_found"
	ErrCodeBadURL            = "bad url"
)

// NewMissingCredentialError は資格情報未提出エラーを生成する。
func NewMissingCredentialError() *APIError {
	return &APIError{Code: ErrCodeMissingCredential, Status: 400}
}

// NewVerificationFailedError はIDトークン検証の通信・プロバイダ障害エラーを生成する。
func NewVerificationFailedError() *APIError {
	return &APIError{Code: ErrCodeVerifyFailed, Status: 401}
}

// NewAudienceMismatchError はaudクレーム不一致エラーを生成する。
func NewAudienceMismatchError() *APIError {
	return &APIError{Code: ErrCodeAudienceMismatch, Status: 401}
}

// NewEmailNotVerifiedError はメール未確認エラーを生成する。
func NewEmailNotVerifiedError() *APIError {
	return &APIError{Code: ErrCodeEmailNotVerified, Status: 401}
}

// NewLoginRequiredError は未ログインエラーを生成する。
func NewLoginRequiredError() *APIError {
	return &APIError{Code: ErrCodeLoginRequired, Status: 401}
}

// NewAdminRequiredError は管理者権限不足エラーを生成する。
func NewAdminRequiredError() *APIError {
	return &APIError{Code: ErrCodeAdminRequired, Status: 403}
}

// NewAlreadyVotedError は同一期間内の重複投票エラーを生成する。
func NewAlreadyVotedError() *APIError {
	return &APIError{
		Code:    ErrCodeAlreadyVoted,
		Message: "이미 이번 달에 투표했습니다.",
		Status:  400,
	}
}

// NewEmptyInputError は空入力エラーを生成する。
func NewEmptyInputError() *APIError {
	return &APIError{Code: ErrCodeEmpty, Status: 400}
}

// NewNotFoundError はルート未定義エラーを生成する。
func NewNotFoundError() *APIError {
	return &APIError{Code: ErrCodeNotFound, Status: 404}
}

// NewBadURLError は画像プロキシの不正URLエラーを生成する。
func NewBadURLError() *APIError {
	return &APIError{Code: ErrCodeBadURL, Status: 400}
}
