package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/fanhub/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// フロントエンドはerrorフィールドの文字列一致で分岐するため、
// フィールド名と値は固定。
type ErrorResponseBody struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError はAPIErrorを統一フォーマットで書き込む。
func WriteError(w http.ResponseWriter, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apiErr.Status)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		OK:      false,
		Error:   apiErr.Code,
		Message: apiErr.Message,
	})
}

// WriteErrorFrom はエラーを統一フォーマットに変換して書き込む。
// APIErrorはそのままのステータスとコードで返し、それ以外の想定外エラーは
// 詳細をログにのみ記録して500の一般レスポンスに落とす。
func WriteErrorFrom(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		WriteError(w, apiErr)
		return
	}
	slog.Error("unexpected error", slog.String("error", err.Error()))
	WriteInternalServerError(w)
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なコードを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteError(w, &model.APIError{
		Code:   "internal error",
		Status: http.StatusInternalServerError,
	})
}
