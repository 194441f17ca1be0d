package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/fanhub/internal/middleware"
	"github.com/hitoshi/fanhub/internal/model"
)

// DiaryServiceInterface は日記ハンドラーが必要とするサービスインターフェース。
type DiaryServiceInterface interface {
	List(ctx context.Context, email string) []model.DiaryEntry
	Create(ctx context.Context, email, title, body string) (*model.DiaryEntry, error)
	Delete(ctx context.Context, email, id string) error
}

// DiaryHandler は応援日記のHTTPハンドラー。
// 全操作がRequireSessionの後段に置かれ、対象リストは常にセッションの
// メールアドレスで決まる。クライアントが他人のリストを指定する手段はない。
type DiaryHandler struct {
	service DiaryServiceInterface
}

// NewDiaryHandler はDiaryHandlerを生成する。
func NewDiaryHandler(service DiaryServiceInterface) *DiaryHandler {
	return &DiaryHandler{service: service}
}

// List は自分の日記を新着順で返す。
// GET /diary
func (h *DiaryHandler) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string][]model.DiaryEntry{
		"items": h.service.List(r.Context(), sess.User.Email),
	})
}

// Create は日記を作成する。
// POST /diary
func (h *DiaryHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		middleware.WriteError(w, model.NewEmptyInputError())
		return
	}

	entry, err := h.service.Create(r.Context(), sess.User.Email,
		r.PostFormValue("title"), r.PostFormValue("body"))
	if err != nil {
		middleware.WriteErrorFrom(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		OK   bool              `json:"ok"`
		Item *model.DiaryEntry `json:"item"`
	}{OK: true, Item: entry})
}

// Delete は自分の日記をIDで削除する。
// DELETE /diary/{id}
func (h *DiaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if err := h.service.Delete(r.Context(), sess.User.Email, chi.URLParam(r, "id")); err != nil {
		middleware.WriteErrorFrom(w, err)
		return
	}
	writeOK(w)
}
