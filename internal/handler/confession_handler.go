package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/fanhub/internal/middleware"
	"github.com/hitoshi/fanhub/internal/model"
)

// ConfessionServiceInterface は告白板ハンドラーが必要とするサービスインターフェース。
type ConfessionServiceInterface interface {
	List(ctx context.Context) []model.Confession
	Create(ctx context.Context, message string) (*model.Confession, error)
	Delete(ctx context.Context, id string) error
}

// ConfessionHandler は告白板のHTTPハンドラー。
type ConfessionHandler struct {
	service ConfessionServiceInterface
}

// NewConfessionHandler はConfessionHandlerを生成する。
func NewConfessionHandler(service ConfessionServiceInterface) *ConfessionHandler {
	return &ConfessionHandler{service: service}
}

// List は全メッセージを新着順で返す。
// GET /confession
func (h *ConfessionHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]model.Confession{
		"items": h.service.List(r.Context()),
	})
}

// Create はメッセージを投稿する。ログイン不要。
// POST /confession
func (h *ConfessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.WriteError(w, model.NewEmptyInputError())
		return
	}

	item, err := h.service.Create(r.Context(), r.PostFormValue("message"))
	if err != nil {
		middleware.WriteErrorFrom(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		OK   bool              `json:"ok"`
		Item *model.Confession `json:"item"`
	}{OK: true, Item: item})
}

// Delete はメッセージを削除する。管理者のみ（RequireAdminの後段）。
// DELETE /confession/{id}
func (h *ConfessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		middleware.WriteErrorFrom(w, err)
		return
	}
	writeOK(w)
}
