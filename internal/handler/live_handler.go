package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/fanhub/internal/middleware"
	"github.com/hitoshi/fanhub/internal/model"
)

// LiveServiceInterface はライブ状態ハンドラーが必要とするサービスインターフェース。
type LiveServiceInterface interface {
	List(ctx context.Context) []string
	Set(ctx context.Context, key string, on bool) error
}

// LiveHandler はライブ配信中フラグのHTTPハンドラー。
type LiveHandler struct {
	service LiveServiceInterface
}

// NewLiveHandler はLiveHandlerを生成する。
func NewLiveHandler(service LiveServiceInterface) *LiveHandler {
	return &LiveHandler{service: service}
}

// List はライブ中のメンバーキーを返す。
// GET /live
func (h *LiveHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"live": h.service.List(r.Context()),
	})
}

// Set はメンバーのライブ状態を切り替える。管理者のみ。
// POST /live
func (h *LiveHandler) Set(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.WriteError(w, model.NewEmptyInputError())
		return
	}

	key := strings.TrimSpace(r.PostFormValue("key"))
	if key == "" {
		middleware.WriteError(w, model.NewEmptyInputError())
		return
	}
	on := r.PostFormValue("on") == "true"

	if err := h.service.Set(r.Context(), key, on); err != nil {
		middleware.WriteErrorFrom(w, err)
		return
	}
	writeOK(w)
}
