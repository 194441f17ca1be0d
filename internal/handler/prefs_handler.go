package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/fanhub/internal/middleware"
	"github.com/hitoshi/fanhub/internal/model"
)

// PrefsServiceInterface は設定ハンドラーが必要とするサービスインターフェース。
type PrefsServiceInterface interface {
	Get(ctx context.Context, email string) model.Prefs
	AddFavorite(ctx context.Context, email, key string) (model.Prefs, error)
}

// PrefsHandler はユーザー設定のHTTPハンドラー。
type PrefsHandler struct {
	service PrefsServiceInterface
}

// NewPrefsHandler はPrefsHandlerを生成する。
func NewPrefsHandler(service PrefsServiceInterface) *PrefsHandler {
	return &PrefsHandler{service: service}
}

// AddFavorite はメンバーキーをお気に入りに追加する。
// POST /prefs/fav
func (h *PrefsHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		middleware.WriteError(w, model.NewEmptyInputError())
		return
	}

	key := strings.TrimSpace(r.PostFormValue("key"))
	if key == "" {
		middleware.WriteError(w, model.NewEmptyInputError())
		return
	}

	prefs, err := h.service.AddFavorite(r.Context(), sess.User.Email, key)
	if err != nil {
		middleware.WriteErrorFrom(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		OK    bool        `json:"ok"`
		Prefs model.Prefs `json:"prefs"`
	}{OK: true, Prefs: prefs})
}
