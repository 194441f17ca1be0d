package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/fanhub/internal/middleware"
	"github.com/hitoshi/fanhub/internal/model"
)

// GalleryServiceInterface はギャラリーハンドラーが必要とするサービスインターフェース。
type GalleryServiceInterface interface {
	Items(ctx context.Context) []model.GalleryItem
	Pin(ctx context.Context, member, url string) error
	Seed(ctx context.Context, member, url string) error
}

// GalleryHandler はファンギャラリーのHTTPハンドラー。
type GalleryHandler struct {
	service GalleryServiceInterface
}

// NewGalleryHandler はGalleryHandlerを生成する。
func NewGalleryHandler(service GalleryServiceInterface) *GalleryHandler {
	return &GalleryHandler{service: service}
}

// Items は表示用ギャラリーを返す。候補の抽出はランダムで、
// 同じ状態でも呼び出しごとに結果が変わりうる。
// GET /gallery
func (h *GalleryHandler) Items(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]model.GalleryItem{
		"items": h.service.Items(r.Context()),
	})
}

// Pin はメンバーの固定画像を設定する。管理者のみ。
// POST /gallery/pin
func (h *GalleryHandler) Pin(w http.ResponseWriter, r *http.Request) {
	member, url, ok := galleryForm(w, r)
	if !ok {
		return
	}
	if err := h.service.Pin(r.Context(), member, url); err != nil {
		middleware.WriteErrorFrom(w, err)
		return
	}
	writeOK(w)
}

// Seed は候補プールに画像を追加する。管理者のみ。
// POST /gallery/seed
func (h *GalleryHandler) Seed(w http.ResponseWriter, r *http.Request) {
	member, url, ok := galleryForm(w, r)
	if !ok {
		return
	}
	if err := h.service.Seed(r.Context(), member, url); err != nil {
		middleware.WriteErrorFrom(w, err)
		return
	}
	writeOK(w)
}

// galleryForm はpin/seed共通のフォーム抽出を行う。
// キーが空の場合はエラーレスポンスを書き込んでfalseを返す。
func galleryForm(w http.ResponseWriter, r *http.Request) (member, url string, ok bool) {
	if err := r.ParseForm(); err != nil {
		middleware.WriteError(w, model.NewEmptyInputError())
		return "", "", false
	}
	member = strings.TrimSpace(r.PostFormValue("key"))
	url = strings.TrimSpace(r.PostFormValue("url"))
	if member == "" {
		middleware.WriteError(w, model.NewEmptyInputError())
		return "", "", false
	}
	return member, url, true
}
