package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/hitoshi/fanhub/internal/model"
)

// --- モック定義 ---

// mockGalleryService はGalleryServiceInterfaceのモック。
type mockGalleryService struct {
	itemsFunc func(ctx context.Context) []model.GalleryItem
	pinFunc   func(ctx context.Context, member, url string) error
	seedFunc  func(ctx context.Context, member, url string) error
}

func (m *mockGalleryService) Items(ctx context.Context) []model.GalleryItem {
	return m.itemsFunc(ctx)
}

func (m *mockGalleryService) Pin(ctx context.Context, member, url string) error {
	return m.pinFunc(ctx, member, url)
}

func (m *mockGalleryService) Seed(ctx context.Context, member, url string) error {
	return m.seedFunc(ctx, member, url)
}

var _ GalleryServiceInterface = (*mockGalleryService)(nil)

// --- テスト ---

// 表示用ギャラリーがitemsキーで返ることを検証
func TestGalleryItems(t *testing.T) {
	service := &mockGalleryService{
		itemsFunc: func(_ context.Context) []model.GalleryItem {
			return []model.GalleryItem{
				{Member: "karina", URL: "https://cdn.example.com/1.jpg", Tag: "pin", Caption: "관리자 고정"},
			}
		},
	}
	h := NewGalleryHandler(service)

	rec := httptest.NewRecorder()
	h.Items(rec, httptest.NewRequest(http.MethodGet, "/gallery", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Items []model.GalleryItem `json:"items"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if len(body.Items) != 1 || body.Items[0].Tag != "pin" {
		t.Errorf("items = %+v", body.Items)
	}
}

// 固定画像の登録フォームがサービスに渡ることを検証
func TestGalleryPin(t *testing.T) {
	service := &mockGalleryService{
		pinFunc: func(_ context.Context, member, imageURL string) error {
			if member != "karina" || imageURL != "https://cdn.example.com/1.jpg" {
				t.Errorf("Pin called with (%q, %q)", member, imageURL)
			}
			return nil
		},
	}
	h := NewGalleryHandler(service)

	req := requestWithSession(postForm("/gallery/pin", url.Values{
		"key": {"karina"},
		"url": {"https://cdn.example.com/1.jpg"},
	}), "admin@example.com", true)
	rec := httptest.NewRecorder()
	h.Pin(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

// 不正URLの登録が400とbad urlで返ることを検証
func TestGalleryPin_BadURL(t *testing.T) {
	service := &mockGalleryService{
		pinFunc: func(_ context.Context, _, _ string) error {
			return model.NewBadURLError()
		},
	}
	h := NewGalleryHandler(service)

	req := requestWithSession(postForm("/gallery/pin", url.Values{
		"key": {"karina"},
		"url": {"http://169.254.169.254/latest/meta-data"},
	}), "admin@example.com", true)
	rec := httptest.NewRecorder()
	h.Pin(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if body := decodeErrorBody(t, rec); body.Error != model.ErrCodeBadURL {
		t.Errorf("body = %+v", body)
	}
}

// メンバーキー未指定が400で拒否されることを検証
func TestGalleryPin_EmptyKey(t *testing.T) {
	service := &mockGalleryService{
		pinFunc: func(_ context.Context, _, _ string) error {
			t.Error("Pin should not be called")
			return nil
		},
	}
	h := NewGalleryHandler(service)

	req := requestWithSession(postForm("/gallery/pin", url.Values{
		"url": {"https://cdn.example.com/1.jpg"},
	}), "admin@example.com", true)
	rec := httptest.NewRecorder()
	h.Pin(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// 候補プール追加がサービスに渡ることを検証
func TestGallerySeed(t *testing.T) {
	service := &mockGalleryService{
		seedFunc: func(_ context.Context, member, imageURL string) error {
			if member != "winter" || imageURL != "https://cdn.example.com/2.jpg" {
				t.Errorf("Seed called with (%q, %q)", member, imageURL)
			}
			return nil
		},
	}
	h := NewGalleryHandler(service)

	req := requestWithSession(postForm("/gallery/seed", url.Values{
		"key": {"winter"},
		"url": {"https://cdn.example.com/2.jpg"},
	}), "admin@example.com", true)
	rec := httptest.NewRecorder()
	h.Seed(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}
