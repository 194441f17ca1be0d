package handler

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/fanhub/internal/middleware"
	"github.com/hitoshi/fanhub/internal/model"
	"github.com/hitoshi/fanhub/internal/security"
)

// ImageHandlerConfig は画像プロキシの設定。
type ImageHandlerConfig struct {
	Timeout time.Duration // 上流フェッチのタイムアウト
	MaxSize int64         // 転送する最大バイト数
}

// ImageHandler は外部画像のプロキシハンドラー。
// フロントエンドが混在コンテンツやhotlink制限を避けるために使う。
// 上流へのリクエストはSSRF防止付きクライアントで行い、内部アドレスへの
// 到達はURL検証とDialer検証の二段でブロックされる。
type ImageHandler struct {
	guard   security.SSRFGuardService
	client  *http.Client
	config  ImageHandlerConfig
	metrics MetricsRecorder
}

// NewImageHandler はImageHandlerを生成する。
func NewImageHandler(guard security.SSRFGuardService, config ImageHandlerConfig, metrics MetricsRecorder) *ImageHandler {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ImageHandler{
		guard:   guard,
		client:  guard.NewSafeClient(config.Timeout, config.MaxSize),
		config:  config,
		metrics: metrics,
	}
}

// Proxy は指定URLの画像を取得してそのまま返す。
// GET /img?url=https://...
func (h *ImageHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	src := r.URL.Query().Get("url")
	if err := h.guard.ValidateURL(src); err != nil {
		middleware.WriteError(w, model.NewBadURLError())
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, src, nil)
	if err != nil {
		middleware.WriteError(w, model.NewBadURLError())
		return
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		slog.Warn("image proxy fetch failed", slog.String("error", err.Error()))
		middleware.WriteError(w, &model.APIError{
			Code:   "fetch failed",
			Status: http.StatusBadGateway,
		})
		return
	}
	defer resp.Body.Close()
	h.metrics.RecordImageProxyLatency(time.Since(start))

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	// 上流の可変ヘッダーは引き継がず、プロキシ側で1時間キャッシュさせる
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, io.LimitReader(resp.Body, h.config.MaxSize)); err != nil {
		slog.Warn("image proxy copy interrupted", slog.String("error", err.Error()))
	}
}
