package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hitoshi/fanhub/internal/middleware"
	"github.com/hitoshi/fanhub/internal/model"
)

// VoteServiceInterface は投票ハンドラーが必要とするサービスインターフェース。
type VoteServiceInterface interface {
	Cast(ctx context.Context, email, key string) error
	State(ctx context.Context, email string) model.VoteState
	Results(ctx context.Context) []model.VoteResult
}

// VoteHandler は月間投票のHTTPハンドラー。
type VoteHandler struct {
	service VoteServiceInterface
	metrics MetricsRecorder
}

// NewVoteHandler はVoteHandlerを生成する。
func NewVoteHandler(service VoteServiceInterface, metrics MetricsRecorder) *VoteHandler {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &VoteHandler{service: service, metrics: metrics}
}

// Cast は今月の1票を投じる。
// フォームエンコードとJSONボディの両方を受け付ける。
// POST /vote
func (h *VoteHandler) Cast(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromContext(r.Context())

	key := strings.TrimSpace(extractVoteKey(r))
	if key == "" {
		middleware.WriteError(w, model.NewEmptyInputError())
		return
	}

	if err := h.service.Cast(r.Context(), sess.User.Email, key); err != nil {
		middleware.WriteErrorFrom(w, err)
		return
	}

	h.metrics.RecordVoteCast()
	writeJSON(w, http.StatusOK, struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}{OK: true, Message: "투표가 저장되었습니다."})
}

// extractVoteKey はContent-Typeに応じて投票キーを取り出す。
func extractVoteKey(r *http.Request) string {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Key string `json:"key"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return ""
		}
		return body.Key
	}
	if err := r.ParseForm(); err != nil {
		return ""
	}
	return r.PostFormValue("key")
}

// State は今月の投票状態を返す。未ログインでも参照できる。
// GET /vote/state
func (h *VoteHandler) State(w http.ResponseWriter, r *http.Request) {
	email := ""
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		email = sess.User.Email
	}
	writeJSON(w, http.StatusOK, h.service.State(r.Context(), email))
}

// Results は今月の集計を票数降順で返す。
// GET /vote/results
func (h *VoteHandler) Results(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]model.VoteResult{
		"results": h.service.Results(r.Context()),
	})
}
