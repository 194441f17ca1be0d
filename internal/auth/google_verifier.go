package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hitoshi/fanhub/internal/model"
)

const defaultTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

// TokenVerifier はIDトークン検証のインターフェース。
// Google Identity Servicesがブラウザで発行したcredentialを検証済みクレームに交換する。
type TokenVerifier interface {
	// Verify はcredentialを検証し、検証済みユーザーを返す。
	// 検証は1回のみで、リトライもキャッシュも行わない。
	Verify(ctx context.Context, credential string) (*model.User, error)
}

// GoogleVerifierConfig はGoogleVerifierの設定。
type GoogleVerifierConfig struct {
	ClientID string

	// テスト用にオーバーライド可能なURL
	TokenInfoURL string
}

// GoogleVerifier はGoogleのtokeninfoエンドポイントによるIDトークン検証を提供する。
// OAuthの認可コードフローは使用しない。ブラウザ側のGISポップアップ/リダイレクトが
// credentialを取得し、サーバーは検証のみを担当する。
type GoogleVerifier struct {
	config GoogleVerifierConfig
	client *http.Client
}

// NewGoogleVerifier はGoogleVerifierを生成する。
func NewGoogleVerifier(config GoogleVerifierConfig) *GoogleVerifier {
	if config.TokenInfoURL == "" {
		config.TokenInfoURL = defaultTokenInfoURL
	}
	return &GoogleVerifier{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// boolString はtokeninfoのemail_verifiedクレームを表す。
// tokeninfoは文字列"true"を返すが、仕様上はブール値も許容する。
type boolString bool

// UnmarshalJSON はブール値または文字列のどちらでも受け付ける。
func (b *boolString) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true", `"true"`:
		*b = true
	default:
		*b = false
	}
	return nil
}

// tokenInfoResponse はtokeninfoエンドポイントのレスポンス。
type tokenInfoResponse struct {
	Aud           string     `json:"aud"`
	Email         string     `json:"email"`
	EmailVerified boolString `json:"email_verified"`
	Name          string     `json:"name"`
	Picture       string     `json:"picture"`
}

// Verify はcredentialをtokeninfoエンドポイントで検証する。
// 検証順序: 通信・ステータス → audクレーム → email_verifiedクレーム。
// 失敗はそれぞれ対応するAPIErrorとして返り、副作用は持たない。
func (v *GoogleVerifier) Verify(ctx context.Context, credential string) (*model.User, error) {
	if credential == "" {
		return nil, model.NewMissingCredentialError()
	}

	reqURL := v.config.TokenInfoURL + "?id_token=" + url.QueryEscape(credential)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokeninfo request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		slog.Warn("tokeninfo request failed", slog.String("error", err.Error()))
		return nil, model.NewVerificationFailedError()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("failed to read tokeninfo response", slog.String("error", err.Error()))
		return nil, model.NewVerificationFailedError()
	}

	if resp.StatusCode != http.StatusOK {
		slog.Warn("tokeninfo returned non-OK status",
			slog.Int("status", resp.StatusCode),
		)
		return nil, model.NewVerificationFailedError()
	}

	var info tokenInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		slog.Warn("failed to parse tokeninfo response", slog.String("error", err.Error()))
		return nil, model.NewVerificationFailedError()
	}

	if info.Aud != v.config.ClientID {
		return nil, model.NewAudienceMismatchError()
	}
	if !bool(info.EmailVerified) {
		return nil, model.NewEmailNotVerifiedError()
	}
	if info.Email == "" {
		return nil, model.NewVerificationFailedError()
	}

	name := info.Name
	if name == "" {
		// 表示名クレームがない場合はメールのローカル部を使用する
		name = strings.SplitN(info.Email, "@", 2)[0]
	}

	return &model.User{
		Email:   info.Email,
		Name:    name,
		Picture: info.Picture,
	}, nil
}

// compile-time interface check
var _ TokenVerifier = (*GoogleVerifier)(nil)
