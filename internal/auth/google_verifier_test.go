package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/fanhub/internal/model"
)

const testClientID = "test-client-id.apps.googleusercontent.com"

// newTokenInfoServer は指定レスポンスを返すtokeninfoスタブサーバーを起動する。
func newTokenInfoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id_token") == "" {
			t.Error("id_token query parameter should be set")
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// 有効なクレームで検証が成功することを検証
func TestVerify_Success(t *testing.T) {
	srv := newTokenInfoServer(t, http.StatusOK,
		`{"aud":"`+testClientID+`","email":"fan@example.com","email_verified":"true","name":"팬","picture":"https://example.com/p.jpg"}`)

	v := NewGoogleVerifier(GoogleVerifierConfig{ClientID: testClientID, TokenInfoURL: srv.URL})

	user, err := v.Verify(context.Background(), "credential-abc")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if user.Email != "fan@example.com" {
		t.Errorf("Email = %q", user.Email)
	}
	if user.Name != "팬" {
		t.Errorf("Name = %q", user.Name)
	}
	if user.Picture != "https://example.com/p.jpg" {
		t.Errorf("Picture = %q", user.Picture)
	}
}

// email_verifiedがブール値trueでも成功することを検証
func TestVerify_BooleanEmailVerified(t *testing.T) {
	srv := newTokenInfoServer(t, http.StatusOK,
		`{"aud":"`+testClientID+`","email":"fan@example.com","email_verified":true}`)

	v := NewGoogleVerifier(GoogleVerifierConfig{ClientID: testClientID, TokenInfoURL: srv.URL})

	if _, err := v.Verify(context.Background(), "cred"); err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
}

// nameクレームがない場合にメールのローカル部が使われることを検証
func TestVerify_NameDefaultsToLocalPart(t *testing.T) {
	srv := newTokenInfoServer(t, http.StatusOK,
		`{"aud":"`+testClientID+`","email":"karina.fan@example.com","email_verified":"true"}`)

	v := NewGoogleVerifier(GoogleVerifierConfig{ClientID: testClientID, TokenInfoURL: srv.URL})

	user, err := v.Verify(context.Background(), "cred")
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if user.Name != "karina.fan" {
		t.Errorf("Name = %q, want karina.fan", user.Name)
	}
	if user.Picture != "" {
		t.Errorf("Picture = %q, want empty", user.Picture)
	}
}

// audクレーム不一致で失敗することを検証
func TestVerify_AudienceMismatch(t *testing.T) {
	srv := newTokenInfoServer(t, http.StatusOK,
		`{"aud":"other-client-id","email":"fan@example.com","email_verified":"true"}`)

	v := NewGoogleVerifier(GoogleVerifierConfig{ClientID: testClientID, TokenInfoURL: srv.URL})

	_, err := v.Verify(context.Background(), "cred")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAudienceMismatch {
		t.Fatalf("err = %v, want audience mismatch", err)
	}
}

// email_verifiedがfalseで失敗することを検証
func TestVerify_EmailNotVerified(t *testing.T) {
	srv := newTokenInfoServer(t, http.StatusOK,
		`{"aud":"`+testClientID+`","email":"fan@example.com","email_verified":"false"}`)

	v := NewGoogleVerifier(GoogleVerifierConfig{ClientID: testClientID, TokenInfoURL: srv.URL})

	_, err := v.Verify(context.Background(), "cred")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmailNotVerified {
		t.Fatalf("err = %v, want email not verified", err)
	}
}

// tokeninfoの非200応答で検証失敗になることを検証
func TestVerify_ProviderErrorStatus(t *testing.T) {
	srv := newTokenInfoServer(t, http.StatusBadRequest, `{"error":"invalid_token"}`)

	v := NewGoogleVerifier(GoogleVerifierConfig{ClientID: testClientID, TokenInfoURL: srv.URL})

	_, err := v.Verify(context.Background(), "cred")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeVerifyFailed {
		t.Fatalf("err = %v, want google verify failed", err)
	}
}

// ネットワーク障害で検証失敗になることを検証（リトライしない）
func TestVerify_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // 即座に閉じて接続拒否させる

	v := NewGoogleVerifier(GoogleVerifierConfig{ClientID: testClientID, TokenInfoURL: srv.URL})

	_, err := v.Verify(context.Background(), "cred")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeVerifyFailed {
		t.Fatalf("err = %v, want google verify failed", err)
	}
}

// 空のcredentialで失敗することを検証
func TestVerify_MissingCredential(t *testing.T) {
	v := NewGoogleVerifier(GoogleVerifierConfig{ClientID: testClientID})

	_, err := v.Verify(context.Background(), "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeMissingCredential {
		t.Fatalf("err = %v, want missing credential", err)
	}
}
