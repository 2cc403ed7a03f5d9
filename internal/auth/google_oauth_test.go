package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestProvider(authURL, tokenURL, userInfoURL string) *GoogleOAuthProvider {
	return NewGoogleOAuthProvider(GoogleOAuthConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURL:  "http://localhost:8080/auth/google/callback",
		AuthURL:      authURL,
		TokenURL:     tokenURL,
		UserInfoURL:  userInfoURL,
	})
}

func TestGetLoginURL_ContainsRequiredParams(t *testing.T) {
	p := newTestProvider("https://accounts.google.com/o/oauth2/auth", "", "")

	loginURL := p.GetLoginURL("state-123")

	u, err := url.Parse(loginURL)
	if err != nil {
		t.Fatalf("failed to parse login URL: %v", err)
	}
	q := u.Query()

	if q.Get("client_id") != "test-client-id" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("state") != "state-123" {
		t.Errorf("state = %q", q.Get("state"))
	}
	if q.Get("response_type") != "code" {
		t.Errorf("response_type = %q", q.Get("response_type"))
	}
	if !strings.Contains(q.Get("scope"), "email") || !strings.Contains(q.Get("scope"), "profile") {
		t.Errorf("scope = %q, want email and profile", q.Get("scope"))
	}
}

func TestExchangeCode_Success(t *testing.T) {
	userInfoServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-access-token" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"sub":     "google-sub-1",
			"email":   "taro@example.com",
			"name":    "Taro",
			"picture": "https://lh3.googleusercontent.com/a/photo",
		})
	}))
	defer userInfoServer.Close()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("failed to parse form: %v", err)
		}
		if got := r.PostForm.Get("code"); got != "auth-code" {
			t.Errorf("code = %q, want auth-code", got)
		}
		if got := r.PostForm.Get("grant_type"); got != "authorization_code" {
			t.Errorf("grant_type = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenServer.Close()

	p := newTestProvider("", tokenServer.URL, userInfoServer.URL)

	info, err := p.ExchangeCode(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("ExchangeCode() がエラーを返した: %v", err)
	}

	if info.Provider != "google" {
		t.Errorf("Provider = %q, want google", info.Provider)
	}
	if info.ProviderUserID != "google-sub-1" {
		t.Errorf("ProviderUserID = %q", info.ProviderUserID)
	}
	if info.Email != "taro@example.com" {
		t.Errorf("Email = %q", info.Email)
	}
	if info.AvatarURL != "https://lh3.googleusercontent.com/a/photo" {
		t.Errorf("AvatarURL = %q", info.AvatarURL)
	}
}

func TestExchangeCode_TokenEndpointError(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer tokenServer.Close()

	p := newTestProvider("", tokenServer.URL, "")

	if _, err := p.ExchangeCode(context.Background(), "bad-code"); err == nil {
		t.Fatal("無効な認可コードではエラーが返るべき")
	}
}

func TestExchangeCode_EmptyAccessToken(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token_type": "Bearer"})
	}))
	defer tokenServer.Close()

	p := newTestProvider("", tokenServer.URL, "")

	if _, err := p.ExchangeCode(context.Background(), "auth-code"); err == nil {
		t.Fatal("空のアクセストークンではエラーが返るべき")
	}
}

func TestExchangeCode_UserInfoEndpointError(t *testing.T) {
	userInfoServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer userInfoServer.Close()

	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-access-token",
		})
	}))
	defer tokenServer.Close()

	p := newTestProvider("", tokenServer.URL, userInfoServer.URL)

	if _, err := p.ExchangeCode(context.Background(), "auth-code"); err == nil {
		t.Fatal("ユーザー情報取得失敗時はエラーが返るべき")
	}
}
