package auth

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestGoogleProvider_Name(t *testing.T) {
	provider := NewGoogleProvider(GoogleConfig{})
	if got := provider.Name(); got != "google" {
		t.Errorf("Name() = %q, want %q", got, "google")
	}
}

func TestGoogleProvider_Connect_Success(t *testing.T) {
	// テスト用のHTTPサーバーを立てる
	// Google Token Endpoint
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("token request method = %q, want POST", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		if form.Get("code") != "test-auth-code" {
			t.Errorf("code = %q, want %q", form.Get("code"), "test-auth-code")
		}
		if form.Get("redirect_uri") != "postmessage" {
			t.Errorf("redirect_uri = %q, want %q", form.Get("redirect_uri"), "postmessage")
		}
		if form.Get("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %q, want %q", form.Get("grant_type"), "authorization_code")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer tokenServer.Close()

	// Google UserInfo Endpoint
	userInfoServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Authorizationヘッダーの検証
		authHeader := r.Header.Get("Authorization")
		if authHeader != "Bearer test-access-token" {
			t.Errorf("unexpected Authorization header: %q", authHeader)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sub":     "google-sub-12345",
			"email":   "user@gmail.com",
			"name":    "Google User",
			"picture": "https://lh3.googleusercontent.com/photo.jpg",
		})
	}))
	defer userInfoServer.Close()

	provider := NewGoogleProvider(GoogleConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		TokenURL:     tokenServer.URL,
		UserInfoURL:  userInfoServer.URL,
	})

	ctx := context.Background()
	login, err := provider.Connect(ctx, "test-auth-code")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if login.ProviderName != "google" {
		t.Errorf("ProviderName = %q, want %q", login.ProviderName, "google")
	}
	if login.AccessToken != "test-access-token" {
		t.Errorf("AccessToken = %q, want %q", login.AccessToken, "test-access-token")
	}
	if login.AccessID != "google-sub-12345" {
		t.Errorf("AccessID = %q, want %q", login.AccessID, "google-sub-12345")
	}
	if login.UserData.Email != "user@gmail.com" {
		t.Errorf("Email = %q, want %q", login.UserData.Email, "user@gmail.com")
	}
	if login.UserData.Name != "Google User" {
		t.Errorf("Name = %q, want %q", login.UserData.Name, "Google User")
	}
	if login.UserData.Picture != "https://lh3.googleusercontent.com/photo.jpg" {
		t.Errorf("Picture = %q", login.UserData.Picture)
	}
}

func TestGoogleProvider_Connect_TokenError(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":             "invalid_grant",
			"error_description": "Code was already redeemed.",
		})
	}))
	defer tokenServer.Close()

	provider := NewGoogleProvider(GoogleConfig{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		TokenURL:     tokenServer.URL,
	})

	_, err := provider.Connect(context.Background(), "used-code")
	if err == nil {
		t.Fatal("expected error for rejected code")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error should mention status 400, got %v", err)
	}
}

func TestGoogleProvider_Connect_MissingEmail(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "test-access-token",
		})
	}))
	defer tokenServer.Close()

	userInfoServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"sub":  "google-sub-12345",
			"name": "No Email User",
		})
	}))
	defer userInfoServer.Close()

	provider := NewGoogleProvider(GoogleConfig{
		TokenURL:    tokenServer.URL,
		UserInfoURL: userInfoServer.URL,
	})

	_, err := provider.Connect(context.Background(), "test-auth-code")
	if err == nil {
		t.Fatal("expected error for profile without email")
	}
}

func TestGoogleProvider_Disconnect_Success(t *testing.T) {
	revokeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("revoke request method = %q, want POST", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer revokeServer.Close()

	provider := NewGoogleProvider(GoogleConfig{RevokeURL: revokeServer.URL})

	login := testLogin("google", "token-to-revoke")
	if err := provider.Disconnect(context.Background(), login); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
}

func TestGoogleProvider_Disconnect_AlreadyRevoked(t *testing.T) {
	// Googleは失効済みトークンに400を返すが、それはログアウト成功とみなす
	revokeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer revokeServer.Close()

	provider := NewGoogleProvider(GoogleConfig{RevokeURL: revokeServer.URL})

	login := testLogin("google", "stale-token")
	if err := provider.Disconnect(context.Background(), login); err != nil {
		t.Errorf("Disconnect() with already-revoked token should succeed, got %v", err)
	}
}

func TestGoogleProvider_Disconnect_ServerError(t *testing.T) {
	revokeServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer revokeServer.Close()

	provider := NewGoogleProvider(GoogleConfig{RevokeURL: revokeServer.URL})

	login := testLogin("google", "some-token")
	if err := provider.Disconnect(context.Background(), login); err == nil {
		t.Error("expected error for revoke server failure")
	}
}
