package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hitoshi/authweb/internal/model"
)

const (
	defaultFacebookTokenURL      = "https://graph.facebook.com/v19.0/oauth/access_token"
	defaultFacebookProfileURL    = "https://graph.facebook.com/v19.0/me"
	defaultFacebookRevokeBaseURL = "https://graph.facebook.com/v19.0"
)

// FacebookConfig はFacebook OAuthプロバイダーの設定。
type FacebookConfig struct {
	AppID     string
	AppSecret string

	// テスト用にオーバーライド可能なURL
	TokenURL      string
	ProfileURL    string
	RevokeBaseURL string

	// HTTPClient は外部通信に使用するクライアント。
	// 未指定の場合は10秒タイムアウトのデフォルトクライアントを使用する。
	HTTPClient *http.Client
}

// FacebookProvider はFacebook Graph APIによる認証アダプター。
type FacebookProvider struct {
	config FacebookConfig
	client *http.Client
}

// NewFacebookProvider はFacebookProviderを生成する。
func NewFacebookProvider(config FacebookConfig) *FacebookProvider {
	if config.TokenURL == "" {
		config.TokenURL = defaultFacebookTokenURL
	}
	if config.ProfileURL == "" {
		config.ProfileURL = defaultFacebookProfileURL
	}
	if config.RevokeBaseURL == "" {
		config.RevokeBaseURL = defaultFacebookRevokeBaseURL
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &FacebookProvider{config: config, client: client}
}

// Name はプロバイダー名"facebook"を返す。
func (p *FacebookProvider) Name() string {
	return "facebook"
}

// facebookTokenResponse はGraph APIのトークン交換レスポンス。
type facebookTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// facebookProfile はGraph APIの/meレスポンス。
// pictureはネストした構造で返る。
type facebookProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

// Connect は認可コードをアクセストークンに交換し、正規化済みのLoginを返す。
func (p *FacebookProvider) Connect(ctx context.Context, authorizationCode string) (*model.Login, error) {
	tokenResp, err := p.exchangeToken(ctx, authorizationCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	profile, err := p.fetchProfile(ctx, tokenResp.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}

	// emailはローカルユーザーとの結合キーのため必須
	if profile.Email == "" {
		return nil, fmt.Errorf("facebook profile has no email")
	}

	return &model.Login{
		ProviderName: p.Name(),
		AccessToken:  tokenResp.AccessToken,
		AccessID:     profile.ID,
		UserData: model.UserData{
			Name:    profile.Name,
			Email:   profile.Email,
			Picture: profile.Picture.Data.URL,
		},
	}, nil
}

// Disconnect はユーザーのアプリ権限を削除してトークンを失効させる。
func (p *FacebookProvider) Disconnect(ctx context.Context, login *model.Login) error {
	revokeURL := fmt.Sprintf("%s/%s/permissions?access_token=%s",
		p.config.RevokeBaseURL, url.PathEscape(login.AccessID), url.QueryEscape(login.AccessToken))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, revokeURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create revoke request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("revoke request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusBadRequest:
		// トークンは既に失効している
		return nil
	default:
		return fmt.Errorf("revoke failed with status %d", resp.StatusCode)
	}
}

// exchangeToken は認可コードをアクセストークンに交換する。
// Graph APIの交換はGETリクエストで行う。
func (p *FacebookProvider) exchangeToken(ctx context.Context, code string) (*facebookTokenResponse, error) {
	params := url.Values{
		"code":          {code},
		"client_id":     {p.config.AppID},
		"client_secret": {p.config.AppSecret},
		"redirect_uri":  {""},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.TokenURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp facebookTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	return &tokenResp, nil
}

// fetchProfile はアクセストークンでユーザープロフィールを取得する。
func (p *FacebookProvider) fetchProfile(ctx context.Context, accessToken string) (*facebookProfile, error) {
	params := url.Values{
		"fields":       {"id,name,email,picture.type(large)"},
		"access_token": {accessToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.ProfileURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var profile facebookProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile response: %w", err)
	}

	if profile.ID == "" {
		return nil, fmt.Errorf("empty id in profile response")
	}

	return &profile, nil
}

// compile-time interface check
var _ Provider = (*FacebookProvider)(nil)
