package model

import (
	"encoding/json"
	"fmt"
)

// UserData はOAuthプロバイダーから取得したプロフィールの正規化表現。
// プロバイダーごとのレスポンス形状の差異はアダプターがここに吸収する。
type UserData struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
}

// Login は認可コード交換の結果を表す一時的な値オブジェクト。
// connectからdisconnectまでの間、セッションのpending loginスロットに
// JSON形式でシリアライズされて保持される。
type Login struct {
	ProviderName string   `json:"provider_name"`
	AccessToken  string   `json:"access_token"`
	AccessID     string   `json:"access_id"`
	UserData     UserData `json:"user_data"`
}

// ToJSON はLoginをセッション格納用のJSON文字列に変換する。
func (l *Login) ToJSON() (string, error) {
	b, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("failed to marshal login: %w", err)
	}
	return string(b), nil
}

// ParseLogin はセッションに格納されたJSON文字列からLoginを復元する。
func ParseLogin(s string) (*Login, error) {
	var l Login
	if err := json.Unmarshal([]byte(s), &l); err != nil {
		return nil, fmt.Errorf("failed to parse login: %w", err)
	}
	return &l, nil
}
