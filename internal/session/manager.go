package session

import (
	"crypto/rand"
	"fmt"

	"github.com/hitoshi/authweb/internal/model"
)

// セッションストア内のキー
const (
	sessionIDKey = "session_id"
	userIDKey    = "user_id"
	userNameKey  = "user_name"
	loginKey     = "login"
)

// sessionIDAlphabet はsession_idの文字集合（36種）。
const sessionIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// sessionIDLength はsession_idの長さ。
const sessionIDLength = 32

// State はセッションの現在の認証状態。
// UserIDが存在すること ⇔ セッションが「認証済み」状態であること。
type State struct {
	Authenticated bool
	UserID        string
	UserName      string
}

// Manager はセッション状態の読み書きを提供する。
// リクエストごとに生成され、注入されたStoreを通じて状態を永続化する。
type Manager struct {
	store Store
}

// NewManager は指定されたStoreの上にManagerを生成する。
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// SessionID は既存のsession_idを返す。未発行の場合は第2戻り値がfalseになる。
// 状態を変更しない読み取り専用のアクセサ。
func (m *Manager) SessionID() (string, bool) {
	return m.store.Get(sessionIDKey)
}

// GetOrCreateSessionID は既存のsession_idを返す。
// 未発行の場合は推測困難なランダムトークンを生成して保存する。
// 同一セッション内での呼び出しは冪等で、常に同じトークンを返す。
func (m *Manager) GetOrCreateSessionID() (string, error) {
	if id, ok := m.store.Get(sessionIDKey); ok && id != "" {
		return id, nil
	}

	id, err := generateSessionID()
	if err != nil {
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}

	m.store.Set(sessionIDKey, id)
	if err := m.store.Save(); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	return id, nil
}

// Bind はセッションを認証済み状態に遷移させる。
// ユーザーID・表示名とともにLoginをpending loginスロットに保存する。
func (m *Manager) Bind(userID, userName string, login *model.Login) error {
	m.store.Set(userIDKey, userID)
	m.store.Set(userNameKey, userName)

	if login != nil {
		loginJSON, err := login.ToJSON()
		if err != nil {
			return err
		}
		m.store.Set(loginKey, loginJSON)
	} else {
		m.store.Delete(loginKey)
	}

	if err := m.store.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear は認証済み状態と保留中のログインを削除する。
// 既にクリア済みでも成功する（冪等）。session_idは維持される。
func (m *Manager) Clear() error {
	m.store.Delete(userIDKey)
	m.store.Delete(userNameKey)
	m.store.Delete(loginKey)

	if err := m.store.Save(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Current はセッションの現在の認証状態を返す。
func (m *Manager) Current() State {
	userID, ok := m.store.Get(userIDKey)
	if !ok || userID == "" {
		return State{}
	}

	userName, _ := m.store.Get(userNameKey)
	return State{
		Authenticated: true,
		UserID:        userID,
		UserName:      userName,
	}
}

// Login はpending loginスロットのLoginを返す。
// 保存されていない場合はnilを返す（エラーではない）。
func (m *Manager) Login() (*model.Login, error) {
	raw, ok := m.store.Get(loginKey)
	if !ok || raw == "" {
		return nil, nil
	}
	return model.ParseLogin(raw)
}

// generateSessionID は[A-Z0-9]から成る32文字のランダムトークンを生成する。
// 剰余の偏りを避けるため、アルファベット長の倍数を超えるバイトは読み捨てる。
func generateSessionID() (string, error) {
	const maxUnbiased = byte(252) // 36 * 7

	id := make([]byte, 0, sessionIDLength)
	buf := make([]byte, sessionIDLength)

	for len(id) < sessionIDLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= maxUnbiased {
				continue
			}
			id = append(id, sessionIDAlphabet[int(b)%len(sessionIDAlphabet)])
			if len(id) == sessionIDLength {
				break
			}
		}
	}

	return string(id), nil
}
