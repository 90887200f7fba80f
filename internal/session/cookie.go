package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// cookieName はセッションCookieの名前。
const cookieName = "authweb_session"

// CookieConfig は署名付きセッションCookieの設定。
type CookieConfig struct {
	// Secret はHMAC-SHA256署名鍵。全インスタンスで共有する。
	Secret string
	// MaxAge はCookieの有効期間（秒）。
	MaxAge int
	// Domain はCookieのドメイン属性。空の場合はホスト限定。
	Domain string
	// Secure はSecure属性を付与するかどうか。
	Secure bool
}

// CookieStore は署名付きCookieを背後に持つStore実装。
// Cookie値は base64url(JSON) + "." + hex(HMAC-SHA256) の形式で、
// 署名検証に失敗した値は空のセッションとして破棄される。
type CookieStore struct {
	w      http.ResponseWriter
	r      *http.Request
	config CookieConfig
	values map[string]string
}

// NewCookieStore はリクエストのCookieからセッション状態を復元したCookieStoreを生成する。
// Cookieが存在しない、または署名が不正な場合は空のセッションから開始する。
func NewCookieStore(w http.ResponseWriter, r *http.Request, config CookieConfig) *CookieStore {
	s := &CookieStore{
		w:      w,
		r:      r,
		config: config,
		values: make(map[string]string),
	}

	cookie, err := r.Cookie(cookieName)
	if err != nil || cookie.Value == "" {
		return s
	}

	values, err := decodeSigned(cookie.Value, config.Secret)
	if err != nil {
		// 改ざんされたCookieは無視して空のセッションとして扱う
		return s
	}
	s.values = values

	return s
}

// Get は指定キーの値を返す。
func (s *CookieStore) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set は指定キーに値を設定する。
func (s *CookieStore) Set(key, value string) {
	s.values[key] = value
}

// Delete は指定キーを削除する。
func (s *CookieStore) Delete(key string) {
	delete(s.values, key)
}

// Save は現在の状態を署名してSet-Cookieヘッダーに書き出す。
// 同一リクエスト内で複数回呼ばれた場合は古いSet-Cookieを置き換える。
func (s *CookieStore) Save() error {
	encoded, err := encodeSigned(s.values, s.config.Secret)
	if err != nil {
		return fmt.Errorf("failed to encode session cookie: %w", err)
	}

	cookie := &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		Domain:   s.config.Domain,
		MaxAge:   s.config.MaxAge,
		HttpOnly: true,
		Secure:   s.config.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	replaceCookie(s.w, cookie)
	return nil
}

// encodeSigned はセッション値を署名付きCookie値にエンコードする。
func encodeSigned(values map[string]string, secret string) (string, error) {
	b, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(b)
	return payload + "." + sign(payload, secret), nil
}

// decodeSigned は署名付きCookie値を検証してセッション値に復元する。
// 署名不一致、形式不正はエラーを返す。
func decodeSigned(value, secret string) (map[string]string, error) {
	payload, sig, ok := strings.Cut(value, ".")
	if !ok {
		return nil, fmt.Errorf("malformed session cookie")
	}

	expected := sign(payload, secret)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return nil, fmt.Errorf("session cookie signature mismatch")
	}

	b, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode session payload: %w", err)
	}

	values := make(map[string]string)
	if err := json.Unmarshal(b, &values); err != nil {
		return nil, fmt.Errorf("failed to parse session payload: %w", err)
	}

	return values, nil
}

// sign はペイロードのHMAC-SHA256署名を計算する。
func sign(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// replaceCookie は同名の既存Set-Cookieヘッダーを取り除いてからCookieを設定する。
// セッションを複数回変更するリクエストで重複したSet-Cookieを残さないため。
func replaceCookie(w http.ResponseWriter, cookie *http.Cookie) {
	prefix := cookie.Name + "="
	existing := w.Header()["Set-Cookie"]
	kept := existing[:0]
	for _, c := range existing {
		if !strings.HasPrefix(c, prefix) {
			kept = append(kept, c)
		}
	}
	w.Header()["Set-Cookie"] = kept
	http.SetCookie(w, cookie)
}

// compile-time interface check
var _ Store = (*CookieStore)(nil)
