// Package session はCookieを背後に持つセッション管理を提供する。
//
// セッション状態（session_id、認証済みユーザー、保留中のログイン）は
// キーバリュー形式のStoreに保持される。Storeは注入可能な依存であり、
// 本番実装は署名付きCookie（CookieStore）だが、テストではメモリ実装を
// 差し替えられる。
package session

// Store はセッション状態のキーバリューストレージ。
// すべての変更はSaveで呼び出し元の永続ストレージ（Cookie等）に書き戻される。
type Store interface {
	// Get は指定キーの値を返す。キーが存在しない場合は第2戻り値がfalseになる。
	Get(key string) (string, bool)

	// Set は指定キーに値を設定する。
	Set(key, value string)

	// Delete は指定キーを削除する。存在しないキーの削除は何もしない。
	Delete(key string)

	// Save は現在の状態を背後のストレージに書き戻す。
	Save() error
}

// MemoryStore はテスト用のインメモリStore実装。
type MemoryStore struct {
	values map[string]string
	// SaveCount はSaveの呼び出し回数。書き戻しの検証に使用する。
	SaveCount int
}

// NewMemoryStore は空のMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get は指定キーの値を返す。
func (s *MemoryStore) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Set は指定キーに値を設定する。
func (s *MemoryStore) Set(key, value string) {
	s.values[key] = value
}

// Delete は指定キーを削除する。
func (s *MemoryStore) Delete(key string) {
	delete(s.values, key)
}

// Save は呼び出し回数を記録する。
func (s *MemoryStore) Save() error {
	s.SaveCount++
	return nil
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
