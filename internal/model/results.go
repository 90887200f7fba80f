package model

// LoginInfo はログインページの描画に必要な情報。
// クライアントはこの情報を使ってプロバイダー固有のクライアントサイド認証を開始する。
type LoginInfo struct {
	SessionID      string `json:"session_id"`
	GoogleClientID string `json:"google_client_id"`
	FacebookAppID  string `json:"facebook_app_id"`
	NextURL        string `json:"next_url"`
}

// ConnectResult はconnectフローの結果。
// リダイレクト先とユーザー向けメッセージを含む。
type ConnectResult struct {
	UserID           string `json:"user_id"`
	UserName         string `json:"user_name"`
	Message          string `json:"message"`
	Redirect         string `json:"redirect"`
	AlreadyConnected bool   `json:"already_connected,omitempty"`
}

// DisconnectResult はdisconnectフローの結果。
// プロバイダー側の取り消しが失敗してもクライアント側のログアウトは常に成功する。
type DisconnectResult struct {
	Message     string `json:"message"`
	Redirect    string `json:"redirect"`
	WasLoggedIn bool   `json:"-"`
}
