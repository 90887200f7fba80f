package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/authweb/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 認証フロー（INVALID_SESSION、PROVIDER_ERROR等）とユーザー取得API
// （USER_NOT_FOUND等）の双方が同じ形式で返し、ブラウザ側SDKは
// codeで分岐し、actionをそのままユーザーに提示できる。
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// ステータスコードの選択は各ハンドラのAPIError→HTTPマッピングに委ねる。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
// プロバイダーから受け取ったトークン等の内部情報を漏らさないこと。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}
