// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/authweb/internal/middleware"
	"github.com/hitoshi/authweb/internal/model"
	"github.com/hitoshi/authweb/internal/session"
)

// maxCodeLength は認可コードのリクエストボディの上限バイト数。
// 実際のコードは数百バイトであり、これを超える入力は不正とみなす。
const maxCodeLength = 4096

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	LoginInfo(sess *session.Manager, nextURL string) (*model.LoginInfo, error)
	Connect(ctx context.Context, sess *session.Manager, providerName, sessionID, authorizationCode string) (*model.ConnectResult, error)
	Disconnect(ctx context.Context, sess *session.Manager) (*model.DisconnectResult, error)
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	sessions middleware.SessionFactory
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, sessions middleware.SessionFactory) *AuthHandler {
	return &AuthHandler{
		service:  service,
		sessions: sessions,
	}
}

// Login はログインに必要な情報（セッションIDとクライアントID）を返す。
// GET /login?next_url=/users/42
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions(w, r)

	info, err := h.service.LoginInfo(sess, r.URL.Query().Get("next_url"))
	if err != nil {
		slog.Error("failed to build login info", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, info)
}

// Connect はワンタイムコードフローの受け口。
// POST /connect/{provider}/{session_id}
// リクエストボディはプロバイダーが発行した認可コードそのもの。
func (h *AuthHandler) Connect(w http.ResponseWriter, r *http.Request) {
	providerName := chi.URLParam(r, "provider")
	sessionID := chi.URLParam(r, "session_id")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxCodeLength+1))
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("failed to read request body"))
		return
	}
	code := strings.TrimSpace(string(body))
	if code == "" || len(code) > maxCodeLength {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("invalid authorization code"))
		return
	}

	sess := h.sessions(w, r)

	result, err := h.service.Connect(r.Context(), sess, providerName, sessionID, code)
	if err != nil {
		writeAuthError(w, providerName, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Disconnect はプロバイダーのトークンを失効させてログアウトする。
// GET /disconnect
func (h *AuthHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions(w, r)

	result, err := h.service.Disconnect(r.Context(), sess)
	if err != nil {
		slog.Error("disconnect failed", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// writeAuthError は認証フローのエラーをHTTPステータスにマップして書き込む。
func writeAuthError(w http.ResponseWriter, providerName string, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		slog.Error("connect failed",
			slog.String("provider", providerName),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	switch apiErr.Code {
	case model.ErrCodeInvalidSession:
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
	case model.ErrCodeUnknownProvider:
		middleware.WriteErrorResponse(w, http.StatusNotFound, apiErr)
	case model.ErrCodeProviderError:
		// コード交換の失敗は認可の失敗として扱う
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
	default:
		middleware.WriteErrorResponse(w, http.StatusInternalServerError, apiErr)
	}
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
