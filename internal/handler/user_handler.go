package handler

import (
	"context"
	"encoding/xml"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/authweb/internal/middleware"
	"github.com/hitoshi/authweb/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	List(ctx context.Context) ([]*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	Document(ctx context.Context, id string) (*model.UserDocument, error)
}

// userResponse はユーザー情報のAPIレスポンス表現。
type userResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Picture: u.Picture,
	}
}

// UserHandler はユーザー照会のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// List は全ユーザーの一覧を返す。
// GET /users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		slog.Error("failed to list users", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	responses := make([]userResponse, len(users))
	for i, u := range users {
		responses[i] = toUserResponse(u)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": responses,
	})
}

// Get は単一ユーザーの情報を返す。
// GET /users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUserError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// GetJSON はユーザーのエクスポート文書をJSONで返す。
// GET /users/{id}/JSON
func (h *UserHandler) GetJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Document(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUserError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// GetXML はユーザーのエクスポート文書をXMLで返す。
// GET /users/{id}/XML
func (h *UserHandler) GetXML(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Document(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUserError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		slog.Error("failed to write XML header", slog.String("error", err.Error()))
		return
	}
	if err := xml.NewEncoder(w).Encode(doc); err != nil {
		slog.Error("failed to encode XML response", slog.String("error", err.Error()))
	}
}

// writeUserError はユーザー照会のエラーをHTTPステータスにマップして書き込む。
func writeUserError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUserNotFound {
		middleware.WriteErrorResponse(w, http.StatusNotFound, apiErr)
		return
	}
	slog.Error("user lookup failed", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}
