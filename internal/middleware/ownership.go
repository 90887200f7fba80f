package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/authweb/internal/model"
)

// OwnerResolver はURLパスのリソースIDから所有者のユーザーIDを解決する。
type OwnerResolver interface {
	OwnerOf(ctx context.Context, resourceID string) (string, error)
}

// NewOwnershipMiddleware は所有権ガードを返す。
// 認証ガードの後段に配置することを前提とし、パスパラメータ{id}の
// リソース所有者とセッションのユーザーが一致しない場合は
// 公開プロフィールページへリダイレクトする。
// リソースが存在しない場合は404を返す。
func NewOwnershipMiddleware(resolver OwnerResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := UserIDFromContext(r.Context())
			if err != nil {
				// 認証ガードを通っていない誤配線
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
				return
			}

			resourceID := chi.URLParam(r, "id")
			owner, err := resolver.OwnerOf(r.Context(), resourceID)
			if err != nil {
				var apiErr *model.APIError
				if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeUserNotFound {
					WriteErrorResponse(w, http.StatusNotFound, apiErr)
					return
				}
				slog.Error("failed to resolve resource owner",
					slog.String("resource_id", resourceID),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}

			if owner != userID {
				slog.Warn("ownership check failed",
					slog.String("user_id", userID),
					slog.String("owner_id", owner),
					slog.String("resource_id", resourceID),
				)
				http.Redirect(w, r, "/users/"+resourceID, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
