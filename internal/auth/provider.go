// Package auth はOAuthプロバイダーアダプターとconnect/disconnectフローを提供する。
package auth

import (
	"context"

	"github.com/hitoshi/authweb/internal/model"
)

// Provider はOAuth認証プロバイダーのインターフェース。
// 各プロバイダーはエンドポイントURL、リクエスト/レスポンス形状、資格情報のみが
// 異なり、アダプターがその差異を正規化する。セッション層・ビュー層は
// アダプターの選択以外でプロバイダーを区別しない。
type Provider interface {
	// Name はプロバイダーの登録名（"google"等）を返す。
	Name() string

	// Connect は認可コードをプロバイダーのトークンエンドポイントで交換し、
	// プロフィールエンドポイントから正規化済みのユーザー情報を取得する。
	// ネットワーク障害、無効・期限切れのコード、プロフィールのemail欠落は
	// エラーになる（emailはアイデンティティ解決に必須）。
	Connect(ctx context.Context, authorizationCode string) (*model.Login, error)

	// Disconnect はアクセストークンをプロバイダー側で取り消す。
	// 冪等であり、既に取り消し済みのトークンの取り消しは成功として扱う。
	Disconnect(ctx context.Context, login *model.Login) error
}
