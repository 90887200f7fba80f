// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/authweb/internal/model"
)

// ErrDuplicateEmail は一意制約違反（email重複）を表す。
// 同一emailに対する並行createの競合はストレージエンジンの一意インデックスが
// 唯一の調停者であり、敗者はこのエラーを観測してFindByEmailへフォールバックする。
var ErrDuplicateEmail = errors.New("email already exists")

// UserRepository はユーザーデータの永続化インターフェース。
// update/deleteはこのアプリケーションのスコープ外のため提供しない。
type UserRepository interface {
	// Create はユーザーを新規作成する。
	// emailが既に存在する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はemailでユーザーを検索する。見つからない場合はnilを返す。
	// ログインフローの正規のアイデンティティ解決手段であり、
	// 「未登録」は正常な分岐としてnilで表現する（エラーではない）。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// ListAll は全ユーザーを作成日時順で返す。
	ListAll(ctx context.Context) ([]*model.User, error)
}
