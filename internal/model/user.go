// Package model はドメインモデルを定義する。
package model

import (
	"encoding/xml"
	"time"
)

// userTableName はUserの永続化先テーブル名。
// JSON/XMLビューのdb_tableフィールドにも使用される。
const userTableName = "auth_user"

// User はOAuth連携で作成されるローカルユーザーを表す。
// emailは外部IdPのアイデンティティとローカルユーザーを結合する自然キーであり、
// 一意制約を持つ。pictureは任意（未設定時は空文字列）。
type User struct {
	ID        string
	Name      string
	Email     string
	Picture   string
	CreatedAt time.Time
}

// UserDocument はユーザーのエクスポート表現。
// テーブル名とカラム値を持つ文書形式で、JSON/XMLの両ビューで共用する。
type UserDocument struct {
	XMLName xml.Name           `json:"-" xml:"user"`
	DBTable string             `json:"db_table" xml:"db_table"`
	Values  UserDocumentValues `json:"values" xml:"values"`
}

// UserDocumentValues はUserDocumentのカラム値部分。
type UserDocumentValues struct {
	ID      string `json:"id" xml:"id"`
	Name    string `json:"name" xml:"name"`
	Email   string `json:"email" xml:"email"`
	Picture string `json:"picture,omitempty" xml:"picture,omitempty"`
}

// NewUserDocument はUserからエクスポート用文書を生成する。
// pictureが未設定の場合は文書から省略される。
func NewUserDocument(u *User) *UserDocument {
	return &UserDocument{
		DBTable: userTableName,
		Values: UserDocumentValues{
			ID:      u.ID,
			Name:    u.Name,
			Email:   u.Email,
			Picture: u.Picture,
		},
	}
}
