// ProfileSanitizerService はOAuthプロバイダー由来のプロフィール文字列を
// サニタイズする。表示名はユーザーリスト等でそのまま描画されるため、
// bluemondayの厳格ポリシーでHTMLタグを全て除去してから保存する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ProfileSanitizerService はプロフィール文字列のサニタイズ機能のインターフェースを定義する。
type ProfileSanitizerService interface {
	// SanitizeName は表示名からHTMLタグを全て除去し、前後の空白を取り除く。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeName(name string) string
}

// profileSanitizer はProfileSanitizerServiceの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type profileSanitizer struct {
	policy *bluemonday.Policy
}

// NewProfileSanitizer はProfileSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicyは全てのHTML要素と属性を除去し、テキストのみを通過させる。
func NewProfileSanitizer() *profileSanitizer {
	return &profileSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeName は表示名をサニタイズする。
func (s *profileSanitizer) SanitizeName(name string) string {
	return strings.TrimSpace(s.policy.Sanitize(name))
}

// compile-time interface check
var _ ProfileSanitizerService = (*profileSanitizer)(nil)
