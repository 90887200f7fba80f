package auth

import (
	"fmt"
	"sort"

	"github.com/hitoshi/authweb/internal/model"
)

// Registry はプロバイダー名からアダプターへの対応を管理する。
// ビュー層を変更せずにプロバイダーを追加するための登録機構。
type Registry struct {
	providers map[string]Provider
}

// NewRegistry は空のRegistryを生成する。
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register はプロバイダーを登録する。同名の二重登録はエラーを返す。
func (r *Registry) Register(p Provider) error {
	name := p.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider already registered: %s", name)
	}
	r.providers[name] = p
	return nil
}

// Get は指定名のプロバイダーを返す。
// 未登録の場合はUNKNOWN_PROVIDERエラーを返す。
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, model.NewUnknownProviderError(name)
	}
	return p, nil
}

// Names は登録済みプロバイダー名の一覧をソート順で返す。
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
