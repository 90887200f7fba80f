// Package user はユーザー照会のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"

	"github.com/hitoshi/authweb/internal/model"
	"github.com/hitoshi/authweb/internal/repository"
)

// Service はユーザー照会のサービス層。
// 作成はOAuthのconnectフロー側の責務のため、ここは読み取り専用。
type Service struct {
	userRepo repository.UserRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{userRepo: userRepo}
}

// List は全ユーザーを作成日時順で返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.userRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Get は指定IDのユーザーを返す。存在しない場合はUSER_NOT_FOUNDエラー。
func (s *Service) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return user, nil
}

// Document は指定ユーザーのエクスポート表現を返す。
// JSON/XMLビューの両方がこの1つの文書型を直列化する。
func (s *Service) Document(ctx context.Context, id string) (*model.UserDocument, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return model.NewUserDocument(user), nil
}

// OwnerOf はリソースの所有者判定に使用するユーザーIDを返す。
// 所有権ガードはこの値とセッションのユーザーIDを比較する。
func (s *Service) OwnerOf(ctx context.Context, resourceID string) (string, error) {
	user, err := s.Get(ctx, resourceID)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}
