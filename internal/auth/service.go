package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/authweb/internal/metrics"
	"github.com/hitoshi/authweb/internal/model"
	"github.com/hitoshi/authweb/internal/repository"
	"github.com/hitoshi/authweb/internal/security"
	"github.com/hitoshi/authweb/internal/session"
)

// ServiceConfig はServiceの設定。
// クライアントIDはログイン画面でブラウザ側SDKの初期化に使用される。
type ServiceConfig struct {
	GoogleClientID string
	FacebookAppID  string
}

// Service は認証フローのサービス層。
// ワンタイムコードの交換、ローカルユーザーとの突合、セッションへの
// バインドまでを1つのトランザクション的な流れとして扱う。
type Service struct {
	config    ServiceConfig
	registry  *Registry
	userRepo  repository.UserRepository
	sanitizer security.ProfileSanitizerService
	guard     security.OutboundGuardService
	metrics   metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。
// metricsはnilを許容する（テストや計測無効時）。
func NewService(
	config ServiceConfig,
	registry *Registry,
	userRepo repository.UserRepository,
	sanitizer security.ProfileSanitizerService,
	guard security.OutboundGuardService,
	collector metrics.MetricsCollector,
) *Service {
	return &Service{
		config:    config,
		registry:  registry,
		userRepo:  userRepo,
		sanitizer: sanitizer,
		guard:     guard,
		metrics:   collector,
	}
}

// LoginInfo はログイン画面の描画に必要な情報を返す。
// セッションIDが未発行の場合はここで採番する。
func (s *Service) LoginInfo(sess *session.Manager, nextURL string) (*model.LoginInfo, error) {
	sessionID, err := sess.GetOrCreateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to issue session ID: %w", err)
	}

	if nextURL == "" {
		nextURL = "/users"
	}

	return &model.LoginInfo{
		SessionID:      sessionID,
		GoogleClientID: s.config.GoogleClientID,
		FacebookAppID:  s.config.FacebookAppID,
		NextURL:        nextURL,
	}, nil
}

// Connect はワンタイムコードフローの心臓部。
// URLのセッションIDとCookieのセッションIDの一致を検証し、プロバイダーで
// コードを交換し、ユーザーを検索または作成してセッションにバインドする。
// セッションIDが一致しない場合、セッション状態は一切変更されない。
func (s *Service) Connect(ctx context.Context, sess *session.Manager, providerName, sessionID, authorizationCode string) (*model.ConnectResult, error) {
	start := time.Now()

	currentID, ok := sess.SessionID()
	if !ok || currentID != sessionID {
		s.recordFailure(providerName, "invalid_session")
		return nil, model.NewInvalidSessionError()
	}

	provider, err := s.registry.Get(providerName)
	if err != nil {
		s.recordFailure(providerName, "unknown_provider")
		return nil, err
	}

	login, err := provider.Connect(ctx, authorizationCode)
	if err != nil {
		s.recordFailure(providerName, "provider_error")
		return nil, model.NewProviderError(providerName, err)
	}

	// 同じプロバイダーの同じアカウントで既にログイン済みなら再処理しない
	if existing, err := sess.Login(); err == nil && existing != nil {
		current := sess.Current()
		if current.Authenticated &&
			existing.ProviderName == login.ProviderName &&
			existing.AccessID == login.AccessID {
			slog.Info("user already connected",
				slog.String("user_id", current.UserID),
				slog.String("provider", providerName),
			)
			return &model.ConnectResult{
				UserID:           current.UserID,
				UserName:         current.UserName,
				Message:          "Current user is already connected.",
				Redirect:         "/users",
				AlreadyConnected: true,
			}, nil
		}
	}

	user, err := s.findOrCreateUser(ctx, login)
	if err != nil {
		s.recordFailure(providerName, "user_store_error")
		return nil, err
	}

	if err := sess.Bind(user.ID, user.Name, login); err != nil {
		s.recordFailure(providerName, "session_error")
		return nil, fmt.Errorf("failed to bind session: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordConnectSuccess(providerName)
		s.metrics.RecordConnectLatency(time.Since(start))
	}

	slog.Info("user connected",
		slog.String("user_id", user.ID),
		slog.String("provider", providerName),
	)

	return &model.ConnectResult{
		UserID:   user.ID,
		UserName: user.Name,
		Message:  fmt.Sprintf("you are now logged in as %s", user.Name),
		Redirect: "/users",
	}, nil
}

// Disconnect はプロバイダー側のトークンを失効させ、セッションを破棄する。
// 失効APIの失敗はログに残すだけでローカルのログアウトは必ず成立させる。
func (s *Service) Disconnect(ctx context.Context, sess *session.Manager) (*model.DisconnectResult, error) {
	current := sess.Current()
	if !current.Authenticated {
		return &model.DisconnectResult{
			Message:     "You are not logged in.",
			Redirect:    "/login",
			WasLoggedIn: false,
		}, nil
	}

	login, err := sess.Login()
	if err != nil {
		slog.Warn("failed to read login from session", slog.String("error", err.Error()))
	}

	if login != nil {
		provider, err := s.registry.Get(login.ProviderName)
		if err != nil {
			slog.Warn("unknown provider in session", slog.String("provider", login.ProviderName))
		} else if err := provider.Disconnect(ctx, login); err != nil {
			slog.Warn("failed to revoke provider token",
				slog.String("provider", login.ProviderName),
				slog.String("error", err.Error()),
			)
		}
		if s.metrics != nil {
			s.metrics.RecordDisconnect(login.ProviderName)
		}
	}

	if err := sess.Clear(); err != nil {
		return nil, fmt.Errorf("failed to clear session: %w", err)
	}

	slog.Info("user logged out", slog.String("user_id", current.UserID))

	return &model.DisconnectResult{
		Message:     "You have successfully logged out.",
		Redirect:    "/users",
		WasLoggedIn: true,
	}, nil
}

// findOrCreateUser はメールアドレスでユーザーを検索し、存在しなければ作成する。
// 同時接続によるユニーク制約違反は再検索で吸収する。
func (s *Service) findOrCreateUser(ctx context.Context, login *model.Login) (*model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, login.UserData.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user != nil {
		return user, nil
	}

	name := s.sanitizer.SanitizeName(login.UserData.Name)
	if name == "" {
		name = login.UserData.Email
	}

	picture := login.UserData.Picture
	if picture != "" {
		if err := s.guard.ValidatePictureURL(picture); err != nil {
			slog.Warn("dropping unsafe picture URL",
				slog.String("provider", login.ProviderName),
				slog.String("error", err.Error()),
			)
			picture = ""
		}
	}

	newUser := &model.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     login.UserData.Email,
		Picture:   picture,
		CreatedAt: time.Now(),
	}

	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// 別リクエストが先に作成した場合は勝者の行を採用する
			existing, ferr := s.userRepo.FindByEmail(ctx, login.UserData.Email)
			if ferr != nil {
				return nil, fmt.Errorf("failed to re-find user after duplicate: %w", ferr)
			}
			if existing == nil {
				return nil, fmt.Errorf("user vanished after duplicate email: %s", login.UserData.Email)
			}
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user created",
		slog.String("user_id", newUser.ID),
		slog.String("email", newUser.Email),
		slog.String("provider", login.ProviderName),
	)

	return newUser, nil
}

func (s *Service) recordFailure(provider, reason string) {
	if s.metrics != nil {
		s.metrics.RecordConnectFailure(provider, reason)
	}
}
