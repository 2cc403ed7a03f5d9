// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rabiuk/stride/internal/model"
	"github.com/rabiuk/stride/internal/repository"
)

// EntryDeleter は生エントリの一括削除インターフェース。
type EntryDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// CompiledLogDeleter は週次ログの一括削除インターフェース。
type CompiledLogDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) error
}

// Service はユーザー管理のサービス層。
// 退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	entryDel    EntryDeleter
	logDel      CompiledLogDeleter
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	entryDel EntryDeleter,
	logDel CompiledLogDeleter,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		entryDel:    entryDel,
		logDel:      logDel,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: compiled_logs → entries → sessions → user（+ CASCADE: identities）
// 週次ログは外部コンパイルサービスが作成したものも含めて全削除する。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	// ユーザー存在確認
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. 週次ログを削除
	if s.logDel != nil {
		if err := s.logDel.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("週次ログの削除に失敗しました: %w", err)
		}
	}

	// 2. 生エントリを削除
	if s.entryDel != nil {
		if err := s.entryDel.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("エントリの削除に失敗しました: %w", err)
		}
	}

	// 3. セッションを削除
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 4. ユーザーを削除（identitiesはCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}
