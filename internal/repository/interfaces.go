// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/rabiuk/stride/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error

	// UpdateProfile はIdPから取得した表示名とアバターURLを更新する。
	UpdateProfile(ctx context.Context, id, name, avatarURL string) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するidentities、sessions、entries、compiled_logsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// IdentityRepository は外部IdP紐付け情報の永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID はproviderとprovider_user_idでidentityを検索する。
	// 見つからない場合はnilを返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// EntryRepository は生エントリの永続化インターフェース。
// エントリは作成後不変で、このサービスから内容を読み戻すことはない。
type EntryRepository interface {
	// Create はエントリを作成する。
	Create(ctx context.Context, entry *model.Entry) error

	// ListUserIDsDueForCompile は指定週の再コンパイルが必要なユーザーIDを返す。
	// 当該週にエントリがあり、かつ週次ログが未作成または
	// 最新エントリより古いユーザーが対象。
	ListUserIDsDueForCompile(ctx context.Context, weekStart time.Time) ([]string, error)

	// DeleteByUserID は指定ユーザーの全エントリを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// CompiledLogRepository は週次ログの読み取りインターフェース。
// compiled_logsテーブルへの書き込みは外部のコンパイルサービスのみが行う。
type CompiledLogRepository interface {
	// ListByUserID はユーザーの週次ログ一覧をweek_start順で返す。
	// ascending=falseの場合は新しい週が先頭。
	ListByUserID(ctx context.Context, userID string, ascending bool) ([]*model.CompiledLog, error)

	// FindByID は指定IDの週次ログを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.CompiledLog, error)

	// DeleteByUserID は指定ユーザーの全週次ログを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}
