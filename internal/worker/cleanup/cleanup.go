// Package cleanup は期限切れデータの自動削除ジョブを提供する。
// 期限切れセッション、保持期間（デフォルト365日）を超過した生エントリ、
// および放置されたインメモリドラフトを定期バッチで削除する。
// 週次ログはユーザーが明示的に削除（退会）するまで保持する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// DraftPurger は期限切れドラフトの破棄インターフェース。
// wizard.Storeの部分集合として定義する。
type DraftPurger interface {
	// PurgeExpired は期限切れドラフトを削除し、削除件数を返す。
	PurgeExpired() int
}

// CleanupJob は期限切れデータの自動削除ジョブ。
// 定期実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	db            Executor
	drafts        DraftPurger
	logger        *slog.Logger
	RetentionDays int // 生エントリの保持日数（デフォルト: 365）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は365日。
func NewCleanupJob(db Executor, drafts DraftPurger, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:            db,
		drafts:        drafts,
		logger:        logger,
		RetentionDays: 365,
	}
}

// Start は指定間隔のティッカーでクリーンアップジョブを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("クリーンアップジョブを開始しました",
		slog.Duration("interval", interval),
		slog.Int("retention_days", j.RetentionDays),
	)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("クリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("クリーンアップジョブの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Run は期限切れデータを1回削除する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	expiredSessions, err := j.deleteExpiredSessions(ctx)
	if err != nil {
		return err
	}

	staleEntries, err := j.deleteStaleEntries(ctx)
	if err != nil {
		return err
	}

	purgedDrafts := 0
	if j.drafts != nil {
		purgedDrafts = j.drafts.PurgeExpired()
	}

	duration := time.Since(start)
	j.logger.Info("クリーンアップジョブが完了しました",
		slog.Int64("expired_sessions", expiredSessions),
		slog.Int64("stale_entries", staleEntries),
		slog.Int("purged_drafts", purgedDrafts),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// deleteExpiredSessions は有効期限を過ぎたセッションを削除する。
func (j *CleanupJob) deleteExpiredSessions(ctx context.Context) (int64, error) {
	result, err := j.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("期限切れセッションの削除に失敗: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return deleted, nil
}

// deleteStaleEntries は保持期間を超過した生エントリを削除する。
// エントリは提出後に週次ログへ集約済みのため、原文の長期保持は不要。
func (j *CleanupJob) deleteStaleEntries(ctx context.Context) (int64, error) {
	interval := fmt.Sprintf("%d days", j.RetentionDays)

	result, err := j.db.ExecContext(ctx,
		`DELETE FROM entries WHERE created_at < now() - $1::interval`, interval)
	if err != nil {
		return 0, fmt.Errorf("保持期間超過エントリの削除に失敗: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}
	return deleted, nil
}
