package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rabiuk/stride/internal/model"
)

// PostgresCompiledLogRepo はPostgreSQLを使用した週次ログリポジトリ。
// compiled_logsテーブルへの書き込みは外部のコンパイルサービスのみが行うため、
// このリポジトリは読み取り（および退会時の削除）のみを提供する。
type PostgresCompiledLogRepo struct {
	db *sql.DB
}

// NewPostgresCompiledLogRepo はPostgresCompiledLogRepoを生成する。
func NewPostgresCompiledLogRepo(db *sql.DB) *PostgresCompiledLogRepo {
	return &PostgresCompiledLogRepo{db: db}
}

// ListByUserID はユーザーの週次ログ一覧をweek_start順で返す。
// ascending=falseの場合は新しい週が先頭（デフォルトの表示順）。
func (r *PostgresCompiledLogRepo) ListByUserID(ctx context.Context, userID string, ascending bool) ([]*model.CompiledLog, error) {
	order := "DESC"
	if ascending {
		order = "ASC"
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, to_char(week_start, 'YYYY-MM-DD'), markdown_blob, created_at
		 FROM compiled_logs
		 WHERE user_id = $1
		 ORDER BY week_start `+order,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list compiled logs: %w", err)
	}
	defer rows.Close()

	var logs []*model.CompiledLog
	for rows.Next() {
		log := &model.CompiledLog{}
		if err := rows.Scan(&log.ID, &log.UserID, &log.WeekStart, &log.MarkdownBlob, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan compiled log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate compiled logs: %w", err)
	}

	return logs, nil
}

// FindByID は指定IDの週次ログを取得する。見つからない場合はnilを返す。
func (r *PostgresCompiledLogRepo) FindByID(ctx context.Context, id string) (*model.CompiledLog, error) {
	log := &model.CompiledLog{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, to_char(week_start, 'YYYY-MM-DD'), markdown_blob, created_at
		 FROM compiled_logs
		 WHERE id = $1`,
		id,
	).Scan(&log.ID, &log.UserID, &log.WeekStart, &log.MarkdownBlob, &log.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find compiled log: %w", err)
	}

	return log, nil
}

// DeleteByUserID は指定ユーザーの全週次ログを削除する。
func (r *PostgresCompiledLogRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM compiled_logs WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user compiled logs: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CompiledLogRepository = (*PostgresCompiledLogRepo)(nil)
