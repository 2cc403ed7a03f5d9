package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rabiuk/stride/internal/model"
)

// PostgresEntryRepo はPostgreSQLを使用したエントリリポジトリ。
type PostgresEntryRepo struct {
	db *sql.DB
}

// NewPostgresEntryRepo はPostgresEntryRepoを生成する。
func NewPostgresEntryRepo(db *sql.DB) *PostgresEntryRepo {
	return &PostgresEntryRepo{db: db}
}

// Create はエントリを作成する。
func (r *PostgresEntryRepo) Create(ctx context.Context, entry *model.Entry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (id, user_id, content, created_at)
		 VALUES ($1, $2, $3, $4)`,
		entry.ID, entry.UserID, entry.Content, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}
	return nil
}

// ListUserIDsDueForCompile は指定週の再コンパイルが必要なユーザーIDを返す。
// 当該週にエントリを持ち、週次ログが未作成、または週次ログの作成時刻より
// 新しいエントリが存在するユーザーが対象。
func (r *PostgresEntryRepo) ListUserIDsDueForCompile(ctx context.Context, weekStart time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.user_id
		 FROM entries e
		 LEFT JOIN compiled_logs cl
		   ON cl.user_id = e.user_id AND cl.week_start = $1::date
		 WHERE e.created_at >= $1
		 GROUP BY e.user_id, cl.created_at
		 HAVING cl.created_at IS NULL OR max(e.created_at) > cl.created_at`,
		weekStart,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users due for compile: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user ID: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users due for compile: %w", err)
	}

	return userIDs, nil
}

// DeleteByUserID は指定ユーザーの全エントリを削除する。
func (r *PostgresEntryRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM entries WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user entries: %w", err)
	}
	return nil
}

// compile-time interface check
var _ EntryRepository = (*PostgresEntryRepo)(nil)
