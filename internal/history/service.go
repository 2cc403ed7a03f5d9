// Package history は週次ログの閲覧機能を提供する。
//
// 週次ログ（compiled_logs）は外部のコンパイルサービスが作成するため、
// このパッケージは読み取り・整形・ダウンロードのみを担当する。
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabiuk/stride/internal/model"
	"github.com/rabiuk/stride/internal/repository"
	"github.com/rabiuk/stride/internal/security"
)

// LogSummary は一覧表示用の週次ログ要約。
type LogSummary struct {
	ID        string    `json:"id"`
	WeekStart string    `json:"week_start"`
	Preview   string    `json:"preview"`
	CreatedAt time.Time `json:"created_at"`
}

// LogDetail は詳細表示用の週次ログ。
// MarkdownBlobは保存された原文、HTMLはサニタイズ済みのレンダリング結果。
type LogDetail struct {
	ID           string    `json:"id"`
	WeekStart    string    `json:"week_start"`
	MarkdownBlob string    `json:"markdown_blob"`
	HTML         string    `json:"html"`
	CreatedAt    time.Time `json:"created_at"`
}

// Download はダウンロード用に整形した週次ログ。
// Filenameは週の開始日から決まる（weekly-log-YYYY-MM-DD.md）。
type Download struct {
	Filename string
	Content  []byte
}

// Service は週次ログ閲覧のビジネスロジックを提供する。
type Service struct {
	logRepo  repository.CompiledLogRepository
	renderer *Renderer
	logger   *slog.Logger
}

// NewService はServiceを生成する。
func NewService(logRepo repository.CompiledLogRepository, sanitizer security.ContentSanitizerService, logger *slog.Logger) *Service {
	return &Service{
		logRepo:  logRepo,
		renderer: NewRenderer(sanitizer),
		logger:   logger,
	}
}

// List はユーザーの週次ログ一覧を返す。
// ascending=falseで新しい週が先頭（デフォルト）、trueで古い週が先頭。
// 並び替えはSQLのORDER BYで行うため、クライアント側での再ソートは不要。
// ログが1件もない場合は空スライスを返す（エラーではない）。
func (s *Service) List(ctx context.Context, userID string, ascending bool) ([]*LogSummary, error) {
	if userID == "" {
		return nil, model.NewUnauthenticatedError()
	}

	logs, err := s.logRepo.ListByUserID(ctx, userID, ascending)
	if err != nil {
		return nil, fmt.Errorf("failed to list compiled logs: %w", err)
	}

	summaries := make([]*LogSummary, 0, len(logs))
	for _, log := range logs {
		summaries = append(summaries, &LogSummary{
			ID:        log.ID,
			WeekStart: log.WeekStart,
			Preview:   Preview(log.MarkdownBlob),
			CreatedAt: log.CreatedAt,
		})
	}

	return summaries, nil
}

// Get は指定IDの週次ログをレンダリング済みで返す。
// 存在しない場合、または他ユーザーのログの場合はLOG_NOT_FOUNDを返す。
// 所有者以外には存在の有無も明かさない。
func (s *Service) Get(ctx context.Context, userID, logID string) (*LogDetail, error) {
	log, err := s.findOwned(ctx, userID, logID)
	if err != nil {
		return nil, err
	}

	html, err := s.renderer.Render(log.MarkdownBlob)
	if err != nil {
		s.logger.Error("週次ログのレンダリングに失敗しました",
			slog.String("log_id", logID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to render log %s: %w", logID, err)
	}

	return &LogDetail{
		ID:           log.ID,
		WeekStart:    log.WeekStart,
		MarkdownBlob: log.MarkdownBlob,
		HTML:         html,
		CreatedAt:    log.CreatedAt,
	}, nil
}

// PrepareDownload は指定IDの週次ログをダウンロード用に整形して返す。
// ファイル名は週の開始日から決まり、内容は保存された原文そのまま。
func (s *Service) PrepareDownload(ctx context.Context, userID, logID string) (*Download, error) {
	log, err := s.findOwned(ctx, userID, logID)
	if err != nil {
		return nil, err
	}

	return &Download{
		Filename: fmt.Sprintf("weekly-log-%s.md", log.WeekStart),
		Content:  []byte(log.MarkdownBlob),
	}, nil
}

// findOwned は指定IDの週次ログを取得し、所有者を検証する。
func (s *Service) findOwned(ctx context.Context, userID, logID string) (*model.CompiledLog, error) {
	if userID == "" {
		return nil, model.NewUnauthenticatedError()
	}

	log, err := s.logRepo.FindByID(ctx, logID)
	if err != nil {
		return nil, fmt.Errorf("failed to find compiled log: %w", err)
	}
	if log == nil || log.UserID != userID {
		return nil, model.NewLogNotFoundError(logID)
	}

	return log, nil
}
