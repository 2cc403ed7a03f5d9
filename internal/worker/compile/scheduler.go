// Package compile は週次コンパイルのバックグラウンドトリガー処理を提供する。
// 対話的な提出時のトリガーとは別に、当該週に未反映のエントリを持つ
// ユーザーの週次ログを定期的に再コンパイルさせる。
package compile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rabiuk/stride/internal/metrics"
	"github.com/rabiuk/stride/internal/model"
	"github.com/rabiuk/stride/internal/repository"
)

// CompileTrigger はコンパイルサービスへのトリガー呼び出しインターフェース。
type CompileTrigger interface {
	// Compile は指定ユーザーの週次コンパイルをトリガーする。
	Compile(ctx context.Context, userID, credential string) error
}

// Scheduler は週次コンパイルのスケジューリングと並列制御を行う。
// ティッカーで再コンパイルが必要なユーザーを取得し、
// semaphoreパターンで最大並列数を制御しながらトリガーを実行する。
type Scheduler struct {
	entryRepo      repository.EntryRepository
	trigger        CompileTrigger
	collector      metrics.MetricsCollector
	logger         *slog.Logger
	serviceToken   string
	maxConcurrency int
	now            func() time.Time // テスト用に差し替え可能
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// serviceTokenはワーカー経由のトリガーに使用するBearerトークン。
// maxConcurrencyが0以下の場合はデフォルト値4を使用する。
func NewScheduler(
	entryRepo repository.EntryRepository,
	trigger CompileTrigger,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	serviceToken string,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Scheduler{
		entryRepo:      entryRepo,
		trigger:        trigger,
		collector:      collector,
		logger:         logger,
		serviceToken:   serviceToken,
		maxConcurrency: maxConcurrency,
		now:            time.Now,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("コンパイルスケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("コンパイルサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("コンパイルスケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("コンパイルサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は再コンパイルが必要なユーザーを1回取得し、並列でトリガーを実行する。
// 対象は現在の週（月曜起点、UTC）。semaphoreパターンで最大並列数を制御する。
// 個別ユーザーのトリガー失敗はログに記録して継続する（次サイクルで再試行される）。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := s.now()
	weekStart := model.WeekStart(start)

	userIDs, err := s.entryRepo.ListUserIDsDueForCompile(ctx, weekStart)
	if err != nil {
		return err
	}

	if len(userIDs) == 0 {
		s.logger.Info("再コンパイル対象のユーザーはありません",
			slog.String("week_start", weekStart.Format("2006-01-02")),
		)
		return nil
	}

	s.logger.Info("コンパイルサイクルを開始します",
		slog.String("week_start", weekStart.Format("2006-01-02")),
		slog.Int("user_count", len(userIDs)),
	)
	s.collector.RecordScheduledCompile(len(userIDs))

	// semaphoreパターンで並列数を制御
	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, userID := range userIDs {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(id string) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			if err := s.trigger.Compile(ctx, id, s.serviceToken); err != nil {
				s.logger.Error("週次コンパイルのトリガーに失敗しました",
					slog.String("user_id", id),
					slog.String("error", err.Error()),
				)
			}
		}(userID)
	}

	wg.Wait()

	duration := time.Since(start)
	s.logger.Info("コンパイルサイクルが完了しました",
		slog.Int("user_count", len(userIDs)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}
