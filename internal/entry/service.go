// Package entry はエントリ提出パイプラインを提供する。
//
// 提出は「ドキュメント組み立て → エントリ保存 → コンパイル要求」の
// 3段階で進む。保存に失敗した場合はネットワーク呼び出しの前に中断する。
// コンパイル要求が失敗しても保存済みエントリのロールバックは行わない。
// 再提出で生エントリが重複しうるが、週次ログの重複排除は
// コンパイルサービス側の責務とする。
package entry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rabiuk/stride/internal/metrics"
	"github.com/rabiuk/stride/internal/model"
	"github.com/rabiuk/stride/internal/repository"
	"github.com/rabiuk/stride/internal/wizard"
)

// Compiler はコンパイルサービスへの要求を抽象化する。
type Compiler interface {
	// Compile は指定ユーザーの週次ログ再コンパイルを要求する。
	Compile(ctx context.Context, userID, credential string) error
}

// Service はエントリ提出のビジネスロジックを提供する。
type Service struct {
	entryRepo repository.EntryRepository
	compiler  Compiler
	collector metrics.MetricsCollector
	logger    *slog.Logger
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(entryRepo repository.EntryRepository, compiler Compiler, collector metrics.MetricsCollector, logger *slog.Logger) *Service {
	return &Service{
		entryRepo: entryRepo,
		compiler:  compiler,
		collector: collector,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit はウィザードの4回答を1件のエントリとして提出する。
//
//  1. userIDが空の場合はUNAUTHENTICATEDを返し、副作用なしで終了する。
//  2. 4回答を固定順のラベル付きドキュメントに組み立てる。
//     空欄（トリム後空）の回答は "N/A" に置き換わる。
//  3. エントリを保存する。失敗時はPERSISTENCE_FAILEDを返し、
//     コンパイル要求は行わない。
//  4. コンパイルサービスへPOSTする。拒否（COMPILE_REJECTED）も
//     接続失敗（COMPILE_UNREACHABLE）も保存済みエントリはそのまま残る。
//
// リトライは行わない。どのエラーも今回の提出を終了させるだけで、
// 呼び出し側は再提出可能な状態に戻る。
func (s *Service) Submit(ctx context.Context, userID, credential string, answers [wizard.StepCount]string) error {
	if userID == "" {
		return model.NewUnauthenticatedError()
	}

	content := wizard.AssembleDocument(answers)

	e := &model.Entry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now(),
	}

	if err := s.entryRepo.Create(ctx, e); err != nil {
		s.collector.RecordPersistenceFailure()
		s.logger.Error("エントリの保存に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return model.NewPersistenceFailedError()
	}

	start := s.now()
	err := s.compiler.Compile(ctx, userID, credential)
	s.collector.RecordCompileLatency(s.now().Sub(start))

	if err != nil {
		s.recordCompileFailure(err)
		s.logger.Warn("コンパイル要求に失敗しました（エントリは保存済み）",
			slog.String("user_id", userID),
			slog.String("entry_id", e.ID),
			slog.String("error", err.Error()),
		)
		return err
	}

	s.collector.RecordSubmission()
	s.logger.Info("エントリを提出しました",
		slog.String("user_id", userID),
		slog.String("entry_id", e.ID),
	)
	return nil
}

// recordCompileFailure はコンパイル失敗の種別をメトリクスに記録する。
func (s *Service) recordCompileFailure(err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return
	}
	switch apiErr.Code {
	case model.ErrCodeCompileRejected:
		s.collector.RecordCompileRejected()
	case model.ErrCodeCompileUnreachable:
		s.collector.RecordCompileUnreachable()
	}
}
