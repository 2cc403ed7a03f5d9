package entry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rabiuk/stride/internal/metrics"
	"github.com/rabiuk/stride/internal/model"
	"github.com/rabiuk/stride/internal/repository"
	"github.com/rabiuk/stride/internal/wizard"

	"github.com/prometheus/client_golang/prometheus"
)

type mockEntryRepo struct {
	createFn                   func(ctx context.Context, entry *model.Entry) error
	listUserIDsDueForCompileFn func(ctx context.Context, weekStart time.Time) ([]string, error)
	deleteByUserIDFn           func(ctx context.Context, userID string) error
}

func (m *mockEntryRepo) Create(ctx context.Context, entry *model.Entry) error {
	if m.createFn != nil {
		return m.createFn(ctx, entry)
	}
	return nil
}

func (m *mockEntryRepo) ListUserIDsDueForCompile(ctx context.Context, weekStart time.Time) ([]string, error) {
	if m.listUserIDsDueForCompileFn != nil {
		return m.listUserIDsDueForCompileFn(ctx, weekStart)
	}
	return nil, nil
}

func (m *mockEntryRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

var _ repository.EntryRepository = (*mockEntryRepo)(nil)

type mockCompiler struct {
	compileFn func(ctx context.Context, userID, credential string) error
}

func (m *mockCompiler) Compile(ctx context.Context, userID, credential string) error {
	if m.compileFn != nil {
		return m.compileFn(ctx, userID, credential)
	}
	return nil
}

var _ Compiler = (*mockCompiler)(nil)

func newTestService(repo repository.EntryRepository, compiler Compiler) *Service {
	collector := metrics.NewCollector(prometheus.NewRegistry())
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewService(repo, compiler, collector, logger)
}

var testAnswers = [wizard.StepCount]string{
	"APIを実装した",
	"レビュー時間を短縮",
	"chiのルーティング",
	"デプロイ手順の確認",
}

func TestSubmit_PersistsEntryAndRequestsCompile(t *testing.T) {
	var savedEntry *model.Entry
	var compiledUserID, compiledCredential string

	repo := &mockEntryRepo{
		createFn: func(ctx context.Context, entry *model.Entry) error {
			savedEntry = entry
			return nil
		},
	}
	compiler := &mockCompiler{
		compileFn: func(ctx context.Context, userID, credential string) error {
			if savedEntry == nil {
				t.Error("compile must be requested after the entry is persisted")
			}
			compiledUserID = userID
			compiledCredential = credential
			return nil
		},
	}

	svc := newTestService(repo, compiler)

	if err := svc.Submit(context.Background(), "user-1", "session-token", testAnswers); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if savedEntry == nil {
		t.Fatal("expected entry to be persisted")
	}
	if savedEntry.UserID != "user-1" {
		t.Errorf("entry.UserID = %q, want user-1", savedEntry.UserID)
	}
	if savedEntry.ID == "" {
		t.Error("entry.ID must be generated")
	}
	if compiledUserID != "user-1" || compiledCredential != "session-token" {
		t.Errorf("Compile(%q, %q), want (user-1, session-token)", compiledUserID, compiledCredential)
	}
}

func TestSubmit_ContentIsAssembledDocument(t *testing.T) {
	var savedContent string
	repo := &mockEntryRepo{
		createFn: func(ctx context.Context, entry *model.Entry) error {
			savedContent = entry.Content
			return nil
		},
	}

	svc := newTestService(repo, &mockCompiler{})

	answers := [wizard.StepCount]string{"作業した", "", "  ", "次はテスト"}
	if err := svc.Submit(context.Background(), "user-1", "", answers); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	// 空欄・空白のみの回答はN/Aに置き換わる
	for _, want := range []string{"✅ What I did\n作業した", "🎯 Impact\nN/A", "🧠 Learned\nN/A", "❓ Questions / Next\n次はテスト"} {
		if !strings.Contains(savedContent, want) {
			t.Errorf("Content = %q, expected to contain %q", savedContent, want)
		}
	}
}

func TestSubmit_NoUserID_NoSideEffects(t *testing.T) {
	repoCalled := false
	compileCalled := false
	repo := &mockEntryRepo{
		createFn: func(ctx context.Context, entry *model.Entry) error {
			repoCalled = true
			return nil
		},
	}
	compiler := &mockCompiler{
		compileFn: func(ctx context.Context, userID, credential string) error {
			compileCalled = true
			return nil
		},
	}

	svc := newTestService(repo, compiler)

	err := svc.Submit(context.Background(), "", "", testAnswers)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthenticated {
		t.Fatalf("Submit() error = %v, want UNAUTHENTICATED", err)
	}
	if repoCalled || compileCalled {
		t.Error("neither persistence nor compile may be invoked without a user ID")
	}
}

func TestSubmit_PersistenceFails_AbortsBeforeCompile(t *testing.T) {
	compileCalled := false
	repo := &mockEntryRepo{
		createFn: func(ctx context.Context, entry *model.Entry) error {
			return errors.New("connection refused")
		},
	}
	compiler := &mockCompiler{
		compileFn: func(ctx context.Context, userID, credential string) error {
			compileCalled = true
			return nil
		},
	}

	svc := newTestService(repo, compiler)

	err := svc.Submit(context.Background(), "user-1", "", testAnswers)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodePersistenceFailed {
		t.Fatalf("Submit() error = %v, want PERSISTENCE_FAILED", err)
	}
	if compileCalled {
		t.Error("compile must not be requested when persistence fails")
	}
}

func TestSubmit_CompileRejected_EntryRemainsPersisted(t *testing.T) {
	persisted := false
	repo := &mockEntryRepo{
		createFn: func(ctx context.Context, entry *model.Entry) error {
			persisted = true
			return nil
		},
	}
	compiler := &mockCompiler{
		compileFn: func(ctx context.Context, userID, credential string) error {
			return model.NewCompileRejectedError("x")
		},
	}

	svc := newTestService(repo, compiler)

	err := svc.Submit(context.Background(), "user-1", "", testAnswers)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCompileRejected {
		t.Fatalf("Submit() error = %v, want COMPILE_REJECTED", err)
	}
	// サービスが返したdetailがそのままメッセージになる
	if apiErr.Message != "x" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "x")
	}
	// ロールバックしない（再提出で生エントリが重複しうるのは既知の挙動）
	if !persisted {
		t.Error("entry must remain persisted after compile rejection")
	}
}

func TestSubmit_CompileUnreachable_DistinctFromRejected(t *testing.T) {
	compiler := &mockCompiler{
		compileFn: func(ctx context.Context, userID, credential string) error {
			return model.NewCompileUnreachableError()
		},
	}

	svc := newTestService(&mockEntryRepo{}, compiler)

	err := svc.Submit(context.Background(), "user-1", "", testAnswers)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeCompileUnreachable {
		t.Fatalf("Submit() error = %v, want COMPILE_UNREACHABLE", err)
	}
}
