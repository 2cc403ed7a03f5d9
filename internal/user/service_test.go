package user

import (
	"context"
	"errors"
	"testing"

	"github.com/rabiuk/stride/internal/model"
	"github.com/rabiuk/stride/internal/repository"
)

type mockUserRepo struct {
	findByIDFn   func(ctx context.Context, id string) (*model.User, error)
	deleteByIDFn func(ctx context.Context, id string) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return &model.User{ID: id}, nil
}

func (m *mockUserRepo) CreateWithIdentity(_ context.Context, _ *model.User, _ *model.Identity) error {
	return nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, _, _, _ string) error {
	return nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

type mockSessionRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(_ context.Context, _ *model.Session) error { return nil }

func (m *mockSessionRepo) FindByID(_ context.Context, _ string) (*model.Session, error) {
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(_ context.Context, _ string) error { return nil }

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

type mockDeleter struct {
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockDeleter) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)
var _ repository.SessionRepository = (*mockSessionRepo)(nil)
var _ EntryDeleter = (*mockDeleter)(nil)
var _ CompiledLogDeleter = (*mockDeleter)(nil)

func TestWithdraw_DeletesInOrder(t *testing.T) {
	var order []string

	userRepo := &mockUserRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			order = append(order, "user")
			return nil
		},
	}
	sessionRepo := &mockSessionRepo{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			order = append(order, "sessions")
			return nil
		},
	}
	entryDel := &mockDeleter{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			order = append(order, "entries")
			return nil
		},
	}
	logDel := &mockDeleter{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			order = append(order, "compiled_logs")
			return nil
		},
	}

	svc := NewService(userRepo, sessionRepo, entryDel, logDel)

	if err := svc.Withdraw(context.Background(), "user-1"); err != nil {
		t.Fatalf("Withdraw() error = %v", err)
	}

	want := []string{"compiled_logs", "entries", "sessions", "user"}
	if len(order) != len(want) {
		t.Fatalf("deletion order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("deletion order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestWithdraw_UserNotFound_ReturnsError(t *testing.T) {
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, nil
		},
	}

	svc := NewService(userRepo, &mockSessionRepo{}, &mockDeleter{}, &mockDeleter{})

	err := svc.Withdraw(context.Background(), "missing")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Fatalf("Withdraw() error = %v, want USER_NOT_FOUND", err)
	}
}

func TestWithdraw_EntryDeletionFails_StopsBeforeUserDeletion(t *testing.T) {
	userDeleted := false
	userRepo := &mockUserRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			userDeleted = true
			return nil
		},
	}
	entryDel := &mockDeleter{
		deleteByUserIDFn: func(ctx context.Context, userID string) error {
			return errors.New("delete failed")
		},
	}

	svc := NewService(userRepo, &mockSessionRepo{}, entryDel, &mockDeleter{})

	if err := svc.Withdraw(context.Background(), "user-1"); err == nil {
		t.Fatal("expected error when entry deletion fails")
	}
	if userDeleted {
		t.Error("user must not be deleted when a dependent deletion fails")
	}
}
