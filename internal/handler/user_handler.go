package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rabiuk/stride/internal/middleware"
	"github.com/rabiuk/stride/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Withdraw はユーザーの退会処理を実行する。
	// compiled_logs、entries、sessions、user（+CASCADE: identities）を一括削除する。
	Withdraw(ctx context.Context, userID string) error
}

// UserFinder はユーザー情報の取得インターフェース。
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// AvatarFetcher はアバター画像の取得インターフェース。
type AvatarFetcher interface {
	FetchAvatar(ctx context.Context, avatarURL string) (data []byte, mimeType string, err error)
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service    UserServiceInterface
	userFinder UserFinder
	avatars    AvatarFetcher
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, userFinder UserFinder, avatars AvatarFetcher) *UserHandler {
	return &UserHandler{
		service:    service,
		userFinder: userFinder,
		avatars:    avatars,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Avatar はIdPのアバター画像をSSRF防止付きで中継する。
// 取得できない場合は404を返し、UI側はフォールバック表示に切り替える。
// GET /api/users/me/avatar
func (h *UserHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	u, err := h.userFinder.FindByID(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if u == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	data, mimeType, err := h.avatars.FetchAvatar(r.Context(), u.AvatarURL)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if data == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// SetupUserRoutes はユーザー管理関連のルーティングを設定したchi.Routerを返す。
func SetupUserRoutes(service UserServiceInterface, userFinder UserFinder, avatars AvatarFetcher) http.Handler {
	r := chi.NewRouter()
	h := NewUserHandler(service, userFinder, avatars)

	r.Route("/api/users", func(r chi.Router) {
		r.Delete("/me", h.Withdraw)
		r.Get("/me/avatar", h.Avatar)
	})

	return r
}
