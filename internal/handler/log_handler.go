package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rabiuk/stride/internal/history"
	"github.com/rabiuk/stride/internal/middleware"
	"github.com/rabiuk/stride/internal/model"
)

// HistoryServiceInterface はログハンドラーが必要とするサービスインターフェース。
type HistoryServiceInterface interface {
	// List はユーザーの週次ログ一覧をweek_start順で返す。
	List(ctx context.Context, userID string, ascending bool) ([]*history.LogSummary, error)
	// Get は指定IDの週次ログをレンダリング済みで返す。
	Get(ctx context.Context, userID, logID string) (*history.LogDetail, error)
	// PrepareDownload は指定IDの週次ログをダウンロード用に整形して返す。
	PrepareDownload(ctx context.Context, userID, logID string) (*history.Download, error)
}

// LogHandler は週次ログ閲覧のHTTPハンドラー。
type LogHandler struct {
	service HistoryServiceInterface
}

// NewLogHandler はLogHandlerを生成する。
func NewLogHandler(service HistoryServiceInterface) *LogHandler {
	return &LogHandler{
		service: service,
	}
}

// ListLogs はユーザーの週次ログ一覧を返す。
// GET /api/logs?order=asc|desc（デフォルトはdesc: 新しい週が先頭）
// ログが1件もない場合も200で空配列を返す（エラーにしない）。
func (h *LogHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	ascending := r.URL.Query().Get("order") == "asc"

	logs, err := h.service.List(r.Context(), userID, ascending)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, logs)
}

// GetLog は指定IDの週次ログをレンダリング済みで返す。
// GET /api/logs/{id}
func (h *LogHandler) GetLog(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	logID := chi.URLParam(r, "id")

	detail, err := h.service.Get(r.Context(), userID, logID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, detail)
}

// DownloadLog は指定IDの週次ログをMarkdownファイルとして返す。
// ファイル名は週の開始日から決まり、内容は保存された原文そのまま。
// GET /api/logs/{id}/download
func (h *LogHandler) DownloadLog(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	logID := chi.URLParam(r, "id")

	dl, err := h.service.PrepareDownload(r.Context(), userID, logID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, dl.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(dl.Content)
}

// SetupLogRoutes は週次ログ関連のルーティングを設定したchi.Routerを返す。
func SetupLogRoutes(service HistoryServiceInterface) http.Handler {
	r := chi.NewRouter()
	h := NewLogHandler(service)

	r.Route("/api/logs", func(r chi.Router) {
		r.Get("/", h.ListLogs)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetLog)
			r.Get("/download", h.DownloadLog)
		})
	})

	return r
}
