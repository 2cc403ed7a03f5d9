package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rabiuk/stride/internal/history"
	"github.com/rabiuk/stride/internal/model"
)

type mockHistoryService struct {
	listFn            func(ctx context.Context, userID string, ascending bool) ([]*history.LogSummary, error)
	getFn             func(ctx context.Context, userID, logID string) (*history.LogDetail, error)
	prepareDownloadFn func(ctx context.Context, userID, logID string) (*history.Download, error)
}

func (m *mockHistoryService) List(ctx context.Context, userID string, ascending bool) ([]*history.LogSummary, error) {
	return m.listFn(ctx, userID, ascending)
}

func (m *mockHistoryService) Get(ctx context.Context, userID, logID string) (*history.LogDetail, error) {
	return m.getFn(ctx, userID, logID)
}

func (m *mockHistoryService) PrepareDownload(ctx context.Context, userID, logID string) (*history.Download, error) {
	return m.prepareDownloadFn(ctx, userID, logID)
}

var _ HistoryServiceInterface = (*mockHistoryService)(nil)

func TestListLogs_DefaultOrderIsDescending(t *testing.T) {
	var gotAscending bool
	service := &mockHistoryService{
		listFn: func(ctx context.Context, userID string, ascending bool) ([]*history.LogSummary, error) {
			gotAscending = ascending
			return []*history.LogSummary{
				{ID: "log-1", WeekStart: "2026-08-24", Preview: "先週の要約", CreatedAt: time.Now()},
			}, nil
		},
	}

	router := SetupLogRoutes(service)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/logs", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotAscending {
		t.Error("order param omitted: ascending = true, want false")
	}

	var logs []*history.LogSummary
	if err := json.NewDecoder(w.Body).Decode(&logs); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(logs) != 1 || logs[0].ID != "log-1" {
		t.Errorf("logs = %+v, want 1 entry log-1", logs)
	}
}

func TestListLogs_OrderAsc(t *testing.T) {
	var gotAscending bool
	service := &mockHistoryService{
		listFn: func(ctx context.Context, userID string, ascending bool) ([]*history.LogSummary, error) {
			gotAscending = ascending
			return []*history.LogSummary{}, nil
		},
	}

	router := SetupLogRoutes(service)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/logs?order=asc", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !gotAscending {
		t.Error("order=asc: ascending = false, want true")
	}
}

func TestListLogs_Empty_Returns200WithEmptyArray(t *testing.T) {
	service := &mockHistoryService{
		listFn: func(ctx context.Context, userID string, ascending bool) ([]*history.LogSummary, error) {
			return []*history.LogSummary{}, nil
		},
	}

	router := SetupLogRoutes(service)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/logs", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != "[]\n" {
		t.Errorf("body = %q, want empty JSON array", got)
	}
}

func TestListLogs_NoUserID_Returns401(t *testing.T) {
	router := SetupLogRoutes(&mockHistoryService{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/logs", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestGetLog_ReturnsRenderedDetail(t *testing.T) {
	service := &mockHistoryService{
		getFn: func(ctx context.Context, userID, logID string) (*history.LogDetail, error) {
			if logID != "log-1" {
				t.Errorf("logID = %q, want log-1", logID)
			}
			return &history.LogDetail{
				ID:           "log-1",
				WeekStart:    "2026-08-24",
				MarkdownBlob: "## Week\n内容",
				HTML:         "<h2>Week</h2><p>内容</p>",
				CreatedAt:    time.Now(),
			}, nil
		},
	}

	router := SetupLogRoutes(service)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/logs/log-1", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var detail history.LogDetail
	if err := json.NewDecoder(w.Body).Decode(&detail); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if detail.HTML == "" || detail.MarkdownBlob == "" {
		t.Errorf("detail must include both raw markdown and rendered HTML: %+v", detail)
	}
}

func TestGetLog_NotFound_Returns404(t *testing.T) {
	service := &mockHistoryService{
		getFn: func(ctx context.Context, userID, logID string) (*history.LogDetail, error) {
			return nil, model.NewLogNotFoundError(logID)
		},
	}

	router := SetupLogRoutes(service)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/logs/missing", ""))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if body := decodeErrorBody(t, w); body.Code != model.ErrCodeLogNotFound {
		t.Errorf("code = %q, want LOG_NOT_FOUND", body.Code)
	}
}

func TestDownloadLog_SetsAttachmentHeaders(t *testing.T) {
	content := "## Weekly Log (2026-08-24)\n\n✅ What I did\nAPI実装\n"
	service := &mockHistoryService{
		prepareDownloadFn: func(ctx context.Context, userID, logID string) (*history.Download, error) {
			return &history.Download{
				Filename: "weekly-log-2026-08-24.md",
				Content:  []byte(content),
			}, nil
		},
	}

	router := SetupLogRoutes(service)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest(http.MethodGet, "/api/logs/log-1/download", ""))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "text/markdown; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="weekly-log-2026-08-24.md"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	// ダウンロード内容は保存された原文そのまま
	if w.Body.String() != content {
		t.Errorf("body = %q, want exact stored text", w.Body.String())
	}
}
