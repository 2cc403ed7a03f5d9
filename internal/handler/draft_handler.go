// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rabiuk/stride/internal/middleware"
	"github.com/rabiuk/stride/internal/model"
	"github.com/rabiuk/stride/internal/wizard"
)

// EntrySubmitter はドラフトハンドラーが必要とする提出パイプラインのインターフェース。
type EntrySubmitter interface {
	// Submit は4回答を1件のエントリとして提出する。
	Submit(ctx context.Context, userID, credential string, answers [wizard.StepCount]string) error
}

// DraftHandler はエントリ入力ウィザードのHTTPハンドラー。
// ドラフト状態はインメモリストアに保持し、最終ステップでのadvanceが
// 提出パイプラインを起動する。
type DraftHandler struct {
	store     *wizard.Store
	submitter EntrySubmitter
}

// NewDraftHandler はDraftHandlerを生成する。
func NewDraftHandler(store *wizard.Store, submitter EntrySubmitter) *DraftHandler {
	return &DraftHandler{
		store:     store,
		submitter: submitter,
	}
}

// --- リクエスト/レスポンス型 ---

// stepResponse はウィザードの1質問のレスポンス。
type stepResponse struct {
	Key    string `json:"key"`
	Prompt string `json:"prompt"`
}

// draftResponse はドラフト状態のレスポンス。
type draftResponse struct {
	Steps       []stepResponse           `json:"steps"`
	Current     int                      `json:"current"`
	Furthest    int                      `json:"furthest"`
	Answers     [wizard.StepCount]string `json:"answers"`
	Status      string                   `json:"status"`
	OnFinalStep bool                     `json:"on_final_step"`
}

// setAnswerRequest は回答上書きリクエストのボディ。
type setAnswerRequest struct {
	Text string `json:"text"`
}

// jumpRequest はステップ移動リクエストのボディ。
type jumpRequest struct {
	Step int `json:"step"`
}

// advanceResponse はadvance操作のレスポンス。
// 提出が起動された場合はsubmitted=trueとなり、ドラフトは破棄済み。
type advanceResponse struct {
	draftResponse
	Submitted bool `json:"submitted"`
}

func toDraftResponse(d wizard.Draft) draftResponse {
	stepList := make([]stepResponse, 0, wizard.StepCount)
	for _, s := range wizard.Steps() {
		stepList = append(stepList, stepResponse{Key: s.Key, Prompt: s.Prompt})
	}
	return draftResponse{
		Steps:       stepList,
		Current:     d.Current,
		Furthest:    d.Furthest,
		Answers:     d.Answers,
		Status:      string(d.Status),
		OnFinalStep: d.OnFinalStep(),
	}
}

// GetDraft は現在のドラフト状態を返す。
// GET /api/draft
func (h *DraftHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	writeJSONResponse(w, http.StatusOK, toDraftResponse(h.store.Get(userID)))
}

// SetAnswer は現在のステップの回答を上書きする。
// PUT /api/draft/answer
func (h *DraftHandler) SetAnswer(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req setAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディが不正です。",
			Category: "validation",
			Action:   "リクエスト形式を確認してください。",
		})
		return
	}

	writeJSONResponse(w, http.StatusOK, toDraftResponse(h.store.SetAnswer(userID, req.Text)))
}

// Advance はドラフトを次のステップへ進める。
// 最終ステップの場合は提出パイプラインを起動する。
// POST /api/draft/advance
func (h *DraftHandler) Advance(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	draft, submit, err := h.store.Advance(userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if !submit {
		writeJSONResponse(w, http.StatusOK, advanceResponse{draftResponse: toDraftResponse(draft)})
		return
	}

	h.submit(w, r, userID)
}

// submit は提出パイプラインを起動する。
// 提出中フラグはストア側のBeginSubmit/EndSubmitで管理する。
func (h *DraftHandler) submit(w http.ResponseWriter, r *http.Request, userID string) {
	answers, err := h.store.BeginSubmit(userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// セッションIDをコンパイルサービスへの資格情報として渡す
	credential, _ := middleware.SessionIDFromContext(r.Context())

	submitErr := h.submitter.Submit(r.Context(), userID, credential, answers)
	h.store.EndSubmit(userID, submitErr == nil)

	if submitErr != nil {
		handleServiceError(w, submitErr)
		return
	}

	// 成功: ドラフトは破棄済み。新しい空ドラフトを返す。
	writeJSONResponse(w, http.StatusOK, advanceResponse{
		draftResponse: toDraftResponse(h.store.Get(userID)),
		Submitted:     true,
	})
}

// Jump は到達済みステップへ移動する。
// POST /api/draft/jump
func (h *DraftHandler) Jump(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	var req jumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディが不正です。",
			Category: "validation",
			Action:   "リクエスト形式を確認してください。",
		})
		return
	}

	draft, err := h.store.JumpTo(userID, req.Step)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toDraftResponse(draft))
}

// Discard はドラフトを破棄する（画面遷移等による放棄）。
// DELETE /api/draft
func (h *DraftHandler) Discard(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	h.store.Discard(userID)
	w.WriteHeader(http.StatusNoContent)
}

// SetupDraftRoutes はドラフト関連のルーティングを設定したchi.Routerを返す。
func SetupDraftRoutes(store *wizard.Store, submitter EntrySubmitter) http.Handler {
	r := chi.NewRouter()
	h := NewDraftHandler(store, submitter)

	r.Route("/api/draft", func(r chi.Router) {
		r.Get("/", h.GetDraft)
		r.Put("/answer", h.SetAnswer)
		r.Post("/advance", h.Advance)
		r.Post("/jump", h.Jump)
		r.Delete("/", h.Discard)
	})

	return r
}

// --- 共通ヘルパー ---

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeEmptyAnswer, model.ErrCodeInvalidStep:
		return http.StatusBadRequest
	case model.ErrCodeSubmissionInFlight:
		return http.StatusConflict
	case model.ErrCodePersistenceFailed:
		return http.StatusInternalServerError
	case model.ErrCodeCompileRejected:
		return http.StatusBadGateway
	case model.ErrCodeCompileUnreachable:
		return http.StatusServiceUnavailable
	case model.ErrCodeLogNotFound:
		return http.StatusNotFound
	case model.ErrCodeUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
