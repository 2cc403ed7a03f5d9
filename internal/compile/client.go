// Package compile は外部の週次コンパイルサービスとの連携を提供する。
// コンパイルアルゴリズム自体は外部サービスの責務であり、
// このパッケージはトリガー呼び出しとエラー分類のみを行う。
package compile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rabiuk/stride/internal/model"
)

// compilePath はコンパイルサービスのエンドポイントパス。
const compilePath = "/compile-weekly-log/"

// Client は週次コンパイルサービスのHTTPクライアント。
// POST /compile-weekly-log/ に {user_id} を送信し、対象ユーザーの
// 当該週のエントリからダイジェストを生成させる。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLはコンパイルサービスのベースURL（末尾スラッシュなし）。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// compileRequest はコンパイルサービスへのリクエストボディ。
type compileRequest struct {
	UserID string `json:"user_id"`
}

// compileFailure はコンパイルサービスの失敗レスポンスボディ。
type compileFailure struct {
	Detail string `json:"detail"`
}

// Compile は指定ユーザーの週次コンパイルをトリガーする。
// credentialはAuthorizationヘッダーに付与するBearerトークン
// （対話的な提出では呼び出し元のセッションID、ワーカーではサービストークン）。
//
// エラー分類:
//   - サービスが非2xxを返した場合: レスポンスの detail を含む COMPILE_REJECTED
//   - リクエスト自体が完了しなかった場合: COMPILE_UNREACHABLE
func (c *Client) Compile(ctx context.Context, userID, credential string) error {
	payload, err := json.Marshal(compileRequest{UserID: userID})
	if err != nil {
		return fmt.Errorf("リクエストボディの生成に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+compilePath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("コンパイルサービスへの接続に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return model.NewCompileUnreachableError()
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// 失敗レスポンスは {detail} 形式のJSONボディを持つ
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	detail := ""
	if readErr == nil {
		var failure compileFailure
		if err := json.Unmarshal(body, &failure); err == nil {
			detail = failure.Detail
		}
	}
	if detail == "" {
		detail = fmt.Sprintf("コンパイルサービスがステータス %d を返しました", resp.StatusCode)
	}

	c.logger.Error("コンパイルサービスがリクエストを拒否しました",
		slog.String("user_id", userID),
		slog.Int("http_status", resp.StatusCode),
		slog.String("detail", detail),
	)
	return model.NewCompileRejectedError(detail)
}
