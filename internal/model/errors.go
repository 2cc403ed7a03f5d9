package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, submission, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeEmptyAnswer        = "EMPTY_ANSWER"
	ErrCodeInvalidStep        = "INVALID_STEP"
	ErrCodeSubmissionInFlight = "SUBMISSION_IN_FLIGHT"
	ErrCodePersistenceFailed  = "PERSISTENCE_FAILED"
	ErrCodeCompileRejected    = "COMPILE_REJECTED"
	ErrCodeCompileUnreachable = "COMPILE_UNREACHABLE"
	ErrCodeLogNotFound        = "LOG_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
)

// NewUnauthenticatedError は未認証エラーを生成する。
// セッションなしで提出等の操作を行った場合に返す。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "ログインしていません。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewEmptyAnswerError は未入力のまま次へ進もうとした場合のエラーを生成する。
func NewEmptyAnswerError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyAnswer,
		Message:  "現在の質問への回答が入力されていません。",
		Category: "validation",
		Action:   "回答を入力してから次へ進んでください。",
	}
}

// NewInvalidStepError は到達済みステップより先への移動等、無効なステップ指定のエラーを生成する。
func NewInvalidStepError(step int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStep,
		Message:  fmt.Sprintf("無効なステップです: %d", step),
		Category: "validation",
		Action:   "回答済みのステップのみ選択できます。",
	}
}

// NewSubmissionInFlightError は提出処理中の重複操作エラーを生成する。
func NewSubmissionInFlightError() *APIError {
	return &APIError{
		Code:     ErrCodeSubmissionInFlight,
		Message:  "エントリを提出中です。",
		Category: "submission",
		Action:   "提出が完了するまでお待ちください。",
	}
}

// NewPersistenceFailedError はエントリの保存失敗エラーを生成する。
func NewPersistenceFailedError() *APIError {
	return &APIError{
		Code:     ErrCodePersistenceFailed,
		Message:  "エントリの保存に失敗しました。",
		Category: "submission",
		Action:   "しばらく待ってから、もう一度提出してください。",
	}
}

// NewCompileRejectedError はコンパイルサービスがリクエストを拒否した場合のエラーを生成する。
// detailにはサービスが返したエラーメッセージをそのまま渡す。
func NewCompileRejectedError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeCompileRejected,
		Message:  detail,
		Category: "submission",
		Action:   "エントリは保存されています。内容を確認のうえ再度お試しください。",
	}
}

// NewCompileUnreachableError はコンパイルサービスに到達できなかった場合のエラーを生成する。
// サービスが拒否した場合（COMPILE_REJECTED）とは区別する。
func NewCompileUnreachableError() *APIError {
	return &APIError{
		Code:     ErrCodeCompileUnreachable,
		Message:  "コンパイルサービスに接続できません。",
		Category: "system",
		Action:   "エントリは保存されています。しばらく待ってから再度お試しください。",
	}
}

// NewLogNotFoundError は週次ログが見つからない場合のエラーを生成する。
func NewLogNotFoundError(logID string) *APIError {
	return &APIError{
		Code:     ErrCodeLogNotFound,
		Message:  fmt.Sprintf("指定された週次ログが見つかりません: %s", logID),
		Category: "validation",
		Action:   "ログIDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
