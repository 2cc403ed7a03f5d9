package model

import "time"

// Entry は1回の提出で保存される生の日次記録を表す。
// Contentはウィザードの4回答を結合した整形済みドキュメント。
// 作成後は不変で、このサービスから読み戻されることはない。
type Entry struct {
	ID        string
	UserID    string
	Content   string
	CreatedAt time.Time
}

// CompiledLog は1週間分のエントリから生成された週次ダイジェストを表す。
// 外部のコンパイルサービスのみが作成・更新し、このサービスからは読み取り専用。
// (user_id, week_start) の組で一意（外部サービス側の規約）。
type CompiledLog struct {
	ID           string
	UserID       string
	WeekStart    string // "YYYY-MM-DD" 形式の週の開始日（月曜日）
	MarkdownBlob string
	CreatedAt    time.Time
}

// WeekStart は指定時刻が属する週の開始日（月曜日、UTC）を返す。
// コンパイルサービスの週区切り（today - weekday、月曜=0）と一致させる。
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	day := t.AddDate(0, 0, -offset)
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
}
