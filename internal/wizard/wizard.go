// Package wizard はエントリ入力ウィザードのステートマシンを提供する。
// 固定の4つの質問を1つずつ提示し、回答を週次エントリ用の
// 整形済みドキュメントに組み立てる。
package wizard

import (
	"strings"

	"github.com/rabiuk/stride/internal/model"
)

// StepCount はウィザードの質問数。
const StepCount = 4

// Step はウィザードの1ステップ（質問）を表す。
// Labelは組み立て後のドキュメントで使用するセクション見出し。
type Step struct {
	Key    string
	Prompt string
	Label  string
}

// steps は固定の質問リスト。順序・内容ともに不変。
var steps = [StepCount]Step{
	{Key: "whatIdid", Prompt: "What did you work on today?", Label: "✅ What I did"},
	{Key: "impact", Prompt: "What was the impact?", Label: "🎯 Impact"},
	{Key: "learned", Prompt: "What did you learn?", Label: "🧠 Learned"},
	{Key: "questionsNext", Prompt: "Any questions or next steps?", Label: "❓ Questions / Next"},
}

// Steps は固定の質問リストのコピーを返す。
func Steps() [StepCount]Step {
	return steps
}

// Status は提出処理の状態を表す。
type Status string

const (
	// StatusIdle は提出処理が行われていない状態。
	StatusIdle Status = "idle"
	// StatusSubmitting は提出処理が進行中の状態。
	// 重複クリックによる再提出を防ぐための唯一のガード。
	StatusSubmitting Status = "submitting"
)

// Draft は1回のエントリ入力セッションの状態を表す。
// 提出成功または破棄まで一時的に存在し、永続化されない。
// 不変条件: 0 <= Current <= Furthest < StepCount。
type Draft struct {
	Answers  [StepCount]string
	Current  int
	Furthest int
	Status   Status
}

// NewDraft は先頭ステップを指す新しいDraftを生成する。
func NewDraft() *Draft {
	return &Draft{Status: StatusIdle}
}

// CurrentStep は現在提示中の質問を返す。
func (d *Draft) CurrentStep() Step {
	return steps[d.Current]
}

// OnFinalStep は現在のステップが最終質問かを返す。
func (d *Draft) OnFinalStep() bool {
	return d.Current == StepCount-1
}

// SetAnswer は現在のステップの回答を上書きする。
// 内容の検証は行わない（空回答のゲートはAdvance側）。
func (d *Draft) SetAnswer(text string) {
	d.Answers[d.Current] = text
}

// Advance は次のステップへ進む。最終ステップの場合は提出シグナル
// （submit=true）を返し、状態は変更しない。
// 現在の回答が空白のみの場合、または提出処理中の場合は進まずエラーを返す。
func (d *Draft) Advance() (submit bool, err error) {
	if d.Status == StatusSubmitting {
		return false, model.NewSubmissionInFlightError()
	}
	if strings.TrimSpace(d.Answers[d.Current]) == "" {
		return false, model.NewEmptyAnswerError()
	}
	if d.OnFinalStep() {
		return true, nil
	}

	d.Current++
	if d.Current > d.Furthest {
		d.Furthest = d.Current
	}
	return false, nil
}

// JumpTo は指定ステップへ移動する。
// 到達済みステップ（step <= Furthest）への移動のみ許可する。
// 未回答の先のステップへのスキップは常に拒否する。
func (d *Draft) JumpTo(step int) error {
	if step < 0 || step > d.Furthest {
		return model.NewInvalidStepError(step)
	}
	d.Current = step
	return nil
}

// AssembleDocument は4つの回答を固定順のラベル付きセクションに結合する。
// trim後に空となる回答は "N/A" に置き換える。
// 空でない回答はtrimせずそのまま埋め込む。
func AssembleDocument(answers [StepCount]string) string {
	sections := make([]string, 0, StepCount)
	for i, step := range steps {
		answer := answers[i]
		if strings.TrimSpace(answer) == "" {
			answer = "N/A"
		}
		sections = append(sections, step.Label+"\n"+answer)
	}
	return strings.Join(sections, "\n\n")
}
