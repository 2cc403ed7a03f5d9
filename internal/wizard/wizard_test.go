package wizard

import (
	"errors"
	"strings"
	"testing"

	"github.com/rabiuk/stride/internal/model"
)

// 新規ドラフトは先頭ステップ・idle状態で始まることを検証
func TestNewDraft_InitialState(t *testing.T) {
	d := NewDraft()

	if d.Current != 0 {
		t.Errorf("Current = %d, want 0", d.Current)
	}
	if d.Furthest != 0 {
		t.Errorf("Furthest = %d, want 0", d.Furthest)
	}
	if d.Status != StatusIdle {
		t.Errorf("Status = %q, want %q", d.Status, StatusIdle)
	}
}

// 回答済みならAdvanceで次ステップへ進み、Furthestが追従することを検証
func TestAdvance_MovesForwardAndRaisesFurthest(t *testing.T) {
	d := NewDraft()
	d.SetAnswer("implemented the submission pipeline")

	submit, err := d.Advance()
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if submit {
		t.Error("Advance() from non-final step must never signal submission")
	}
	if d.Current != 1 {
		t.Errorf("Current = %d, want 1", d.Current)
	}
	if d.Furthest != 1 {
		t.Errorf("Furthest = %d, want 1", d.Furthest)
	}
}

// 空白のみの回答ではAdvanceが拒否されることを検証
func TestAdvance_WhitespaceOnlyAnswer_Blocked(t *testing.T) {
	d := NewDraft()
	d.SetAnswer("   \n\t ")

	_, err := d.Advance()
	if err == nil {
		t.Fatal("expected error for whitespace-only answer")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeEmptyAnswer {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeEmptyAnswer)
	}
	if d.Current != 0 {
		t.Errorf("Current = %d, want 0 (no movement)", d.Current)
	}
}

// 提出処理中はAdvanceが拒否されることを検証
func TestAdvance_WhileSubmitting_Blocked(t *testing.T) {
	d := NewDraft()
	d.SetAnswer("some answer")
	d.Status = StatusSubmitting

	_, err := d.Advance()
	if err == nil {
		t.Fatal("expected error while submitting")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSubmissionInFlight {
		t.Errorf("error = %v, want code %s", err, model.ErrCodeSubmissionInFlight)
	}
}

// 最終ステップのAdvanceは提出シグナルを返し、状態を変えないことを検証
func TestAdvance_FinalStep_SignalsSubmission(t *testing.T) {
	d := NewDraft()
	for i := 0; i < StepCount-1; i++ {
		d.SetAnswer("answer")
		if _, err := d.Advance(); err != nil {
			t.Fatalf("Advance() step %d error = %v", i, err)
		}
	}
	if !d.OnFinalStep() {
		t.Fatalf("Current = %d, want final step", d.Current)
	}

	d.SetAnswer("final answer")
	submit, err := d.Advance()
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if !submit {
		t.Error("expected submission signal on final step")
	}
	if d.Current != StepCount-1 {
		t.Errorf("Current = %d, want %d (unchanged)", d.Current, StepCount-1)
	}
}

// すべてのステップ列において、JumpToはstep <= Furthestの場合に限り成功することを検証
func TestJumpTo_SucceedsIffWithinFurthest(t *testing.T) {
	d := NewDraft()
	d.SetAnswer("a")
	d.Advance()
	d.SetAnswer("b")
	d.Advance() // Furthest = 2

	for step := -1; step <= StepCount; step++ {
		err := d.JumpTo(step)
		allowed := step >= 0 && step <= d.Furthest
		if allowed && err != nil {
			t.Errorf("JumpTo(%d) error = %v, want nil", step, err)
		}
		if !allowed && err == nil {
			t.Errorf("JumpTo(%d) succeeded, want error", step)
		}
	}
}

// 過去のステップへ戻って回答を上書きできることを検証
func TestJumpTo_RevisitAndOverwrite(t *testing.T) {
	d := NewDraft()
	d.SetAnswer("first version")
	d.Advance()

	if err := d.JumpTo(0); err != nil {
		t.Fatalf("JumpTo(0) error = %v", err)
	}
	d.SetAnswer("revised version")

	if d.Answers[0] != "revised version" {
		t.Errorf("Answers[0] = %q, want %q", d.Answers[0], "revised version")
	}
	if d.Furthest != 1 {
		t.Errorf("Furthest = %d, want 1 (preserved after revisit)", d.Furthest)
	}
}

// ドキュメントが4つのラベル付きセクションを固定順で含むことを検証
func TestAssembleDocument_FourLabeledSections(t *testing.T) {
	doc := AssembleDocument([StepCount]string{
		"built the history API",
		"users can browse digests",
		"goldmark renderer internals",
		"pagination next week?",
	})

	want := "✅ What I did\nbuilt the history API\n\n" +
		"🎯 Impact\nusers can browse digests\n\n" +
		"🧠 Learned\ngoldmark renderer internals\n\n" +
		"❓ Questions / Next\npagination next week?"
	if doc != want {
		t.Errorf("AssembleDocument() = %q, want %q", doc, want)
	}
}

// trim後に空の回答がN/Aに置き換わることを検証
func TestAssembleDocument_EmptyAnswersBecomeNA(t *testing.T) {
	doc := AssembleDocument([StepCount]string{"worked", "", "   ", "\t\n"})

	for _, label := range []string{"🎯 Impact\nN/A", "🧠 Learned\nN/A", "❓ Questions / Next\nN/A"} {
		if !strings.Contains(doc, label) {
			t.Errorf("document missing %q:\n%s", label, doc)
		}
	}
	if !strings.Contains(doc, "✅ What I did\nworked") {
		t.Errorf("document missing non-empty answer:\n%s", doc)
	}
}

// 空でない回答はtrimされずそのまま埋め込まれることを検証
func TestAssembleDocument_NonEmptyAnswersNotTrimmed(t *testing.T) {
	doc := AssembleDocument([StepCount]string{"  padded  ", "x", "x", "x"})

	if !strings.Contains(doc, "✅ What I did\n  padded  ") {
		t.Errorf("expected untrimmed answer preserved:\n%s", doc)
	}
}

// 質問リストが仕様の4問・固定順であることを検証
func TestSteps_FixedOrder(t *testing.T) {
	s := Steps()

	wantKeys := [StepCount]string{"whatIdid", "impact", "learned", "questionsNext"}
	for i, key := range wantKeys {
		if s[i].Key != key {
			t.Errorf("Steps()[%d].Key = %q, want %q", i, s[i].Key, key)
		}
	}
}
