package wizard

import (
	"sync"
	"time"

	"github.com/rabiuk/stride/internal/model"
)

// defaultDraftTTL は最終更新からドラフトを破棄するまでの期間。
const defaultDraftTTL = 24 * time.Hour

// draftEntry はストア内のドラフトと最終更新時刻を保持する。
type draftEntry struct {
	draft     *Draft
	updatedAt time.Time
}

// Store はユーザーごとのドラフトを保持するインメモリストア。
// ドラフトは一時状態であり、プロセス再起動で消えることを許容する
// （元の設計と同じく、入力途中の状態は永続化しない）。
type Store struct {
	mu     sync.Mutex
	drafts map[string]*draftEntry
	ttl    time.Duration
	now    func() time.Time // テスト用に差し替え可能
}

// NewStore はStoreを生成する。ttlが0以下の場合はデフォルト値を使用する。
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	return &Store{
		drafts: make(map[string]*draftEntry),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Get はユーザーのドラフトのスナップショットを返す。
// 存在しない、または期限切れの場合は新しいドラフトを作成する。
func (s *Store) Get(userID string) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.getOrCreate(userID).draft
}

// SetAnswer は現在のステップの回答を上書きする。
func (s *Store) SetAnswer(userID, text string) Draft {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.getOrCreate(userID)
	e.draft.SetAnswer(text)
	e.updatedAt = s.now()
	return *e.draft
}

// Advance はドラフトを次のステップへ進める。
// 最終ステップの場合はsubmit=trueを返し、状態は変更しない。
func (s *Store) Advance(userID string) (Draft, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.getOrCreate(userID)
	submit, err := e.draft.Advance()
	if err != nil {
		return *e.draft, false, err
	}
	e.updatedAt = s.now()
	return *e.draft, submit, nil
}

// JumpTo は到達済みステップへ移動する。
func (s *Store) JumpTo(userID string, step int) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.getOrCreate(userID)
	if err := e.draft.JumpTo(step); err != nil {
		return *e.draft, err
	}
	e.updatedAt = s.now()
	return *e.draft, nil
}

// BeginSubmit はドラフトを提出中状態に遷移させ、回答のスナップショットを返す。
// 既に提出中の場合はエラーを返す（重複クリックガード）。
func (s *Store) BeginSubmit(userID string) ([StepCount]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.getOrCreate(userID)
	if e.draft.Status == StatusSubmitting {
		return e.draft.Answers, model.NewSubmissionInFlightError()
	}
	e.draft.Status = StatusSubmitting
	e.updatedAt = s.now()
	return e.draft.Answers, nil
}

// EndSubmit は提出処理の完了を記録する。
// 成功時はドラフトを破棄し、失敗時はidleに戻して再提出可能にする。
func (s *Store) EndSubmit(userID string, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.drafts[userID]
	if !ok {
		return
	}
	if success {
		delete(s.drafts, userID)
		return
	}
	e.draft.Status = StatusIdle
	e.updatedAt = s.now()
}

// Discard はユーザーのドラフトを破棄する（画面遷移等による放棄）。
func (s *Store) Discard(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, userID)
}

// PurgeExpired は期限切れドラフトを削除し、削除件数を返す。
// クリーンアップジョブから定期的に呼び出される。
func (s *Store) PurgeExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	purged := 0
	for userID, e := range s.drafts {
		if now.Sub(e.updatedAt) > s.ttl {
			delete(s.drafts, userID)
			purged++
		}
	}
	return purged
}

// getOrCreate はユーザーのドラフトを取得し、存在しないか期限切れなら新規作成する。
// 呼び出し元でロックを保持していること。
func (s *Store) getOrCreate(userID string) *draftEntry {
	if e, ok := s.drafts[userID]; ok {
		if s.now().Sub(e.updatedAt) <= s.ttl {
			return e
		}
		delete(s.drafts, userID)
	}
	e := &draftEntry{draft: NewDraft(), updatedAt: s.now()}
	s.drafts[userID] = e
	return e
}
