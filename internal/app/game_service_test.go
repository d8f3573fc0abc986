package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qmin9339-glitch/choseong/internal/app"
	"github.com/qmin9339-glitch/choseong/internal/domain"
	"github.com/qmin9339-glitch/choseong/internal/game"
	"github.com/qmin9339-glitch/choseong/internal/identity"
	"github.com/qmin9339-glitch/choseong/internal/infra/memory"
)

func testBank() []domain.Question {
	return []domain.Question{
		{ID: "q1", Clue: "ㅅㅂ", Category: "과일", Answer: "수박"},
		{ID: "q2", Clue: "ㄸㄱ", Category: "과일", Answer: "딸기"},
	}
}

func newTestService(store app.ProfileStore) *app.GameService {
	repo := memory.NewQuestionRepository(memory.NewStaticBankLoader(testBank()), time.Minute)
	return app.NewGameService(identity.Static{ID: "anon"}, store, repo, app.Options{
		Rules: game.Rules{
			RoundSize:    2,
			StartTime:    10,
			BasePoints:   10,
			CorrectDelay: 5 * time.Millisecond,
			WrongDelay:   5 * time.Millisecond,
		},
	})
}

func TestResolveIdentityGating(t *testing.T) {
	store := memory.NewProfileStore()
	repo := memory.NewQuestionRepository(memory.NewStaticBankLoader(testBank()), time.Minute)
	service := app.NewGameService(identity.Static{}, store, repo, app.Options{})

	if _, err := service.ResolveIdentity(""); !errors.Is(err, domain.ErrIdentityNotReady) {
		t.Fatalf("expected gating error, got %v", err)
	}
	id, err := service.ResolveIdentity("client-7")
	if err != nil || id != "client-7" {
		t.Fatalf("client-supplied id must pass through, got %q err=%v", id, err)
	}
}

func TestEnsureProfileCreatesOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProfileStore()
	service := newTestService(store)

	created, err := service.EnsureProfile(ctx, "u1", "Alice")
	if err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	if created.Nickname != "Alice" || created.HighScore != 0 {
		t.Fatalf("unexpected new profile: %+v", created)
	}

	again, err := service.EnsureProfile(ctx, "u1", "SomeoneElse")
	if err != nil {
		t.Fatalf("ensure profile again: %v", err)
	}
	if again.Nickname != "Alice" {
		t.Fatalf("existing profile must win, got %+v", again)
	}

	anon, err := service.EnsureProfile(ctx, "u2", "")
	if err != nil {
		t.Fatalf("ensure anon profile: %v", err)
	}
	if anon.Nickname == "" {
		t.Fatalf("expected generated nickname")
	}
}

func TestFullSessionPersistsHighScore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProfileStore()
	service := newTestService(store)

	results := make(chan domain.SessionResult, 1)
	session, profile, err := service.StartSession(ctx, "u1", "Alice", func(r domain.SessionResult) {
		results <- r
	})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	defer session.Close()
	if profile.HighScore != 0 {
		t.Fatalf("fresh profile must start at 0, got %d", profile.HighScore)
	}

	answers := map[string]string{"ㅅㅂ": "수박", "ㄸㄱ": "딸기"}
	session.Start()
	for i := 0; i < 2; i++ {
		snap := waitForPhase(t, session, game.PhasePlaying)
		session.Submit(answers[snap.Clue])
	}

	var result domain.SessionResult
	select {
	case result = <-results:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for session result")
	}
	if !result.NewHighScore || result.FinalScore <= 0 {
		t.Fatalf("expected improved result, got %+v", result)
	}

	// The write-through is async and best-effort; poll for it.
	deadline := time.Now().Add(2 * time.Second)
	for {
		persisted, err := store.ReadProfile(ctx, "u1")
		if err == nil && persisted.HighScore == result.FinalScore {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("high score never persisted, last profile %+v err=%v", persisted, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestInsufficientBankFailsStart(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProfileStore()
	repo := memory.NewQuestionRepository(memory.NewStaticBankLoader(testBank()), time.Minute)
	service := app.NewGameService(identity.Static{ID: "anon"}, store, repo, app.Options{
		Rules: game.Rules{RoundSize: 50},
	})

	_, _, err := service.StartSession(ctx, "u1", "", nil)
	if !errors.Is(err, domain.ErrInsufficientQuestions) {
		t.Fatalf("expected ErrInsufficientQuestions, got %v", err)
	}
}

func TestSubscribeLeaderboardDerivesRankings(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProfileStore()
	service := newTestService(store)

	if _, err := service.EnsureProfile(ctx, "u1", "Alice"); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}

	rankings, cancel, err := service.SubscribeLeaderboard(ctx, "u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	initial := receiveRanking(t, rankings)
	if len(initial.Entries) != 1 || initial.OwnRank != 1 {
		t.Fatalf("expected initial ranking with self on top, got %+v", initial)
	}

	if err := store.UpdateHighScore(ctx, "u1", 42); err != nil {
		t.Fatalf("update: %v", err)
	}
	update := receiveRanking(t, rankings)
	if update.OwnScore != 42 {
		t.Fatalf("expected updated score 42, got %+v", update)
	}
}

func receiveRanking(t *testing.T, ch <-chan domain.Ranking) domain.Ranking {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for ranking")
		return domain.Ranking{}
	}
}

func waitForPhase(t *testing.T, session *game.Session, phase game.Phase) game.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := session.Snapshot()
		if snap.Phase == phase {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for phase %s, at %s", phase, snap.Phase)
		}
		time.Sleep(time.Millisecond)
	}
}
