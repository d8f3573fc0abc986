package game

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/qmin9339-glitch/choseong/internal/domain"
)

// manualScheduler collects scheduled callbacks so tests can fire timers
// deterministically instead of sleeping.
type manualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	s.pending = append(s.pending, t)
	return t
}

// fire runs the oldest live callback and reports whether one ran.
func (s *manualScheduler) fire() bool {
	s.mu.Lock()
	var next *manualTimer
	for _, t := range s.pending {
		if !t.stopped && !t.fired {
			next = t
			break
		}
	}
	if next != nil {
		next.fired = true
	}
	s.mu.Unlock()
	if next == nil {
		return false
	}
	next.f()
	return true
}

func testRules() Rules {
	return Rules{RoundSize: 2, StartTime: 10, BasePoints: 10}
}

func twoQuestions() []domain.Question {
	return []domain.Question{
		{ID: "q1", Clue: "ㅅㅂ", Category: "과일", Answer: "수박"},
		{ID: "q2", Clue: "ㄸㄱ", Category: "과일", Answer: "딸기"},
	}
}

func TestRoundFlowWithTimeBonus(t *testing.T) {
	sched := &manualScheduler{}
	var final int
	finished := false
	s := NewSession(twoQuestions(), testRules(), sched, func(score int) {
		final = score
		finished = true
	})

	s.Start()
	snap := s.Snapshot()
	if snap.Phase != PhasePlaying || snap.TimeRemaining != 10 || snap.Score != 0 {
		t.Fatalf("unexpected start state: %+v", snap)
	}
	if snap.Clue != "ㅅㅂ" {
		t.Fatalf("expected first clue, got %q", snap.Clue)
	}

	// Correct answer with the full countdown left: base 10 + bonus 10.
	s.Submit("수박")
	snap = s.Snapshot()
	if snap.Score != 20 {
		t.Fatalf("expected score 20, got %d", snap.Score)
	}
	if snap.Phase != PhaseFeedback || snap.Feedback != FeedbackCorrect {
		t.Fatalf("expected positive feedback, got %+v", snap)
	}
	if snap.Reveal != nil {
		t.Fatalf("correct answers should not reveal, got %+v", snap.Reveal)
	}

	// Advance delay elapses: next question, countdown reset.
	if !sched.fire() {
		t.Fatalf("expected pending advance timer")
	}
	snap = s.Snapshot()
	if snap.Phase != PhasePlaying || snap.QuestionIndex != 1 || snap.TimeRemaining != 10 {
		t.Fatalf("unexpected state after advance: %+v", snap)
	}

	// Let the countdown run out: timeout reveal, score untouched.
	for i := 0; i < 10; i++ {
		if !sched.fire() {
			t.Fatalf("expected tick %d", i)
		}
	}
	snap = s.Snapshot()
	if snap.TimeRemaining != 0 || snap.Phase != PhaseFeedback || snap.Feedback != FeedbackWrong {
		t.Fatalf("expected timeout feedback, got %+v", snap)
	}
	if snap.Reveal == nil || snap.Reveal.WrongInput != domain.TimeoutMarker || snap.Reveal.CorrectAnswer != "딸기" {
		t.Fatalf("unexpected reveal: %+v", snap.Reveal)
	}
	if snap.Score != 20 {
		t.Fatalf("timeout must not change score, got %d", snap.Score)
	}

	// Final advance finishes the round.
	if !sched.fire() {
		t.Fatalf("expected pending advance timer")
	}
	snap = s.Snapshot()
	if snap.Phase != PhaseFinished {
		t.Fatalf("expected finished, got %s", snap.Phase)
	}
	if !finished || final != 20 {
		t.Fatalf("expected finish hook with 20, got finished=%v final=%d", finished, final)
	}
}

func TestSubmitNormalizesCaseAndWhitespace(t *testing.T) {
	sched := &manualScheduler{}
	questions := []domain.Question{{ID: "q1", Clue: "ㅇ", Answer: "answer"}}
	s := NewSession(questions, Rules{RoundSize: 1, StartTime: 5, BasePoints: 10}, sched, nil)

	s.Start()
	s.Submit("  ANSWER  ")
	snap := s.Snapshot()
	if snap.Feedback != FeedbackCorrect || snap.Score != 15 {
		t.Fatalf("expected normalized match worth 15, got %+v", snap)
	}
}

func TestWrongAnswerRevealsAndKeepsScore(t *testing.T) {
	sched := &manualScheduler{}
	questions := []domain.Question{{ID: "q1", Clue: "ㅅㅂ", Answer: "수박"}}
	s := NewSession(questions, testRules(), sched, nil)

	s.Start()
	s.Submit("  Watermelon ")
	snap := s.Snapshot()
	if snap.Score != 0 {
		t.Fatalf("wrong answer must not score, got %d", snap.Score)
	}
	if snap.Reveal == nil || snap.Reveal.WrongInput != "Watermelon" || snap.Reveal.CorrectAnswer != "수박" {
		t.Fatalf("unexpected reveal: %+v", snap.Reveal)
	}
}

func TestFeedbackWindowLocksInput(t *testing.T) {
	sched := &manualScheduler{}
	s := NewSession(twoQuestions(), testRules(), sched, nil)

	s.Start()
	s.Submit("오답")
	locked := s.Snapshot()

	// Further submissions during the lock window are no-ops, even correct ones.
	s.Submit("수박")
	snap := s.Snapshot()
	if snap.Score != locked.Score || snap.QuestionIndex != locked.QuestionIndex {
		t.Fatalf("submit during feedback must be a no-op: %+v vs %+v", locked, snap)
	}
	if snap.Reveal == nil || snap.Reveal.WrongInput != "오답" {
		t.Fatalf("reveal must be unchanged, got %+v", snap.Reveal)
	}
}

func TestCountdownDisarmedDuringFeedback(t *testing.T) {
	sched := &manualScheduler{}
	s := NewSession(twoQuestions(), testRules(), sched, nil)

	s.Start()
	before := s.Snapshot().TimeRemaining
	s.Submit("수박")

	// The armed tick was stopped by the feedback transition; only the
	// advance timer should be live.
	sched.mu.Lock()
	live := 0
	for _, timer := range sched.pending {
		if !timer.stopped && !timer.fired {
			live++
		}
	}
	sched.mu.Unlock()
	if live != 1 {
		t.Fatalf("expected exactly one live timer during feedback, got %d", live)
	}
	if got := s.Snapshot().TimeRemaining; got != before {
		t.Fatalf("countdown moved during feedback: %d -> %d", before, got)
	}
}

func TestEventsOutsidePlayingAreNoOps(t *testing.T) {
	sched := &manualScheduler{}
	s := NewSession(twoQuestions(), testRules(), sched, nil)

	s.Submit("수박") // idle: ignored
	if snap := s.Snapshot(); snap.Phase != PhaseIdle || snap.Score != 0 {
		t.Fatalf("idle submit must be ignored, got %+v", snap)
	}

	s.Start()
	s.Start() // already playing: ignored
	if snap := s.Snapshot(); snap.QuestionIndex != 0 || snap.Score != 0 {
		t.Fatalf("restart while playing must be ignored, got %+v", snap)
	}
}

func TestLeaderboardSideView(t *testing.T) {
	sched := &manualScheduler{}
	s := NewSession(twoQuestions(), testRules(), sched, nil)

	s.EnterLeaderboard()
	if got := s.Snapshot().Phase; got != PhaseLeaderboard {
		t.Fatalf("expected leaderboard view, got %s", got)
	}
	s.Start() // starting from the side view is allowed
	if got := s.Snapshot().Phase; got != PhasePlaying {
		t.Fatalf("expected start from leaderboard view, got %s", got)
	}
}

func TestRestartResetsState(t *testing.T) {
	sched := &manualScheduler{}
	s := NewSession(twoQuestions(), testRules(), sched, nil)

	s.Start()
	s.Submit("수박")
	sched.fire() // advance to question 2
	s.Submit("딸기")
	sched.fire() // finish
	if got := s.Snapshot(); got.Phase != PhaseFinished || got.Score != 40 {
		t.Fatalf("expected finished with 40, got %+v", got)
	}

	s.Start()
	snap := s.Snapshot()
	if snap.Phase != PhasePlaying || snap.Score != 0 || snap.QuestionIndex != 0 || snap.TimeRemaining != 10 {
		t.Fatalf("restart must reset state, got %+v", snap)
	}
}

func TestRestartSelectsFreshRound(t *testing.T) {
	sched := &manualScheduler{}
	rounds := [][]domain.Question{
		{
			{ID: "q1", Clue: "ㅅㅂ", Answer: "수박"},
			{ID: "q2", Clue: "ㄸㄱ", Answer: "딸기"},
		},
		{
			{ID: "q3", Clue: "ㅋㄲㄹ", Answer: "코끼리"},
			{ID: "q4", Clue: "ㅎㄹㅇ", Answer: "호랑이"},
		},
	}
	calls := 0
	s := NewSessionWithSource(func() ([]domain.Question, error) {
		round := rounds[calls%len(rounds)]
		calls++
		return round, nil
	}, testRules(), sched, nil)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := s.Snapshot().Clue; got != "ㅅㅂ" {
		t.Fatalf("expected first round's clue, got %q", got)
	}
	s.Submit("수박")
	sched.fire()
	s.Submit("딸기")
	sched.fire()
	if got := s.Snapshot().Phase; got != PhaseFinished {
		t.Fatalf("expected finished, got %s", got)
	}

	// A second game must not replay the first game's questions.
	if err := s.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected round selection to run per start, got %d calls", calls)
	}
	if got := s.Snapshot().Clue; got != "ㅋㄲㄹ" {
		t.Fatalf("restart must draw a fresh round, got clue %q", got)
	}
}

func TestStartSurfacesRoundSelectionFailure(t *testing.T) {
	sched := &manualScheduler{}
	s := NewSessionWithSource(func() ([]domain.Question, error) {
		return nil, domain.ErrBankNotFound
	}, testRules(), sched, nil)

	if err := s.Start(); !errors.Is(err, domain.ErrBankNotFound) {
		t.Fatalf("expected bank error, got %v", err)
	}
	if got := s.Snapshot().Phase; got != PhaseIdle {
		t.Fatalf("failed start must leave the session idle, got %s", got)
	}
}

func TestFeedbackDelaysMatchOutcome(t *testing.T) {
	sched := &manualScheduler{}
	rules := Rules{
		RoundSize:    3,
		StartTime:    10,
		BasePoints:   10,
		CorrectDelay: 500 * time.Millisecond,
		WrongDelay:   2 * time.Second,
	}
	questions := []domain.Question{
		{ID: "q1", Clue: "ㅅㅂ", Answer: "수박"},
		{ID: "q2", Clue: "ㄸㄱ", Answer: "딸기"},
		{ID: "q3", Clue: "ㅋㄲㄹ", Answer: "코끼리"},
	}
	s := NewSession(questions, rules, sched, nil)

	s.Start()
	s.Submit("수박")
	if d := liveDelay(t, sched); d != rules.CorrectDelay {
		t.Fatalf("correct answer must arm the short delay, got %v", d)
	}
	sched.fire() // advance to question 2

	s.Submit("오답")
	if d := liveDelay(t, sched); d != rules.WrongDelay {
		t.Fatalf("wrong answer must arm the long delay, got %v", d)
	}
	sched.fire() // advance to question 3

	for i := 0; i < 10; i++ {
		if !sched.fire() {
			t.Fatalf("expected tick %d", i)
		}
	}
	if d := liveDelay(t, sched); d != rules.WrongDelay {
		t.Fatalf("timeout must arm the long delay, got %v", d)
	}
}

// liveDelay returns the delay of the single armed timer.
func liveDelay(t *testing.T, s *manualScheduler) time.Duration {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	var live []*manualTimer
	for _, timer := range s.pending {
		if !timer.stopped && !timer.fired {
			live = append(live, timer)
		}
	}
	if len(live) != 1 {
		t.Fatalf("expected exactly one live timer, got %d", len(live))
	}
	return live[0].d
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	sched := &manualScheduler{}
	s := NewSession(twoQuestions(), testRules(), sched, nil)

	ch, cancel := s.Subscribe()
	defer cancel()

	initial := <-ch
	if initial.Phase != PhaseIdle {
		t.Fatalf("expected idle snapshot first, got %+v", initial)
	}

	s.Start()
	update := <-ch
	if update.Phase != PhasePlaying {
		t.Fatalf("expected playing snapshot, got %+v", update)
	}
}

func TestCloseStopsEverything(t *testing.T) {
	sched := &manualScheduler{}
	s := NewSession(twoQuestions(), testRules(), sched, nil)

	ch, cancel := s.Subscribe()
	defer cancel()
	<-ch

	s.Start()
	<-ch
	s.Close()

	for range ch {
		// drain until the subscriber channel closes
	}
	sched.fire() // a stale callback may still be queued; it must not mutate state
	if got := s.Snapshot(); got.Phase != PhasePlaying {
		t.Fatalf("closed session must not transition, got %s", got.Phase)
	}
}
