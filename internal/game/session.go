package game

import (
	"strings"
	"sync"
	"time"

	"github.com/qmin9339-glitch/choseong/internal/domain"
)

// Phase is the session's current screen-level state.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhasePlaying     Phase = "playing"
	PhaseFeedback    Phase = "feedback"
	PhaseFinished    Phase = "finished"
	PhaseLeaderboard Phase = "leaderboard"
)

// Feedback marks the outcome shown during the post-answer lock window.
type Feedback string

const (
	FeedbackNone    Feedback = ""
	FeedbackCorrect Feedback = "correct"
	FeedbackWrong   Feedback = "wrong"
)

// Rules holds the per-session scoring and timing knobs.
type Rules struct {
	RoundSize    int
	StartTime    int // seconds granted per question
	BasePoints   int
	CorrectDelay time.Duration
	WrongDelay   time.Duration
}

// DefaultRules mirrors the classic game: 10 questions, 10 seconds each,
// 10 base points plus one bonus point per remaining second.
func DefaultRules() Rules {
	return Rules{
		RoundSize:    10,
		StartTime:    10,
		BasePoints:   10,
		CorrectDelay: 500 * time.Millisecond,
		WrongDelay:   2 * time.Second,
	}
}

// Normalized fills zero-valued knobs with the defaults.
func (r Rules) Normalized() Rules {
	d := DefaultRules()
	if r.RoundSize <= 0 {
		r.RoundSize = d.RoundSize
	}
	if r.StartTime <= 0 {
		r.StartTime = d.StartTime
	}
	if r.BasePoints <= 0 {
		r.BasePoints = d.BasePoints
	}
	if r.CorrectDelay <= 0 {
		r.CorrectDelay = d.CorrectDelay
	}
	if r.WrongDelay <= 0 {
		r.WrongDelay = d.WrongDelay
	}
	return r
}

// Snapshot is the serializable view of session state pushed to subscribers
// after every mutation.
type Snapshot struct {
	Phase         Phase          `json:"phase"`
	QuestionIndex int            `json:"questionIndex"`
	RoundSize     int            `json:"roundSize"`
	Clue          string         `json:"clue,omitempty"`
	Category      string         `json:"category,omitempty"`
	Score         int            `json:"score"`
	TimeRemaining int            `json:"timeRemaining"`
	Feedback      Feedback       `json:"feedback,omitempty"`
	Reveal        *domain.Reveal `json:"reveal,omitempty"`
}

// RoundSource selects the questions for one play-through. It runs on every
// Start so each new game draws a freshly selected round.
type RoundSource func() ([]domain.Question, error)

// Session owns one play-through of a selected round. All event handlers
// (start, submit, tick, delayed advance) serialize on the mutex, so no two
// handlers ever observe or mutate state concurrently. The countdown and the
// feedback delay are armed through the Scheduler; at most one of each is
// live at a time, and the epoch counter discards callbacks from timers that
// were superseded before they could be stopped.
type Session struct {
	mu     sync.Mutex
	rules  Rules
	sched  Scheduler
	source RoundSource

	questions []domain.Question
	phase     Phase
	index     int
	score     int
	remaining int
	feedback  Feedback
	reveal    *domain.Reveal

	epoch   int
	tick    Timer
	pending Timer
	closed  bool

	onFinish    func(finalScore int)
	subscribers map[chan Snapshot]struct{}
}

// NewSession builds an idle session over a fixed round: every start replays
// the same questions. Mostly useful for tests; production wiring goes through
// NewSessionWithSource so each game gets a fresh selection.
func NewSession(questions []domain.Question, rules Rules, sched Scheduler, onFinish func(finalScore int)) *Session {
	s := NewSessionWithSource(func() ([]domain.Question, error) { return questions, nil }, rules, sched, onFinish)
	s.questions = questions
	return s
}

// NewSessionWithSource builds an idle session that draws its round from
// source on every start. onFinish is invoked exactly once per play-through,
// after the last question resolves; it runs outside the session lock and may
// be nil.
func NewSessionWithSource(source RoundSource, rules Rules, sched Scheduler, onFinish func(finalScore int)) *Session {
	if sched == nil {
		sched = WallScheduler{}
	}
	return &Session{
		rules:       rules.Normalized(),
		sched:       sched,
		source:      source,
		phase:       PhaseIdle,
		onFinish:    onFinish,
		subscribers: make(map[chan Snapshot]struct{}),
	}
}

// Start begins a new game: a fresh round is selected, score/index/countdown
// reset, and any timers from the previous run canceled. Valid from any
// non-playing phase; otherwise a no-op. A round-selection failure leaves the
// session in its current phase.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.closed || s.phase == PhasePlaying || s.phase == PhaseFeedback {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	round, err := s.source()
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed || s.phase == PhasePlaying || s.phase == PhaseFeedback {
		s.mu.Unlock()
		return nil
	}
	s.disarmLocked()
	s.questions = round
	s.phase = PhasePlaying
	s.index = 0
	s.score = 0
	s.remaining = s.rules.StartTime
	s.feedback = FeedbackNone
	s.reveal = nil
	s.armTickLocked()
	s.broadcastLocked()
	s.mu.Unlock()
	return nil
}

// Submit applies a player answer. Outside Playing, or while feedback is
// displayed, it is a no-op: the feedback window locks input, which is also
// what makes a last-moment submit and an expiring countdown mutually
// exclusive for the same question.
func (s *Session) Submit(raw string) {
	s.mu.Lock()
	if s.closed || s.phase != PhasePlaying {
		s.mu.Unlock()
		return
	}
	q := s.questions[s.index]
	if domain.AnswerMatches(raw, q.Answer) {
		s.score += s.rules.BasePoints + s.remaining
		s.beginFeedbackLocked(FeedbackCorrect, nil, s.rules.CorrectDelay)
	} else {
		s.beginFeedbackLocked(FeedbackWrong, &domain.Reveal{
			WrongInput:    strings.TrimSpace(raw),
			CorrectAnswer: q.Answer,
		}, s.rules.WrongDelay)
	}
	s.broadcastLocked()
	s.mu.Unlock()
}

// EnterLeaderboard switches to the leaderboard side view. Only reachable
// when no round is in flight.
func (s *Session) EnterLeaderboard() {
	s.mu.Lock()
	if !s.closed && (s.phase == PhaseIdle || s.phase == PhaseFinished) {
		s.phase = PhaseLeaderboard
		s.broadcastLocked()
	}
	s.mu.Unlock()
}

// LeaveLeaderboard returns from the side view to the start screen.
func (s *Session) LeaveLeaderboard() {
	s.mu.Lock()
	if !s.closed && s.phase == PhaseLeaderboard {
		s.phase = PhaseIdle
		s.broadcastLocked()
	}
	s.mu.Unlock()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel of state snapshots, primed with the current
// state. The caller must invoke cancel to avoid leaks.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Close disarms all timers and closes every subscriber channel. The session
// accepts no further events afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.disarmLocked()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.mu.Unlock()
}

// beginFeedbackLocked enters the lock window: countdown disarmed, outcome
// recorded, advance scheduled after the window's delay.
func (s *Session) beginFeedbackLocked(fb Feedback, reveal *domain.Reveal, delay time.Duration) {
	s.phase = PhaseFeedback
	s.feedback = fb
	s.reveal = reveal
	s.disarmLocked()
	epoch := s.epoch
	s.pending = s.sched.AfterFunc(delay, func() { s.advance(epoch) })
}

// armTickLocked schedules the next one-second countdown step. Exactly one
// tick is armed at a time; disarmLocked always runs before rearming.
func (s *Session) armTickLocked() {
	epoch := s.epoch
	s.tick = s.sched.AfterFunc(time.Second, func() { s.onTick(epoch) })
}

// disarmLocked stops both timers and bumps the epoch so that any callback
// already past Stop is dropped when it reaches the lock.
func (s *Session) disarmLocked() {
	s.epoch++
	if s.tick != nil {
		s.tick.Stop()
		s.tick = nil
	}
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

func (s *Session) onTick(epoch int) {
	s.mu.Lock()
	if s.closed || epoch != s.epoch || s.phase != PhasePlaying || s.remaining <= 0 {
		s.mu.Unlock()
		return
	}
	s.remaining--
	if s.remaining > 0 {
		s.tick = s.sched.AfterFunc(time.Second, func() { s.onTick(epoch) })
		s.broadcastLocked()
		s.mu.Unlock()
		return
	}
	// Countdown expired: treated as a wrong answer with the timeout marker,
	// score untouched.
	s.tick = nil
	s.beginFeedbackLocked(FeedbackWrong, &domain.Reveal{
		WrongInput:    domain.TimeoutMarker,
		CorrectAnswer: s.questions[s.index].Answer,
	}, s.rules.WrongDelay)
	s.broadcastLocked()
	s.mu.Unlock()
}

func (s *Session) advance(epoch int) {
	s.mu.Lock()
	if s.closed || epoch != s.epoch || s.phase != PhaseFeedback {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	s.feedback = FeedbackNone
	s.reveal = nil
	s.index++
	if s.index < len(s.questions) {
		s.phase = PhasePlaying
		s.remaining = s.rules.StartTime
		s.disarmLocked()
		s.armTickLocked()
		s.broadcastLocked()
		s.mu.Unlock()
		return
	}
	s.phase = PhaseFinished
	s.disarmLocked()
	final := s.score
	finish := s.onFinish
	s.broadcastLocked()
	s.mu.Unlock()

	if finish != nil {
		finish(final)
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Phase:         s.phase,
		QuestionIndex: s.index,
		RoundSize:     len(s.questions),
		Score:         s.score,
		TimeRemaining: s.remaining,
		Feedback:      s.feedback,
		Reveal:        s.reveal,
	}
	if (s.phase == PhasePlaying || s.phase == PhaseFeedback) && s.index < len(s.questions) {
		snap.Clue = s.questions[s.index].Clue
		snap.Category = s.questions[s.index].Category
	}
	return snap
}

func (s *Session) broadcastLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// Drop the oldest pending snapshot so slow readers never block
			// the event handlers.
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}
