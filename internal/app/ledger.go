package app

import (
	"sync"

	"github.com/qmin9339-glitch/choseong/internal/domain"
)

// Ledger tracks a player's best score across the sessions of one connection
// and decides when a finished session earns a persisted update. The write is
// delegated to the injected func, which is expected to be best-effort.
type Ledger struct {
	mu    sync.Mutex
	best  int
	write func(score int)
}

// NewLedger seeds the ledger with the player's persisted best. write is
// invoked at most once per Settle call, and only on strict improvement.
func NewLedger(best int, write func(score int)) *Ledger {
	return &Ledger{best: best, write: write}
}

// Settle compares a final session score against the best seen so far. A
// strictly greater score updates the local best immediately and issues a
// single write-through; the local value is never rolled back on write
// failure, since the session result stays valid for the current view.
func (l *Ledger) Settle(finalScore int) domain.SessionResult {
	l.mu.Lock()
	defer l.mu.Unlock()

	if finalScore <= l.best {
		return domain.SessionResult{
			FinalScore:   finalScore,
			HighScore:    l.best,
			NewHighScore: false,
		}
	}
	l.best = finalScore
	if l.write != nil {
		l.write(finalScore)
	}
	return domain.SessionResult{
		FinalScore:   finalScore,
		HighScore:    finalScore,
		NewHighScore: true,
	}
}

// Best returns the current local best score.
func (l *Ledger) Best() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.best
}
