package app

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/qmin9339-glitch/choseong/internal/domain"
	"github.com/qmin9339-glitch/choseong/internal/game"
	"github.com/qmin9339-glitch/choseong/internal/identity"
)

// ProfileStore persists player profiles and exposes the live top-score feed.
// Implementations live under internal/infra.
type ProfileStore interface {
	ReadProfile(ctx context.Context, userID string) (domain.PlayerProfile, error)
	CreateProfile(ctx context.Context, profile domain.PlayerProfile) error
	UpdateHighScore(ctx context.Context, userID string, score int) error
	SubscribeTopProfiles(ctx context.Context, max int) (<-chan []domain.PlayerProfile, func(), error)
}

// QuestionRepository loads the full question bank (from cache/backing store).
type QuestionRepository interface {
	GetBank(ctx context.Context) ([]domain.Question, error)
}

// GameService wires identity, profiles, the question bank, and session
// construction into the use cases the transport layer calls.
type GameService struct {
	identity       identity.Provider
	profiles       ProfileStore
	bank           QuestionRepository
	rules          game.Rules
	sched          game.Scheduler
	leaderboardMax int

	mu  sync.Mutex
	rnd *rand.Rand
}

// Options carries the optional knobs for NewGameService.
type Options struct {
	Rules          game.Rules
	Scheduler      game.Scheduler
	LeaderboardMax int
}

func NewGameService(provider identity.Provider, profiles ProfileStore, bank QuestionRepository, opts Options) *GameService {
	if opts.Scheduler == nil {
		opts.Scheduler = game.WallScheduler{}
	}
	if opts.LeaderboardMax <= 0 {
		opts.LeaderboardMax = 100
	}
	return &GameService{
		identity:       provider,
		profiles:       profiles,
		bank:           bank,
		rules:          opts.Rules.Normalized(),
		sched:          opts.Scheduler,
		leaderboardMax: opts.LeaderboardMax,
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ResolveIdentity returns the player's identifier. Clients that bring their
// own ID bypass the bootstrap; otherwise the call is gated on the anonymous
// bootstrap having resolved.
func (s *GameService) ResolveIdentity(clientID string) (string, error) {
	if clientID != "" {
		return clientID, nil
	}
	id, ready := s.identity.Current()
	if !ready {
		return "", domain.ErrIdentityNotReady
	}
	return id.ID, nil
}

// EnsureProfile reads the player's profile, creating it with a generated (or
// supplied) nickname and a zero high score on first contact.
func (s *GameService) EnsureProfile(ctx context.Context, userID, nickname string) (domain.PlayerProfile, error) {
	profile, err := s.profiles.ReadProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return domain.PlayerProfile{}, err
	}
	if nickname == "" {
		nickname = identity.GenerateNickname()
	}
	profile = domain.PlayerProfile{UserID: userID, Nickname: nickname, HighScore: 0}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		return domain.PlayerProfile{}, err
	}
	return profile, nil
}

// StartSession builds an idle session for the player. The session draws a
// freshly selected round on every start, so a replay never repeats the
// previous game's selection. onResult receives the settled outcome each time
// a play-through finishes; high-score persistence is handled here and is
// best-effort by design.
func (s *GameService) StartSession(ctx context.Context, userID, nickname string, onResult func(domain.SessionResult)) (*game.Session, domain.PlayerProfile, error) {
	profile, err := s.EnsureProfile(ctx, userID, nickname)
	if err != nil {
		return nil, domain.PlayerProfile{}, err
	}

	// Validate the bank up front so an undersized bank fails at connect time
	// rather than on the first start.
	bank, err := s.bank.GetBank(ctx)
	if err != nil {
		return nil, domain.PlayerProfile{}, err
	}
	if s.rules.RoundSize > len(bank) {
		return nil, domain.PlayerProfile{}, domain.ErrInsufficientQuestions
	}

	ledger := NewLedger(profile.HighScore, func(score int) {
		go s.persistHighScore(userID, score)
	})
	session := game.NewSessionWithSource(s.selectFreshRound, s.rules, s.sched, func(finalScore int) {
		result := ledger.Settle(finalScore)
		if onResult != nil {
			onResult(result)
		}
	})
	return session, profile, nil
}

// selectFreshRound reloads the bank and draws a new shuffled round. It backs
// every session start; the shared rand source is guarded because sessions
// start concurrently across connections.
func (s *GameService) selectFreshRound() ([]domain.Question, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	bank, err := s.bank.GetBank(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return game.SelectRound(bank, s.rules.RoundSize, s.rnd)
}

// persistHighScore is the single best-effort write-through per improved
// session. Failures are logged and never surfaced; the local result stands.
func (s *GameService) persistHighScore(userID string, score int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.profiles.UpdateHighScore(ctx, userID, score); err != nil {
		log.Printf("high score write failed for %s: %v", userID, err)
	}
}
