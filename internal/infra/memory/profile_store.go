package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/qmin9339-glitch/choseong/internal/domain"
)

// ProfileStore is an in-memory implementation of app.ProfileStore. Every
// profile write re-broadcasts the top slice to all live subscribers.
type ProfileStore struct {
	mu          sync.RWMutex
	profiles    map[string]domain.PlayerProfile
	subscribers map[chan []domain.PlayerProfile]int
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles:    make(map[string]domain.PlayerProfile),
		subscribers: make(map[chan []domain.PlayerProfile]int),
	}
}

func (s *ProfileStore) ReadProfile(_ context.Context, userID string) (domain.PlayerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return domain.PlayerProfile{}, domain.ErrProfileNotFound
	}
	return profile, nil
}

func (s *ProfileStore) CreateProfile(_ context.Context, profile domain.PlayerProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.UserID]; !ok {
		s.profiles[profile.UserID] = profile
	}
	s.broadcastLocked()
	return nil
}

// UpdateHighScore applies the monotonic write discipline: a score that does
// not strictly improve on the stored one is ignored.
func (s *ProfileStore) UpdateHighScore(_ context.Context, userID string, score int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return domain.ErrProfileNotFound
	}
	if score <= profile.HighScore {
		return nil
	}
	profile.HighScore = score
	s.profiles[userID] = profile
	s.broadcastLocked()
	return nil
}

// SubscribeTopProfiles returns a live feed primed with the current top
// profiles. The caller must invoke cancel to avoid leaks.
func (s *ProfileStore) SubscribeTopProfiles(_ context.Context, max int) (<-chan []domain.PlayerProfile, func(), error) {
	ch := make(chan []domain.PlayerProfile, 8)

	s.mu.Lock()
	s.subscribers[ch] = max
	initial := s.topLocked(max)
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
	return ch, cancel, nil
}

func (s *ProfileStore) broadcastLocked() {
	for ch, max := range s.subscribers {
		top := s.topLocked(max)
		select {
		case ch <- top:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- top
		}
	}
}

func (s *ProfileStore) topLocked(max int) []domain.PlayerProfile {
	top := make([]domain.PlayerProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		top = append(top, p)
	}
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].HighScore != top[j].HighScore {
			return top[i].HighScore > top[j].HighScore
		}
		return top[i].UserID < top[j].UserID
	})
	if max > 0 && len(top) > max {
		top = top[:max]
	}
	return top
}
