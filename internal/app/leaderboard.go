package app

import (
	"context"
	"sort"
	"sync"

	"github.com/qmin9339-glitch/choseong/internal/domain"
)

// ComputeRanking derives the full leaderboard from the latest feed snapshot:
// descending by high score, ties broken by user ID so the order is stable
// regardless of how the store delivered the snapshot. Ranks are 1-based.
// OwnRank stays zero when ownID is absent from the snapshot.
func ComputeRanking(profiles []domain.PlayerProfile, ownID string) domain.Ranking {
	entries := make([]domain.RankingEntry, 0, len(profiles))
	for _, p := range profiles {
		entries = append(entries, domain.RankingEntry{
			UserID:    p.UserID,
			Nickname:  p.Nickname,
			HighScore: p.HighScore,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].HighScore != entries[j].HighScore {
			return entries[i].HighScore > entries[j].HighScore
		}
		return entries[i].UserID < entries[j].UserID
	})

	ranking := domain.Ranking{Entries: entries}
	for i := range entries {
		entries[i].Rank = i + 1
		if ownID != "" && entries[i].UserID == ownID {
			ranking.OwnRank = entries[i].Rank
			ranking.OwnScore = entries[i].HighScore
		}
	}
	return ranking
}

// SubscribeLeaderboard wraps the profile store's live feed and re-emits each
// snapshot as a derived ranking. Feed updates are fully decoupled from any
// session: they may arrive mid-round without touching session state. The
// caller must invoke cancel when the view is torn down.
func (s *GameService) SubscribeLeaderboard(ctx context.Context, ownID string) (<-chan domain.Ranking, func(), error) {
	feed, cancelFeed, err := s.profiles.SubscribeTopProfiles(ctx, s.leaderboardMax)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan domain.Ranking, 8)
	done := make(chan struct{})

	go func() {
		defer close(out)
		for {
			select {
			case snapshot, ok := <-feed:
				if !ok {
					return
				}
				ranking := ComputeRanking(snapshot, ownID)
				select {
				case out <- ranking:
				default:
					// Keep only the freshest ranking for slow readers.
					select {
					case <-out:
					default:
					}
					out <- ranking
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			cancelFeed()
			close(done)
		})
	}
	return out, cancel, nil
}
