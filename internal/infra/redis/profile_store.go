package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/qmin9339-glitch/choseong/internal/domain"
)

const (
	profileKeyPrefix = "profile:"
	scoreIndexKey    = "leaderboard:scores"
	updatesChannel   = "leaderboard:updates"
)

// ProfileStore persists profiles as JSON values with a ZSET index over high
// scores, and notifies leaderboard subscribers through pub/sub:
//
//	SET  profile:{userID} {json}
//	ZADD leaderboard:scores {highScore} {userID}
//	PUBLISH leaderboard:updates {userID}
type ProfileStore struct {
	client *redis.Client
}

func NewProfileStore(client *redis.Client) *ProfileStore {
	return &ProfileStore{client: client}
}

func (s *ProfileStore) ReadProfile(ctx context.Context, userID string) (domain.PlayerProfile, error) {
	raw, err := s.client.Get(ctx, profileKeyPrefix+userID).Result()
	if err == redis.Nil {
		return domain.PlayerProfile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.PlayerProfile{}, fmt.Errorf("read profile: %w", err)
	}
	var profile domain.PlayerProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return domain.PlayerProfile{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	return profile, nil
}

func (s *ProfileStore) CreateProfile(ctx context.Context, profile domain.PlayerProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.SetNX(ctx, profileKeyPrefix+profile.UserID, data, 0)
	pipe.ZAdd(ctx, scoreIndexKey, redis.Z{Score: float64(profile.HighScore), Member: profile.UserID})
	pipe.Publish(ctx, updatesChannel, profile.UserID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

// UpdateHighScore applies the monotonic write discipline: scores that do not
// strictly improve the stored value are ignored. Last-writer-wins is fine
// here because each profile is only ever written by its owning identity.
func (s *ProfileStore) UpdateHighScore(ctx context.Context, userID string, score int) error {
	profile, err := s.ReadProfile(ctx, userID)
	if err != nil {
		return err
	}
	if score <= profile.HighScore {
		return nil
	}
	profile.HighScore = score
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, profileKeyPrefix+userID, data, 0)
	pipe.ZAdd(ctx, scoreIndexKey, redis.Z{Score: float64(score), Member: userID})
	pipe.Publish(ctx, updatesChannel, userID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update high score: %w", err)
	}
	return nil
}

// SubscribeTopProfiles primes the feed with the current top profiles, then
// re-reads the top slice whenever any profile write is published. Transient
// read failures keep the last-known snapshot.
func (s *ProfileStore) SubscribeTopProfiles(ctx context.Context, max int) (<-chan []domain.PlayerProfile, func(), error) {
	initial, err := s.topProfiles(ctx, max)
	if err != nil {
		return nil, nil, err
	}

	pubsub := s.client.Subscribe(ctx, updatesChannel)
	ch := make(chan []domain.PlayerProfile, 8)
	ch <- initial

	go func() {
		defer close(ch)
		for range pubsub.Channel() {
			top, err := s.topProfiles(context.Background(), max)
			if err != nil {
				log.Printf("leaderboard feed read failed: %v", err)
				continue
			}
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
	}()

	cancel := func() {
		_ = pubsub.Close()
	}
	return ch, cancel, nil
}

func (s *ProfileStore) topProfiles(ctx context.Context, max int) ([]domain.PlayerProfile, error) {
	if max <= 0 {
		max = 100
	}
	ids, err := s.client.ZRevRange(ctx, scoreIndexKey, 0, int64(max-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read score index: %w", err)
	}
	if len(ids) == 0 {
		return []domain.PlayerProfile{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKeyPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	top := make([]domain.PlayerProfile, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // index entry without a profile value
		}
		var profile domain.PlayerProfile
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			continue
		}
		top = append(top, profile)
	}
	return top, nil
}
