package game

import (
	"math/rand"

	"github.com/qmin9339-glitch/choseong/internal/domain"
)

// SelectRound draws a uniformly shuffled round of count questions from the
// bank. The bank itself is never mutated. Requesting more questions than the
// bank holds is a hard error; rounds never repeat questions.
func SelectRound(bank []domain.Question, count int, rnd *rand.Rand) ([]domain.Question, error) {
	if count <= 0 || count > len(bank) {
		return nil, domain.ErrInsufficientQuestions
	}
	shuffled := make([]domain.Question, len(bank))
	copy(shuffled, bank)
	rnd.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:count], nil
}
