package domain

import "strings"

// Question is one immutable item of the static question bank. The clue is the
// sequence of initial consonants of the answer; difficulty is informational and
// does not weight scoring.
type Question struct {
	ID         string `json:"id"`
	Clue       string `json:"clue"`
	Category   string `json:"category"`
	Answer     string `json:"answer"`
	Difficulty int    `json:"difficulty"`
}

// NormalizeAnswer trims surrounding whitespace and case-folds so submissions
// compare against the canonical answer insensitively.
func NormalizeAnswer(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// AnswerMatches reports whether a raw submission matches the canonical answer
// after both sides are normalized identically.
func AnswerMatches(raw, canonical string) bool {
	return NormalizeAnswer(raw) == NormalizeAnswer(canonical)
}

// PlayerProfile is the externally persisted record for one anonymous identity.
// HighScore only ever moves to a strictly greater value.
type PlayerProfile struct {
	UserID    string `json:"userId"`
	Nickname  string `json:"nickname"`
	HighScore int    `json:"highScore"`
}

// RankingEntry is one row of the derived leaderboard.
type RankingEntry struct {
	UserID    string `json:"userId"`
	Nickname  string `json:"nickname"`
	HighScore int    `json:"highScore"`
	Rank      int    `json:"rank"`
}

// Ranking is the full derived leaderboard plus the viewer's own position.
// OwnRank is zero when the viewer does not appear in the feed yet.
type Ranking struct {
	Entries  []RankingEntry `json:"entries"`
	OwnRank  int            `json:"ownRank,omitempty"`
	OwnScore int            `json:"ownScore,omitempty"`
}

// Reveal holds the post-answer reveal shown while input is locked after a
// wrong answer or a timeout.
type Reveal struct {
	WrongInput    string `json:"wrongInput"`
	CorrectAnswer string `json:"correctAnswer"`
}

// TimeoutMarker is the fixed WrongInput value used when the countdown expires
// instead of the player submitting text.
const TimeoutMarker = "(time over)"

// SessionResult summarizes a finished session for the result view.
type SessionResult struct {
	FinalScore   int  `json:"finalScore"`
	HighScore    int  `json:"highScore"`
	NewHighScore bool `json:"newHighScore"`
}
