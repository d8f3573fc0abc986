package domain

import "errors"

var (
	// ErrInsufficientQuestions is returned when a round is requested that is
	// larger than the available question bank.
	ErrInsufficientQuestions = errors.New("not enough questions in bank")
	// ErrIdentityNotReady gates session start until the identity bootstrap resolves.
	ErrIdentityNotReady = errors.New("identity not ready")
	// ErrProfileNotFound is returned when no profile exists for an identity.
	ErrProfileNotFound = errors.New("player profile not found")
	// ErrBankNotFound indicates the question bank could not be loaded.
	ErrBankNotFound = errors.New("question bank not found")
)
