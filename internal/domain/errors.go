package domain

import (
	"errors"
	"fmt"
)

// Kind classifies why a command was not applied.
type Kind string

const (
	KindNotYourTurn          Kind = "NOT_YOUR_TURN"
	KindInvalidTarget        Kind = "INVALID_TARGET"
	KindIllegalPlay          Kind = "ILLEGAL_PLAY"
	KindInvalidArrangement   Kind = "INVALID_ARRANGEMENT"
	KindEmptyColorPile       Kind = "EMPTY_COLOR_PILE"
	KindEmptyDeck            Kind = "EMPTY_DECK"
	KindNoColorChoicePending Kind = "NO_COLOR_CHOICE_PENDING"
	KindMustPlayInstead      Kind = "MUST_PLAY_INSTEAD"
	KindSessionTerminal      Kind = "SESSION_TERMINAL"
	KindCardNotInHand        Kind = "CARD_NOT_IN_HAND"
	KindWrongPhase           Kind = "WRONG_PHASE"
	KindUnknownPlayer        Kind = "UNKNOWN_PLAYER"
	KindBadCommand           Kind = "BAD_COMMAND"

	// KindInternal marks a broken invariant inside the engine, never a player mistake.
	KindInternal Kind = "INTERNAL"
)

// RuleError is a rejected command. The session state is unchanged.
type RuleError struct {
	Kind    Kind
	Message string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Reject builds a RuleError with a formatted message.
func Reject(kind Kind, format string, args ...any) *RuleError {
	return &RuleError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// InvariantError reports an internal consistency failure.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return "internal invariant violated: " + e.Message
}

// Invariantf builds an InvariantError.
func Invariantf(format string, args ...any) *InvariantError {
	return &InvariantError{Message: fmt.Sprintf(format, args...)}
}

// ErrorDetail is the transport form of a rejection.
type ErrorDetail struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// KindOf classifies err. Anything that is not a RuleError is internal.
func KindOf(err error) Kind {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindInternal
}

// IsInternal reports whether err is an engine fault rather than a rejection.
func IsInternal(err error) bool {
	return err != nil && KindOf(err) == KindInternal
}

// Detail converts err to its transport form.
func Detail(err error) ErrorDetail {
	var re *RuleError
	if errors.As(err, &re) {
		return ErrorDetail{Kind: re.Kind, Message: re.Message}
	}
	return ErrorDetail{Kind: KindInternal, Message: "internal error"}
}
