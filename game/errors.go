package game

import (
	"errors"
	"fmt"
)

// Kind names a rules failure. The string form is stable and safe to expose to clients.
type Kind string

const (
	KindInvalidMode     Kind = "invalid_mode"
	KindInvalidArgument Kind = "invalid_argument"
	KindNotFound        Kind = "not_found"
	KindPlayerNotFound  Kind = "player_not_found"
	KindAlreadyFull     Kind = "already_full"
	KindNotJoinable     Kind = "not_joinable"
	KindNotActive       Kind = "not_active"
	KindAlreadyWon      Kind = "already_won"
	KindOutOfTurn       Kind = "out_of_turn"
	KindOutOfBounds     Kind = "out_of_bounds"
	KindCellOccupied    Kind = "cell_occupied"
)

// Class groups kinds the way a transport should treat them.
type Class string

const (
	ClassNotFound   Class = "not_found"
	ClassConflict   Class = "conflict"
	ClassBadRequest Class = "bad_request"
)

func (k Kind) Class() Class {
	switch k {
	case KindNotFound, KindPlayerNotFound:
		return ClassNotFound
	case KindAlreadyFull, KindNotJoinable, KindNotActive, KindAlreadyWon,
		KindOutOfTurn, KindOutOfBounds, KindCellOccupied:
		return ClassConflict
	default:
		return ClassBadRequest
	}
}

// Error is a typed rules failure. Anything that is not an *Error coming out of
// the Service is a storage fault.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

// Is matches on Kind so errors.Is(err, ErrOutOfTurn) works for any message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidMode     = &Error{Kind: KindInvalidMode}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrPlayerNotFound  = &Error{Kind: KindPlayerNotFound}
	ErrAlreadyFull     = &Error{Kind: KindAlreadyFull}
	ErrNotJoinable     = &Error{Kind: KindNotJoinable}
	ErrNotActive       = &Error{Kind: KindNotActive}
	ErrAlreadyWon      = &Error{Kind: KindAlreadyWon}
	ErrOutOfTurn       = &Error{Kind: KindOutOfTurn}
	ErrOutOfBounds     = &Error{Kind: KindOutOfBounds}
	ErrCellOccupied    = &Error{Kind: KindCellOccupied}
)

// ErrNoRecord is returned by a Tx when the requested row does not exist.
var ErrNoRecord = errors.New("record not found")

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the rules kind carried by err, or "" for storage faults.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
