package services

import "errors"

var (
	// ErrInsufficientParticipants: fewer than two seats were filled.
	// Nothing is written.
	ErrInsufficientParticipants = errors.New("a match needs at least 2 participants")

	// ErrUnresolvableReference: a seat's player or deck selection did
	// not match exactly one record in the current snapshot, or the
	// selected deck does not belong to the selected player. Ambiguity
	// is never resolved by picking the first hit. Nothing is written.
	ErrUnresolvableReference = errors.New("could not resolve participant selection to a unique player and deck")

	// ErrPartialWrite: the match row was inserted but the participant
	// batch failed AND the compensating delete failed too, leaving an
	// orphaned match behind. Logged with the match id so an operator
	// can clean up by hand. Only possible on stores without
	// transaction support.
	ErrPartialWrite = errors.New("match recorded without participants")
)
