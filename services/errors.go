package services

import "errors"

// Sentinel errors returned by the service layer. Controllers map these to
// HTTP statuses; anything else is treated as a server failure.
var (
	// ErrNotFound signals that an operation's target record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrSelfSubscription rejects a user following themselves. This is a
	// validation failure, not a missing record.
	ErrSelfSubscription = errors.New("cannot subscribe to yourself")
	// ErrInvalidReaction rejects reaction types outside like/dislike.
	ErrInvalidReaction = errors.New("invalid reaction type")
	// ErrInvalidStatus rejects post statuses outside draft/published/archived.
	ErrInvalidStatus = errors.New("invalid post status")
	// ErrEmailTaken and ErrUsernameTaken surface user uniqueness conflicts.
	ErrEmailTaken    = errors.New("email already exists")
	ErrUsernameTaken = errors.New("username already exists")
	// ErrCategoryExists surfaces a duplicate category name or slug.
	ErrCategoryExists = errors.New("category name or slug already exists")
)
