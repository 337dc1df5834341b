package domain

import "errors"

var (
	ErrUnauthenticated = errors.New("viewer is not authenticated")
	ErrTitleEmpty      = errors.New("room title empty")
	ErrTitleTooLong    = errors.New("room title too long")
	ErrContentTooLong  = errors.New("question content too long")

	// ErrEmptyID rejects operations addressed with an empty room,
	// question, or like id. An empty segment would make the path resolve
	// to the parent collection and the mutation would land there.
	ErrEmptyID = errors.New("empty id")
)
