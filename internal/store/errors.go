package store

import "errors"

var (
	ErrEntryNotFound  = errors.New("queue entry not found")
	ErrRecordNotFound = errors.New("record not found")
	ErrUnknownEntity  = errors.New("unknown entity")
)
