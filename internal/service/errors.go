package service

import "errors"

var (
	ErrUnknownEntity   = errors.New("unknown entity")
	ErrEmptyEntityID   = errors.New("empty entity id")
	ErrDrainIncomplete = errors.New("outbox not fully drained")
	ErrSyncInFlight    = errors.New("sync already in flight")
)
