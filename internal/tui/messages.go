package tui

import "github.com/mkarev/go-ledger-sync/models"

// statusMsg carries fresh outbox counts into the model.
type statusMsg models.OutboxStatus

// conflictMsg raises the identity confirmation overlay.
type conflictMsg models.IdentityConflict
