package adapter

import (
	"context"

	"github.com/mkarev/go-ledger-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// RemoteAdapter is the transport to the authoritative server. The sync
// processor only ever talks to the remote through this interface.
type RemoteAdapter interface {
	// SetToken installs the bearer token used on authenticated requests.
	SetToken(token string)

	// Token returns the currently installed bearer token.
	Token() string

	// Whoami resolves the principal the current token belongs to.
	Whoami(ctx context.Context) (string, error)

	// CreateEntity pushes a new record and returns the canonical version
	// the server stored.
	CreateEntity(ctx context.Context, entity string, entityID string, payload map[string]any) (models.RemoteRecord, error)

	// UpdateEntity pushes changed fields of an existing record.
	UpdateEntity(ctx context.Context, entity string, entityID string, payload map[string]any) (models.RemoteRecord, error)

	// DeleteEntity removes a record remotely.
	DeleteEntity(ctx context.Context, entity string, entityID string) error
}
