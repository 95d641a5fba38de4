package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkarev/go-ledger-sync/internal/logger"
	"github.com/mkarev/go-ledger-sync/models"
)

// RecordRepositorySQLite stores the primary entities the UI layer owns.
type RecordRepositorySQLite struct {
	db     *DB
	logger *logger.Logger
}

func NewRecordRepositorySQLite(db *DB, log *logger.Logger) *RecordRepositorySQLite {
	return &RecordRepositorySQLite{
		db:     db,
		logger: log.GetChildLogger("repository", "records"),
	}
}

func (r *RecordRepositorySQLite) SaveInvoice(ctx context.Context, invoice models.Invoice) error {
	_, err := r.db.ExecContext(ctx, saveInvoice,
		invoice.ID,
		invoice.Number,
		invoice.CustomerID,
		invoice.TotalCents,
		invoice.Currency,
		invoice.IssuedAt,
		invoice.Notes,
		string(invoice.SyncStatus),
		invoice.UpdatedAt,
	)
	if err != nil {
		r.logger.Err(err).Str("func", "SaveInvoice").Str("id", invoice.ID).Msg("error saving invoice")
		return fmt.Errorf("error saving invoice: %w", err)
	}
	return nil
}

func (r *RecordRepositorySQLite) GetInvoice(ctx context.Context, id string) (models.Invoice, error) {
	var (
		invoice models.Invoice
		status  string
	)

	err := r.db.QueryRowContext(ctx, getInvoice, id).Scan(
		&invoice.ID,
		&invoice.Number,
		&invoice.CustomerID,
		&invoice.TotalCents,
		&invoice.Currency,
		&invoice.IssuedAt,
		&invoice.Notes,
		&status,
		&invoice.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Invoice{}, ErrRecordNotFound
	}
	if err != nil {
		r.logger.Err(err).Str("func", "GetInvoice").Str("id", id).Msg("error getting invoice")
		return models.Invoice{}, fmt.Errorf("error getting invoice: %w", err)
	}

	invoice.SyncStatus = models.SyncStatus(status)
	return invoice, nil
}

func (r *RecordRepositorySQLite) SaveCustomer(ctx context.Context, customer models.Customer) error {
	_, err := r.db.ExecContext(ctx, saveCustomer,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.TaxID,
		string(customer.SyncStatus),
		customer.UpdatedAt,
	)
	if err != nil {
		r.logger.Err(err).Str("func", "SaveCustomer").Str("id", customer.ID).Msg("error saving customer")
		return fmt.Errorf("error saving customer: %w", err)
	}
	return nil
}

func (r *RecordRepositorySQLite) GetCustomer(ctx context.Context, id string) (models.Customer, error) {
	var (
		customer models.Customer
		status   string
	)

	err := r.db.QueryRowContext(ctx, getCustomer, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.TaxID,
		&status,
		&customer.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Customer{}, ErrRecordNotFound
	}
	if err != nil {
		r.logger.Err(err).Str("func", "GetCustomer").Str("id", id).Msg("error getting customer")
		return models.Customer{}, fmt.Errorf("error getting customer: %w", err)
	}

	customer.SyncStatus = models.SyncStatus(status)
	return customer, nil
}

func (r *RecordRepositorySQLite) SaveRecord(ctx context.Context, record models.Record) error {
	_, err := r.db.ExecContext(ctx, saveRecord,
		record.ID,
		record.Title,
		record.Source,
		record.CapturedAt,
		record.AmountCents,
		string(record.SyncStatus),
		record.UpdatedAt,
	)
	if err != nil {
		r.logger.Err(err).Str("func", "SaveRecord").Str("id", record.ID).Msg("error saving record")
		return fmt.Errorf("error saving record: %w", err)
	}
	return nil
}

func (r *RecordRepositorySQLite) GetRecord(ctx context.Context, id string) (models.Record, error) {
	var (
		record models.Record
		status string
	)

	err := r.db.QueryRowContext(ctx, getRecord, id).Scan(
		&record.ID,
		&record.Title,
		&record.Source,
		&record.CapturedAt,
		&record.AmountCents,
		&status,
		&record.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Record{}, ErrRecordNotFound
	}
	if err != nil {
		r.logger.Err(err).Str("func", "GetRecord").Str("id", id).Msg("error getting record")
		return models.Record{}, fmt.Errorf("error getting record: %w", err)
	}

	record.SyncStatus = models.SyncStatus(status)
	return record, nil
}

func (r *RecordRepositorySQLite) MarkSynced(ctx context.Context, entity string, id string) error {
	query, ok := markSyncedByEntity[entity]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		r.logger.Err(err).Str("func", "MarkSynced").Str("entity", entity).Str("id", id).Msg("error marking record synced")
		return fmt.Errorf("error marking record synced: %w", err)
	}
	return nil
}

func (r *RecordRepositorySQLite) Delete(ctx context.Context, entity string, id string) error {
	query, ok := deleteByEntity[entity]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		r.logger.Err(err).Str("func", "Delete").Str("entity", entity).Str("id", id).Msg("error deleting record")
		return fmt.Errorf("error deleting record: %w", err)
	}
	return nil
}

// ClearAll wipes every primary table atomically so a half-cleared device
// never survives an identity handoff.
func (r *RecordRepositorySQLite) ClearAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting clear transaction: %w", err)
	}
	defer tx.Rollback()

	for _, entity := range models.EntityNames {
		if _, err := tx.ExecContext(ctx, clearByEntity[entity]); err != nil {
			r.logger.Err(err).Str("func", "ClearAll").Str("entity", entity).Msg("error clearing table")
			return fmt.Errorf("error clearing %s: %w", entity, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing clear transaction: %w", err)
	}
	return nil
}
