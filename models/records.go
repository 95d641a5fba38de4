package models

import "time"

// SyncStatus tracks whether a local record has been confirmed by the remote
// store.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
)

// Primary-entity table names, in the order the reconciler clears them.
const (
	EntityInvoices  = "invoices"
	EntityCustomers = "customers"
	EntityRecords   = "records"
)

// EntityNames lists every primary-entity table owned by the UI layer and
// cleared by the identity-change reconciler.
var EntityNames = []string{EntityInvoices, EntityCustomers, EntityRecords}

// KnownEntity reports whether entity names one of the primary tables.
func KnownEntity(entity string) bool {
	for _, name := range EntityNames {
		if name == entity {
			return true
		}
	}
	return false
}

// Invoice is a locally stored invoice record.
type Invoice struct {
	// ID is the client-assigned UUID, stable across sync retries.
	ID string

	// Number is the human-facing invoice number.
	Number string

	// CustomerID references the customer the invoice was issued to.
	CustomerID string

	// TotalCents is the invoice total in minor currency units.
	TotalCents int64

	// Currency is the ISO 4217 code, e.g. "EUR".
	Currency string

	// IssuedAt is the invoice issue date.
	IssuedAt time.Time

	// Notes holds free-form remarks.
	Notes string

	SyncStatus SyncStatus
	UpdatedAt  time.Time
}

// Customer is a locally stored customer record.
type Customer struct {
	ID    string
	Name  string
	Email string

	// TaxID is the customer's tax registration number, empty if unknown.
	TaxID string

	SyncStatus SyncStatus
	UpdatedAt  time.Time
}

// Record is a free-form document record, typically produced by the OCR
// upload screen before it is promoted into an invoice.
type Record struct {
	ID    string
	Title string

	// Source names where the document came from, e.g. "ocr-upload".
	Source string

	// CapturedAt is when the document was scanned or photographed.
	CapturedAt time.Time

	// AmountCents is the detected amount in minor currency units, zero if
	// recognition found none.
	AmountCents int64

	SyncStatus SyncStatus
	UpdatedAt  time.Time
}
