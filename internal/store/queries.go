// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Maxim Karev

package store

const (
	insertQueueEntry = `
		INSERT INTO outbox (
			entity,
			entity_id,
			action,
			payload,
			payload_snapshot,
			timestamp,
			attempts,
			failed,
			next_attempt_at,
			last_error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	findActiveQueueEntry = `
		SELECT
			id,
			entity,
			entity_id,
			action,
			payload,
			payload_snapshot,
			timestamp,
			attempts,
			failed,
			next_attempt_at,
			last_error
		FROM outbox
		WHERE entity = ? AND action = ? AND entity_id = ? AND failed = 0;`

	updateQueueEntryPayload = `
		UPDATE outbox SET
			payload = ?
		WHERE id = ?;`

	markQueueEntryAttempt = `
		UPDATE outbox SET
			attempts        = ?,
			next_attempt_at = ?,
			last_error      = ?
		WHERE id = ?;`

	markQueueEntryFailed = `
		UPDATE outbox SET
			failed          = 1,
			next_attempt_at = NULL,
			last_error      = ?
		WHERE id = ?;`

	resetQueueEntry = `
		UPDATE outbox SET
			failed          = 0,
			attempts        = 0,
			next_attempt_at = NULL,
			last_error      = NULL
		WHERE id = ?;`

	deleteQueueEntry = `
		DELETE FROM outbox
		WHERE id = ?;`

	deleteAllQueueEntries = `
		DELETE FROM outbox;`

	countQueueEntries = `
		SELECT
			COUNT(CASE WHEN failed = 0 THEN 1 END),
			COUNT(CASE WHEN failed = 1 THEN 1 END)
		FROM outbox;`

	getIdentityMarker = `
		SELECT principal_id
		FROM identity_marker
		WHERE id = 1;`

	setIdentityMarker = `
		INSERT INTO identity_marker (id, principal_id, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			principal_id = excluded.principal_id,
			updated_at   = excluded.updated_at;`

	saveInvoice = `
		INSERT INTO invoices (
			id, number, customer_id, total_cents, currency, issued_at, notes, sync_status, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			number      = excluded.number,
			customer_id = excluded.customer_id,
			total_cents = excluded.total_cents,
			currency    = excluded.currency,
			issued_at   = excluded.issued_at,
			notes       = excluded.notes,
			sync_status = excluded.sync_status,
			updated_at  = excluded.updated_at;`

	getInvoice = `
		SELECT id, number, customer_id, total_cents, currency, issued_at, notes, sync_status, updated_at
		FROM invoices
		WHERE id = ?;`

	saveCustomer = `
		INSERT INTO customers (
			id, name, email, tax_id, sync_status, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name        = excluded.name,
			email       = excluded.email,
			tax_id      = excluded.tax_id,
			sync_status = excluded.sync_status,
			updated_at  = excluded.updated_at;`

	getCustomer = `
		SELECT id, name, email, tax_id, sync_status, updated_at
		FROM customers
		WHERE id = ?;`

	saveRecord = `
		INSERT INTO records (
			id, title, source, captured_at, amount_cents, sync_status, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title        = excluded.title,
			source       = excluded.source,
			captured_at  = excluded.captured_at,
			amount_cents = excluded.amount_cents,
			sync_status  = excluded.sync_status,
			updated_at   = excluded.updated_at;`

	getRecord = `
		SELECT id, title, source, captured_at, amount_cents, sync_status, updated_at
		FROM records
		WHERE id = ?;`
)

// Per-entity statements keyed by primary table name. Entity names are always
// validated against models.EntityNames before these are looked up.
var (
	markSyncedByEntity = map[string]string{
		"invoices":  `UPDATE invoices SET sync_status = 'synced' WHERE id = ?;`,
		"customers": `UPDATE customers SET sync_status = 'synced' WHERE id = ?;`,
		"records":   `UPDATE records SET sync_status = 'synced' WHERE id = ?;`,
	}

	deleteByEntity = map[string]string{
		"invoices":  `DELETE FROM invoices WHERE id = ?;`,
		"customers": `DELETE FROM customers WHERE id = ?;`,
		"records":   `DELETE FROM records WHERE id = ?;`,
	}

	clearByEntity = map[string]string{
		"invoices":  `DELETE FROM invoices;`,
		"customers": `DELETE FROM customers;`,
		"records":   `DELETE FROM records;`,
	}
)
