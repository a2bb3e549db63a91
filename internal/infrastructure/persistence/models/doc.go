// Package models contains GORM persistence models for the ledger tables.
// Domain types in internal/domain stay free of ORM tags; every model here has
// a ToDomain method and a ...FromDomain constructor, and repositories only
// ever hand domain values back to callers.
//
// Files:
//   - base.go: shared id/timestamp/version columns
//   - ledger.go: drivers, products, sales and receivable_records
//   - customer_receivable.go: customer debts and their payment/return child rows
//   - audit.go: append-only audit log
//   - inventory_record.go: warehouse snapshots
//   - outbox.go: transactional outbox rows for post-commit events
package models
