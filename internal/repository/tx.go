// Package repository implements the persistence layer with GORM over PostgreSQL.
package repository

import (
	"context"

	"gorm.io/gorm"
)

type txContextKey struct{}

// TxManager runs a unit of work inside one database transaction. Repositories
// constructed from the same *gorm.DB pick the transaction up from the context,
// so a multi-write operation either lands completely or not at all.
type TxManager struct {
	db *gorm.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx executes fn in a transaction. The transaction handle is carried on
// the derived context; any error from fn rolls everything back.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

// dbFromContext returns the transaction bound to ctx, or falls back to the
// repository's own connection.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}
