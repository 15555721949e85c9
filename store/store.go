// Package store provides access to the remote record collections the
// import engine reconciles against.
package store

import (
	"context"

	"github.com/Janier1992/Negocio-SaaS-sub001/models"
)

// ExistingRecord is the minimal identity of a record already in the store.
type ExistingRecord struct {
	ID   string
	Code string
}

// RecordStore is the surface the import engine needs. Implementations are
// injected into the engine; nothing reads a store from ambient scope.
type RecordStore interface {
	// FetchByKeys returns id+code pairs for the natural keys that already
	// exist. Keys with no match are simply absent from the result.
	FetchByKeys(ctx context.Context, codes []string) ([]ExistingRecord, error)
	// InsertBatch writes new records in a single call, scoped to the
	// owning business.
	InsertBatch(ctx context.Context, businessID string, records []models.Record) error
	// UpdateByID rewrites the mutable fields of one record. The natural
	// key is never part of the payload.
	UpdateByID(ctx context.Context, id string, record models.Record) error
}
