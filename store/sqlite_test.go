package store

import (
	"context"
	"errors"
	"testing"

	"github.com/Janier1992/Negocio-SaaS-sub001/models"
)

func testSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s := testSQLiteStore(t)
	ctx := context.Background()

	err := s.InsertBatch(ctx, "biz-1", []models.Record{
		{Code: "PROD001", Name: "Cafe", Price: 1200, Stock: 150, MinStock: 10},
		{Code: "PROD002", Name: "Azucar", Description: "Refinada", Price: 2500},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	existing, err := s.FetchByKeys(ctx, []string{"PROD001", "PROD002", "PROD999"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(existing) != 2 {
		t.Fatalf("expected 2 existing records, got %d", len(existing))
	}
	byCode := make(map[string]string, len(existing))
	for _, rec := range existing {
		if rec.ID == "" {
			t.Fatalf("record %s missing id", rec.Code)
		}
		byCode[rec.Code] = rec.ID
	}
	if _, ok := byCode["PROD001"]; !ok {
		t.Error("PROD001 not returned")
	}

	if err := s.UpdateByID(ctx, byCode["PROD001"], models.Record{
		Code: "PROD001", Name: "Cafe Premium", Price: 1500, Stock: 90,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestSQLiteStoreFetchEmptyKeys(t *testing.T) {
	s := testSQLiteStore(t)

	existing, err := s.FetchByKeys(context.Background(), nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(existing) != 0 {
		t.Fatalf("expected no records, got %d", len(existing))
	}
}

func TestSQLiteStoreInsertDuplicateRollsBack(t *testing.T) {
	s := testSQLiteStore(t)
	ctx := context.Background()

	if err := s.InsertBatch(ctx, "", []models.Record{{Code: "PROD001", Name: "Cafe"}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := s.InsertBatch(ctx, "", []models.Record{
		{Code: "PROD100", Name: "Nuevo"},
		{Code: "PROD001", Name: "Duplicado"},
	})
	if err == nil {
		t.Fatal("expected unique constraint error")
	}

	existing, err := s.FetchByKeys(ctx, []string{"PROD100"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(existing) != 0 {
		t.Fatal("failed batch must leave no partial rows behind")
	}
}

func TestSQLiteStoreUpdateMissingID(t *testing.T) {
	s := testSQLiteStore(t)

	err := s.UpdateByID(context.Background(), "no-such-id", models.Record{Name: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	var reqErr RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("missing record should be a terminal request error, got %v", err)
	}
}
