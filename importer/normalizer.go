package importer

import (
	"fmt"
	"math"
	"strings"

	"github.com/Janier1992/Negocio-SaaS-sub001/models"
	"github.com/Janier1992/Negocio-SaaS-sub001/parser"
)

const defaultCacheSize = 1024

// NormalizeOptions configures how raw rows map onto records.
type NormalizeOptions struct {
	// Columns names the spreadsheet columns per field; empty names mean the
	// field is not part of this schema.
	Columns models.ColumnMap
	// RequirePrice rejects rows without a positive price. Product imports
	// set it; supplier imports have no price column.
	RequirePrice bool
	// CacheSize bounds the money-parse memo cache.
	CacheSize int
}

// Normalizer converts raw rows into validated records.
type Normalizer struct {
	opts  NormalizeOptions
	money *parser.MoneyCache
}

// NewNormalizer validates the column mapping and builds the parse cache.
func NewNormalizer(opts NormalizeOptions) (*Normalizer, error) {
	if opts.Columns.Code == "" {
		return nil, fmt.Errorf("code column is required")
	}
	if opts.Columns.Name == "" {
		return nil, fmt.Errorf("name column is required")
	}
	if opts.RequirePrice && opts.Columns.Price == "" {
		return nil, fmt.Errorf("price column is required when price is mandatory")
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = defaultCacheSize
	}

	money, err := parser.NewMoneyCache(opts.CacheSize, math.NaN())
	if err != nil {
		return nil, fmt.Errorf("build parse cache: %w", err)
	}
	return &Normalizer{opts: opts, money: money}, nil
}

// Normalize validates one row. On failure the returned rejection names the
// offending field; the record is only meaningful when rejection is nil.
func (n *Normalizer) Normalize(index int, row models.ImportRow) (models.Record, *models.Rejection) {
	cols := n.opts.Columns

	record := models.Record{
		Code: strings.TrimSpace(row[cols.Code]),
		Name: strings.TrimSpace(row[cols.Name]),
	}
	if record.Code == "" {
		return models.Record{}, reject(index, cols.Code, "missing natural key")
	}
	if record.Name == "" {
		return models.Record{}, reject(index, cols.Name, "missing name")
	}
	if cols.Description != "" {
		record.Description = strings.TrimSpace(row[cols.Description])
	}

	if cols.Price != "" {
		raw := strings.TrimSpace(row[cols.Price])
		if raw == "" && !n.opts.RequirePrice {
			record.Price = 0
		} else {
			price := n.money.Parse(raw)
			if math.IsNaN(price) || math.IsInf(price, 0) {
				return models.Record{}, reject(index, cols.Price, fmt.Sprintf("invalid price %q", raw))
			}
			if n.opts.RequirePrice && price <= 0 {
				return models.Record{}, reject(index, cols.Price, fmt.Sprintf("price must be positive, got %v", price))
			}
			record.Price = price
		}
	}

	stock, rejection := n.countField(index, row, cols.Stock)
	if rejection != nil {
		return models.Record{}, rejection
	}
	record.Stock = stock

	minStock, rejection := n.countField(index, row, cols.MinStock)
	if rejection != nil {
		return models.Record{}, rejection
	}
	record.MinStock = minStock

	return record, nil
}

// NormalizeAll validates every row and resolves duplicate natural keys
// inside the batch: the later row wins, keeping the position of the first
// occurrence so output order stays deterministic.
func (n *Normalizer) NormalizeAll(rows []models.ImportRow) ([]models.Record, []models.Rejection) {
	var records []models.Record
	var rejections []models.Rejection
	position := make(map[string]int, len(rows))

	for i, row := range rows {
		record, rejection := n.Normalize(i, row)
		if rejection != nil {
			rejections = append(rejections, *rejection)
			continue
		}
		if at, seen := position[record.Code]; seen {
			records[at] = record
			continue
		}
		position[record.Code] = len(records)
		records = append(records, record)
	}
	return records, rejections
}

// countField parses a non-negative integer cell, defaulting absent cells
// (or an unconfigured column) to zero.
func (n *Normalizer) countField(index int, row models.ImportRow, column string) (int, *models.Rejection) {
	if column == "" {
		return 0, nil
	}
	raw := strings.TrimSpace(row[column])
	if raw == "" {
		return 0, nil
	}

	value, err := parser.ParseCount(raw)
	if err != nil {
		return 0, reject(index, column, err.Error())
	}
	if value < 0 {
		return 0, reject(index, column, fmt.Sprintf("must not be negative, got %d", value))
	}
	return value, nil
}

func reject(row int, field, reason string) *models.Rejection {
	return &models.Rejection{Row: row, Field: field, Reason: reason}
}
