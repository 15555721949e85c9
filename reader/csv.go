// Package reader loads tabular import files into raw rows.
package reader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Janier1992/Negocio-SaaS-sub001/models"
)

// ReadCSVFile opens filename and reads every data row.
func ReadCSVFile(filename string) ([]models.ImportRow, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads a header row followed by data rows. Ragged rows are
// tolerated: extra cells are dropped, missing cells stay absent from the
// row map. Rows with no content at all are skipped.
func ReadCSV(r io.Reader) ([]models.ImportRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("import file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []models.ImportRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}

		row := make(models.ImportRow, len(header))
		empty := true
		for i, cell := range record {
			if i >= len(header) || header[i] == "" {
				continue
			}
			row[header[i]] = cell
			if strings.TrimSpace(cell) != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
