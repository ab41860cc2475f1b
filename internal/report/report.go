// Package report writes best-email records to the formats the mailer step consumes.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/outreachkit/prospector/internal/pipeline"
)

var columns = []string{"user_id", "address", "verdict", "source", "processed_at"}

func recordRow(record pipeline.BestEmailRecord) []string {
	return []string{
		record.UserID,
		record.Address,
		string(record.Verdict),
		string(record.Source),
		record.ProcessedAt.UTC().Format(time.RFC3339),
	}
}

// WriteCSV writes records as CSV with a header row.
func WriteCSV(w io.Writer, records []pipeline.BestEmailRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(recordRow(record)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []pipeline.BestEmailRecord) error {
	if records == nil {
		records = []pipeline.BestEmailRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// WriteXLSX writes records as a single-sheet workbook with a header row.
func WriteXLSX(w io.Writer, records []pipeline.BestEmailRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for col, name := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("header cell name: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("write header cell: %w", err)
		}
	}
	for row, record := range records {
		for col, value := range recordRow(record) {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("write cell: %w", err)
			}
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
