// Package report persists an aggregated record set to a spreadsheet.
// The column order is a compatibility contract with downstream
// consumers and must not change.
package report

import (
	"fmt"
	"time"

	"magenta-backend/lib/tariff"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Tarifeler"

var headers = []string{
	"Kategori",
	"Paket Adı",
	"İnternet (GB)",
	"Dakika",
	"SMS",
	"Fiyat (₺/ay)",
	"Taahhütsüz Fiyat (₺/ay)",
	"Kaynak",
	"Tarih",
}

var columnWidths = []float64{30, 40, 15, 12, 10, 15, 25, 12, 18}

// WriteXLSX writes the ordered record set to path. capturedAt is the
// run's single shared timestamp; every row carries it regardless of
// when its card was actually scraped.
func WriteXLSX(path string, records []tariff.Record, capturedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	err := f.SetSheetName("Sheet1", sheetName)
	if err != nil {
		return err
	}

	thin := []excelize.Border{
		{Type: "left", Style: 1},
		{Type: "right", Style: 1},
		{Type: "top", Style: 1},
		{Type: "bottom", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"E60000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thin,
	})
	if err != nil {
		return err
	}
	cellStyle, err := f.NewStyle(&excelize.Style{Border: thin})
	if err != nil {
		return err
	}

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	date := capturedAt.Format("2006-01-02 15:04")
	for i, r := range records {
		row := i + 2
		values := []any{
			r.Category,
			r.Name,
			r.GB,
			r.Minutes,
			r.SMS,
			r.Price,
			r.NoCommitmentPrice,
			r.Provider,
			date,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheetName, cell, cell, cellStyle); err != nil {
				return err
			}
		}
	}

	for col, width := range columnWidths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheetName, name, name, width); err != nil {
			return err
		}
	}

	err = f.SaveAs(path)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
