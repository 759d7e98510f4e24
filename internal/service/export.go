package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"ysa-registration/internal/model"
)

// ExportHeader is the column set shared by the CSV and XLSX exports.
var ExportHeader = []string{
	"No",
	"Khmer Name",
	"English Name",
	"Gender",
	"DOB",
	"T-Shirt",
	"Phone",
	"Stake",
	"Ward",
	"Record Number",
	"Payment Status",
	"Other Reason",
	"Media Consent",
	"Paid",
	"Timestamp",
}

func exportRow(i int, reg model.Registration) []string {
	return []string{
		strconv.Itoa(i + 1),
		reg.FullName,
		reg.EnglishName,
		reg.Gender,
		reg.DOB,
		reg.TShirtSize,
		reg.PhoneNumber,
		reg.Stake,
		reg.Ward,
		reg.RecordNumber,
		reg.PaymentStatus,
		reg.OtherReason,
		yesNo(reg.MediaConsent),
		yesNo(reg.IsPaid),
		reg.Timestamp.UTC().Format(time.RFC3339),
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// ExportCSV renders the records as UTF-8 CSV. A byte order mark leads the
// output so spreadsheet applications detect the encoding and render the
// Khmer columns correctly.
func ExportCSV(regs []model.Registration) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")
	w := csv.NewWriter(&buf)
	if err := w.Write(ExportHeader); err != nil {
		return nil, err
	}
	for i, reg := range regs {
		if err := w.Write(exportRow(i, reg)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseCSV reads an export back into records. The row number column is
// display-only and discarded; record identity is not carried by the export.
func ParseCSV(data []byte) ([]model.Registration, error) {
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))
	r := csv.NewReader(bytes.NewReader(data))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty export")
	}
	if len(rows[0]) != len(ExportHeader) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(ExportHeader), len(rows[0]))
	}
	regs := make([]model.Registration, 0, len(rows)-1)
	for n, row := range rows[1:] {
		ts, err := time.Parse(time.RFC3339, row[14])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad timestamp: %w", n+1, err)
		}
		regs = append(regs, model.Registration{
			FullName:      row[1],
			EnglishName:   row[2],
			Gender:        row[3],
			DOB:           row[4],
			TShirtSize:    row[5],
			PhoneNumber:   row[6],
			Stake:         row[7],
			Ward:          row[8],
			RecordNumber:  row[9],
			PaymentStatus: row[10],
			OtherReason:   row[11],
			MediaConsent:  strings.EqualFold(row[12], "Yes"),
			IsPaid:        strings.EqualFold(row[13], "Yes"),
			Timestamp:     ts,
		})
	}
	return regs, nil
}

// ExportXLSX renders the records as a single-sheet workbook with a bold
// header row and sized columns.
func ExportXLSX(regs []model.Registration) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Registrations"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2E7D32"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, title := range ExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, err
		}
	}
	endHeader, _ := excelize.CoordinatesToCellName(len(ExportHeader), 1)
	if err := f.SetCellStyle(sheet, "A1", endHeader, headerStyle); err != nil {
		return nil, err
	}

	for i, reg := range regs {
		for col, value := range exportRow(i, reg) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	// Khmer names and locations need wider columns than excelize defaults.
	if err := f.SetColWidth(sheet, "B", "O", 20); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
