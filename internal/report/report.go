// Package report projects validation results into tabular exports for
// operations review. Both writers share one row projection so CSV and XLSX
// outputs never drift apart.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"affirm/internal/validation/models"
)

// Columns is the export header, in order.
var Columns = []string{
	"validation_id",
	"document_id",
	"system_trade_id",
	"status",
	"checker_decision",
	"checker_override_status",
	"checker_override_trade_id",
	"party_a",
	"party_b",
	"trade_date",
	"effective_date",
	"scheduled_termination_date",
	"local_currency",
	"notional_amount",
	"machine_confidence",
	"auto_passed",
	"checked_at",
	"checker_comment",
	"created_at",
}

// Row projects one validation result into export cells, aligned with Columns.
func Row(r *models.ValidationResult) []string {
	checkedAt := ""
	if r.CheckedAt != nil {
		checkedAt = r.CheckedAt.UTC().Format(time.RFC3339)
	}
	notional := ""
	if r.NotionalAmount != 0 {
		notional = strconv.FormatFloat(r.NotionalAmount, 'f', -1, 64)
	}
	return []string{
		r.ID.String(),
		r.DocumentID.String(),
		r.SystemTradeID,
		string(r.Status),
		string(r.CheckerDecision),
		string(r.CheckerOverrideStatus),
		r.CheckerOverrideTradeID,
		r.PartyA,
		r.PartyB,
		r.TradeDate,
		r.EffectiveDate,
		r.ScheduledTerminationDate,
		r.LocalCurrency,
		notional,
		strconv.FormatFloat(r.MachineConfidence, 'f', 4, 64),
		strconv.FormatBool(r.AutoPassed),
		checkedAt,
		r.CheckerComment,
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// WriteCSV streams the results as CSV, header first.
func WriteCSV(w io.Writer, results []models.ValidationResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := range results {
		if err := cw.Write(Row(&results[i])); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

const xlsxSheet = "Validations"

// BuildXLSX renders the results as a single-sheet workbook with a frozen
// header row. The caller owns closing the returned file.
func BuildXLSX(results []models.ValidationResult) (*excelize.File, error) {
	f := excelize.NewFile()
	index, err := f.NewSheet(xlsxSheet)
	if err != nil {
		return nil, fmt.Errorf("create report sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write report header: %w", err)
	}

	for i := range results {
		cells := Row(&results[i])
		row := make([]any, len(cells))
		for j, c := range cells {
			row[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("address report row: %w", err)
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write report row: %w", err)
		}
	}

	if err := f.SetPanes(xlsxSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header row: %w", err)
	}
	return f, nil
}
