package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/foc-extractor/constants"
	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
	"github.com/joseph-ayodele/foc-extractor/internal/core/pipeline"
)

// DefaultFilename is the workbook name brokers receive.
const DefaultFilename = "FOC_Final_Report.xlsx"

const (
	SheetFOC      = "FOC"
	SheetAll      = "전체"
	SheetWarnings = "경고"
)

// Options control which sheets and columns are written.
type Options struct {
	Columns         []constants.Column // nil -> constants.DefaultColumns
	IncludeAll      bool               // add the 전체 sheet with every item and its FOC flag
	IncludeWarnings bool               // add the 경고 sheet
}

var columnWidths = map[constants.Column]float64{
	constants.ColDocumentName:      28,
	constants.ColDeclarationNumber: 20,
	constants.ColTradeCode:         10,
	constants.ColLineIndex:         10,
	constants.ColItemTag:           10,
	constants.ColModelSpec:         60,
	constants.ColQuantity:          14,
	constants.ColNetWeight:         16,
	constants.ColDeclaredPrice:     18,
	constants.ColIsFOC:             10,
}

// Service renders batch reports as broker-facing workbooks.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ReportXLSX returns the workbook bytes for report. The FOC sheet is always present,
// with only a header row when nothing qualified.
func (s *Service) ReportXLSX(report *pipeline.BatchReport, opts Options) ([]byte, error) {
	start := time.Now()
	cols := opts.Columns
	if len(cols) == 0 {
		cols = constants.DefaultColumns
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_failed", "error", err)
		}
	}()

	if err := f.SetSheetName("Sheet1", SheetFOC); err != nil {
		return nil, err
	}
	if err := writeRecords(f, SheetFOC, cols, report.Records); err != nil {
		return nil, err
	}

	if opts.IncludeAll {
		allCols := withColumn(cols, constants.ColIsFOC)
		if _, err := f.NewSheet(SheetAll); err != nil {
			return nil, err
		}
		if err := writeRecords(f, SheetAll, allCols, report.AllRecords); err != nil {
			return nil, err
		}
	}
	if opts.IncludeWarnings {
		if _, err := f.NewSheet(SheetWarnings); err != nil {
			return nil, err
		}
		if err := writeWarnings(f, report.Warnings); err != nil {
			return nil, err
		}
	}

	idx, _ := f.GetSheetIndex(SheetFOC)
	f.SetActiveSheet(idx)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"batch_id", report.BatchID.String(),
		"rows", len(report.Records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// ReportFilename names a stored run's workbook, e.g. FOC_Final_Report_20260409_1a2b3c4d.xlsx.
func ReportFilename(report *pipeline.BatchReport) string {
	if report == nil {
		return DefaultFilename
	}
	return fmt.Sprintf("FOC_Final_Report_%s_%s.xlsx",
		report.StartedAt.UTC().Format("20060102"), report.BatchID.String()[:8])
}

func writeRecords(f *excelize.File, sheet string, cols []constants.Column, recs []declaration.OutputRecord) error {
	header := make([]any, len(cols))
	for i, c := range cols {
		header[i] = c.Label()
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for r, rec := range recs {
		vals := rec.Row(cols)
		row := make([]any, len(vals))
		for i, v := range vals {
			row[i] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	for i, c := range cols {
		name, _ := excelize.ColumnNumberToName(i + 1)
		w := columnWidths[c]
		if w == 0 {
			w = 16
		}
		_ = f.SetColWidth(sheet, name, name, w)
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeWarnings(f *excelize.File, warns []declaration.Warning) error {
	header := []any{"파일명", "유형", "란번호", "내용"}
	if err := f.SetSheetRow(SheetWarnings, "A1", &header); err != nil {
		return err
	}
	for r, w := range warns {
		row := []any{w.Document, string(w.Kind), w.Line, w.Message}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(SheetWarnings, cell, &row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(SheetWarnings, "A", "A", 28)
	_ = f.SetColWidth(SheetWarnings, "B", "C", 22)
	_ = f.SetColWidth(SheetWarnings, "D", "D", 80)
	return nil
}

func withColumn(cols []constants.Column, c constants.Column) []constants.Column {
	for _, have := range cols {
		if have == c {
			return cols
		}
	}
	return append(append([]constants.Column(nil), cols...), c)
}
