// Package export writes the project table as an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/forestops/procdash/internal/domain/dashboard"
	"github.com/forestops/procdash/internal/domain/project"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the name of the single worksheet.
const SheetName = "פרויקטים"

// Column is one table column.
type Column struct {
	Field  string
	Header string
	Money  bool
	Width  float64
}

// Columns lists the table columns in display order.
var Columns = []Column{
	{Field: "year", Header: "שנה", Width: 8},
	{Field: "area", Header: "שטח רכש", Width: 18},
	{Field: "dept", Header: "מחלקה", Width: 14},
	{Field: "domain", Header: "תחום", Width: 14},
	{Field: "buyer", Header: "קניין", Width: 14},
	{Field: "division", Header: "חטיבה", Width: 14},
	{Field: "unit", Header: "יחידה", Width: 14},
	{Field: "supervisor", Header: "גורם מלווה", Width: 14},
	{Field: "kind", Header: "סוג התקשרות", Width: 20},
	{Field: "subject", Header: "נושא", Width: 28},
	{Field: "activity", Header: "פעילות", Width: 14},
	{Field: "projStatus", Header: "סטטוס פרויקט", Width: 12},
	{Field: "estimatePeriodic", Header: "אומדן תקופתי", Money: true, Width: 16},
	{Field: "planStart", Header: "מועד התחלה מתוכנן", Width: 14},
	{Field: "planEnd", Header: "מועד סיום מתוכנן", Width: 14},
	{Field: "actualStart", Header: "מועד התחלה בפועל", Width: 14},
	{Field: "actualEnd", Header: "מועד סיום בפועל", Width: 14},
	{Field: "task", Header: "משימה", Width: 20},
	{Field: "taskOwner", Header: "אחראי משימה", Width: 14},
	{Field: "taskDue", Header: "תאריך יעד", Width: 12},
	{Field: "taskStatus", Header: "סטטוס משימה", Width: 12},
	{Field: "notes", Header: "הערות", Width: 28},
	{Field: "currentOrderNo", Header: "מספר הזמנה נוכחית", Width: 16},
	{Field: "currentSuppliers", Header: "ספקים נוכחיים", Width: 24},
	{Field: "currentPeriodic", Header: "היקף תקופתי נוכחי", Money: true, Width: 16},
	{Field: "currentAnnual", Header: "היקף שנתי נוכחי", Money: true, Width: 16},
	{Field: "currentEnd", Header: "סיום התקשרות נוכחית", Width: 14},
	{Field: "newOrderNo", Header: "מספר הזמנה חדשה", Width: 16},
	{Field: "winningPeriodic", Header: "הצעה זוכה תקופתית", Money: true, Width: 16},
	{Field: "winningAnnual", Header: "הצעה זוכה שנתית", Money: true, Width: 16},
	{Field: "agreementYears", Header: "שנות הסכם", Width: 10},
	{Field: "optionYears", Header: "שנות אופציה", Width: 10},
	{Field: "totalYears", Header: "סה״כ שנים", Width: 10},
}

// Row renders one project as display strings, money columns formatted as
// currency.
func Row(p *project.Project) []string {
	row := make([]string, len(Columns))
	for i, col := range Columns {
		v := p.Field(col.Field)
		if col.Money {
			v = dashboard.FormatCurrency(v)
		}
		row[i] = v
	}
	return row
}

// Workbook builds a workbook with a header row and one row per project.
// The caller closes the returned file.
func Workbook(projects []project.Project) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	rtl := true
	if err := f.SetSheetView(SheetName, 0, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		f.Close()
		return nil, fmt.Errorf("set sheet view: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	header := make([]any, len(Columns))
	for i, col := range Columns {
		header[i] = col.Header
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, name, name, col.Width); err != nil {
			f.Close()
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(Columns))
	if err := f.SetCellStyle(SheetName, "A1", last+"1", headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i := range projects {
		values := Row(&projects[i])
		cells := make([]any, len(values))
		for j, v := range values {
			cells[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	return f, nil
}

// Write streams the workbook for projects to w.
func Write(w io.Writer, projects []project.Project) error {
	f, err := Workbook(projects)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
