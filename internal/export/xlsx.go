package export

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the registrations.
const SheetName = "Submissions"

const (
	headerFill  = "ADD8E6"
	maxColWidth = 60.0
	minColWidth = 10.0
)

func thinBorders() []excelize.Border {
	sides := []string{"left", "right", "top", "bottom"}
	out := make([]excelize.Border, len(sides))
	for i, s := range sides {
		out[i] = excelize.Border{Type: s, Color: "000000", Style: 1}
	}
	return out
}

// XLSX renders t as a workbook with a bold, light-blue, centred header row.
// Multiple options share a cell, one per line.
func XLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("cell style: %w", err)
	}

	header := t.Header()
	widths := make([]float64, len(header))
	track := func(col int, v string) {
		for _, line := range strings.Split(v, "\n") {
			if w := float64(utf8.RuneCountInString(line)) + 2; w > widths[col] {
				widths[col] = w
			}
		}
	}

	for i, h := range header {
		if err := setCell(f, i+1, 1, h); err != nil {
			return nil, err
		}
		track(i, h)
	}
	for r, row := range t.Rows {
		values := make([]string, 0, len(header))
		values = append(values, row.Email, row.Date.Format(DateLayout))
		for _, v := range row.Values {
			values = append(values, strings.Join(v, "\n"))
		}
		for i, v := range values {
			if err := setCell(f, i+1, r+2, v); err != nil {
				return nil, err
			}
			track(i, v)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	if len(t.Rows) > 0 {
		corner, err := excelize.CoordinatesToCellName(len(header), len(t.Rows)+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(SheetName, "A2", corner, cellStyle); err != nil {
			return nil, fmt.Errorf("style rows: %w", err)
		}
	}
	for i, w := range widths {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(SheetName, name, name, clamp(w)); err != nil {
			return nil, fmt.Errorf("column width: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func setCell(f *excelize.File, col, row int, v string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellStr(SheetName, cell, v); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return nil
}

func clamp(w float64) float64 {
	switch {
	case w < minColWidth:
		return minColWidth
	case w > maxColWidth:
		return maxColWidth
	}
	return w
}
