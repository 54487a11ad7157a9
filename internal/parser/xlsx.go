package parser

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
)

// extractSpreadsheet renders every sheet as a "## Sheet:" block of
// tab-separated rows. Workbooks excelize rejects are retried with tealeg/xlsx.
func extractSpreadsheet(path string) ([]section, error) {
	content, err := excelizeSheets(path)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("excelize failed, falling back to xlsx reader")
		content, err = xlsxSheets(path)
		if err != nil {
			return nil, err
		}
	}
	return []section{{content: content}}, nil
}

func excelizeSheets(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var text strings.Builder
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return "", fmt.Errorf("sheet %s: %v", sheetName, err)
		}
		writeSheet(&text, sheetName, rows)
	}
	return text.String(), nil
}

func xlsxSheets(path string) (string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return "", err
	}

	var text strings.Builder
	for _, sheet := range f.Sheets {
		rows := make([][]string, 0, len(sheet.Rows))
		for _, row := range sheet.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			rows = append(rows, cells)
		}
		writeSheet(&text, sheet.Name, rows)
	}
	return text.String(), nil
}

// writeSheet skips sheets without any non-blank cell.
func writeSheet(text *strings.Builder, name string, rows [][]string) {
	var body strings.Builder
	hasText := false
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				body.WriteByte('\t')
			}
			body.WriteString(cell)
			if strings.TrimSpace(cell) != "" {
				hasText = true
			}
		}
		body.WriteByte('\n')
	}
	if !hasText {
		return
	}
	if text.Len() > 0 {
		text.WriteByte('\n')
	}
	fmt.Fprintf(text, "## Sheet: %s\n", name)
	text.WriteString(body.String())
}
