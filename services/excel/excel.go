// Package excel reads and writes the spreadsheets used by list page import and export.
package excel

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/campus/core/page"
)

// ContentType of the files produced by Writer.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const maxSheetName = 31

var ErrNoSheet = errors.New("workbook has no sheet")

type Writer struct{}

var _ page.Exporter = Writer{}

// Write encodes t as an .xlsx workbook with a single sheet named after the table.
// The header row is bold and frozen.
func (Writer) Write(w io.Writer, t page.Table) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cErr := f.Close(); err == nil && cErr != nil {
			err = errors.Wrap(cErr, "closing workbook")
		}
	}()

	sheet := sheetName(t.Name)
	if err = f.SetSheetName("Sheet1", sheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	if err = f.SetSheetRow(sheet, "A1", &t.Header); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for i, row := range t.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err = f.SetSheetRow(sheet, cell, &row); err != nil {
			return errors.Wrapf(err, "writing row %d", i+2)
		}
	}

	if len(t.Header) > 0 {
		bold, sErr := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if sErr != nil {
			return errors.Wrap(sErr, "creating header style")
		}
		last, _ := excelize.CoordinatesToCellName(len(t.Header), 1)
		if err = f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return errors.Wrap(err, "styling header")
		}
		if err = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return errors.Wrap(err, "freezing header")
		}
	}

	if _, err = f.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

type Reader struct{}

var _ page.Importer = Reader{}

// Read parses the first sheet of an .xlsx workbook. The first row holds the headers;
// every following non-empty row becomes a page.Row keyed by header.
func (Reader) Read(r io.Reader) ([]page.Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "reading rows")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	out := make([]page.Row, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		row := make(page.Row, len(header))
		empty := true
		for i, h := range header {
			if strings.TrimSpace(h) == "" {
				continue
			}
			var val string
			if i < len(cells) {
				val = strings.TrimSpace(cells[i])
			}
			if val != "" {
				empty = false
			}
			row[h] = val
		}
		if !empty {
			out = append(out, row)
		}
	}
	return out, nil
}

// sheetName makes a valid sheet name: no []:*?/\ and at most 31 characters.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "Sheet1"
	}
	if rs := []rune(name); len(rs) > maxSheetName {
		name = string(rs[:maxSheetName])
	}
	return name
}
