package fetcher

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// loadXLSX reads the first sheet of a workbook; the first row is the
// header. Some councils started exporting spreadsheets instead of CSV.
func loadXLSX(ctx context.Context, path string) ([]Record, error) {
	wb, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}
	if len(wb.Sheets) == 0 {
		return nil, eris.Errorf("xlsx: %s has no sheets", path)
	}

	sheet := wb.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, nil
	}

	header := make([]string, 0, len(sheet.Rows[0].Cells))
	for _, cell := range sheet.Rows[0].Cells {
		header = append(header, cell.String())
	}

	var rows [][]string
	for _, row := range sheet.Rows[1:] {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "xlsx: context cancelled")
		}

		values := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			values = append(values, cell.String())
		}
		rows = append(rows, values)
	}

	return headerRecords(header, rows), nil
}
