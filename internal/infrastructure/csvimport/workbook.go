package csvimport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ParseWorkbook reads column A (code) and B (name) of the first sheet
func ParseWorkbook(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	result := &Result{}
	for i, row := range rows {
		result.add(i+1, row)
	}
	return result, nil
}
