package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Table is a header row plus records in column order.
type Table struct {
	Columns []string
	Rows    [][]string
}

// WriteCSV streams the table to w. Short rows are padded, long rows rejected.
func WriteCSV(w io.Writer, table Table) error {
	if len(table.Columns) == 0 {
		return fmt.Errorf("csv requires at least one column")
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(table.Columns))
	for i, row := range table.Rows {
		if len(row) > len(table.Columns) {
			return fmt.Errorf("row %d has %d fields, want at most %d", i, len(row), len(table.Columns))
		}
		clear(record)
		copy(record, row)
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
