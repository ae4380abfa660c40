package tables

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ReadCSV loads a table from a headered CSV file. A column whose values all
// parse as numbers becomes numeric; anything else becomes an identifier
// column. The table is named after the file.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: empty file", path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t := New(name)
	header := records[0]
	rows := records[1:]

	for c, col := range header {
		raw := make([]string, len(rows))
		for i, row := range rows {
			if c >= len(row) {
				return nil, fmt.Errorf("read %s: row %d has %d fields, want %d",
					path, i+2, len(row), len(header))
			}
			raw[i] = strings.TrimSpace(row[c])
		}
		nums := make([]float64, len(raw))
		numeric := true
		for i, s := range raw {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				numeric = false
				break
			}
			nums[i] = v
		}
		if numeric {
			if err := t.AddNum(col, nums); err != nil {
				return nil, err
			}
		} else {
			if err := t.AddStr(col, raw); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}
