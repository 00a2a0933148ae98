package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// table is one CSV file staged for import: its derived name, header, rows,
// and the inferred affinity per column.
type table struct {
	name    string
	columns []string
	types   []string
	rows    [][]string
}

var nonAlnum = regexp.MustCompile(`[^0-9a-zA-Z]+`)

// tableNameFor derives a SQLite table name from a CSV path relative to the
// data directory: transactions/foreclosure_lots.csv becomes
// transactions_foreclosure_lots.
func tableNameFor(rel string) string {
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".csv")
	sanitized := nonAlnum.ReplaceAllString(rel, "_")
	return strings.ToLower(strings.Trim(sanitized, "_"))
}

// loadTable reads one CSV into memory with cell whitespace trimmed and
// column types inferred.
func loadTable(path, rel string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "export: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "export: %s is missing a header row", rel)
	}
	// Strip a UTF-8 BOM; some city exports carry one.
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	t := &table{name: tableNameFor(rel), columns: header}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "export: read %s", rel)
		}
		cleaned := make([]string, len(header))
		for i := range header {
			if i < len(row) {
				cleaned[i] = strings.TrimSpace(row[i])
			}
		}
		t.rows = append(t.rows, cleaned)
	}
	t.types = inferColumnTypes(t.columns, t.rows)
	return t, nil
}

// inferColumnTypes assigns each column the narrowest affinity that fits
// every non-empty value, demoting INTEGER to REAL to TEXT as values
// disagree. Empty cells are NULLs and never influence the type.
func inferColumnTypes(columns []string, rows [][]string) []string {
	types := make([]string, len(columns))
	for i := range types {
		types[i] = "INTEGER"
	}
	for _, row := range rows {
		for i := range columns {
			value := row[i]
			if value == "" || types[i] == "TEXT" {
				continue
			}
			switch types[i] {
			case "INTEGER":
				if isInt(value) {
					continue
				}
				if isFloat(value) {
					types[i] = "REAL"
				} else {
					types[i] = "TEXT"
				}
			case "REAL":
				if !isFloat(value) {
					types[i] = "TEXT"
				}
			}
		}
	}
	return types
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// convertValue maps a CSV cell to the driver value matching the column
// affinity; empty cells become NULL.
func convertValue(value, columnType string) any {
	if value == "" {
		return nil
	}
	switch columnType {
	case "INTEGER":
		n, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return n
		}
	case "REAL":
		f, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return f
		}
	}
	return value
}
