// Package store owns the on-disk CSV datasets: the case registry, the lots
// and auction-result stores, the exclusion log, and the read-only recorded
// sales comparison set. The reconcile driver is the only writer; each store
// is read fully into memory, mutated there, and rewritten in one pass.
package store

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// readRows reads an entire CSV file and verifies its header. A missing file
// yields no rows and no error, so a fresh data directory just works.
func readRows(path string, wantHeader []string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "store: read %s", path)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	if len(header) < len(wantHeader) {
		return nil, eris.Errorf("store: %s: expected columns %v, got %v", path, wantHeader, header)
	}
	for i, col := range wantHeader {
		if header[i] != col {
			return nil, eris.Errorf("store: %s: expected column %d to be %q, got %q", path, i, col, header[i])
		}
	}
	return rows[1:], nil
}

// writeRows rewrites a CSV file in full. The write goes to a temp file in
// the same directory and is renamed into place, so a crash mid-write never
// clobbers the previous dataset. encoding/csv quotes a field only when it
// has to, which keeps diffs across runs minimal.
func writeRows(path string, header []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "store: mkdir %s", dir)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrapf(err, "store: temp file for %s", path)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return eris.Wrapf(err, "store: write header %s", path)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return eris.Wrapf(err, "store: write rows %s", path)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return eris.Wrapf(err, "store: flush %s", path)
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrapf(err, "store: close temp %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return eris.Wrapf(err, "store: rename into %s", path)
	}
	return nil
}
