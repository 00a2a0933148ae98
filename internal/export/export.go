// Package export bundles the project's CSV stores into a single SQLite
// database for the dashboard, which reads it in the browser via a
// WebAssembly SQLite build. One table per CSV, names derived from the
// relative path, numeric columns kept numeric.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "modernc.org/sqlite"
)

// transactionViewTables are the tables unioned into the dashboard's
// transactions_combined view. Boroughs whose CSV is absent are left out of
// the union rather than failing the export.
var transactionViewTables = []string{
	"transactions_manhattan",
	"transactions_bronx",
	"transactions_brooklyn",
	"transactions_queens",
	"transactions_statenisland",
	"transactions_nyc_2018_2022",
}

// Build walks dataDir for CSV files and writes them all into the SQLite
// database at dbPath, replacing any existing tables. saledocs/ holds PDFs,
// not data, and is skipped wholesale.
func Build(ctx context.Context, dataDir, dbPath string) error {
	paths, err := findCSVFiles(dataDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return eris.Errorf("export: no CSV files under %s", dataDir)
	}

	tables, err := loadTables(ctx, dataDir, paths)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return eris.Wrapf(err, "export: mkdir for %s", dbPath)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return eris.Wrapf(err, "export: open %s", dbPath)
	}
	defer db.Close()

	log := zap.L().Named("export")
	for _, t := range tables {
		if err := writeTable(ctx, db, t); err != nil {
			return err
		}
		log.Info("table imported",
			zap.String("table", t.name),
			zap.Int("rows", len(t.rows)),
		)
	}

	if err := createTransactionsView(ctx, db, tables); err != nil {
		return err
	}
	return nil
}

// findCSVFiles lists every CSV under root except the document tree, in
// stable path order.
func findCSVFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "saledocs" || strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "export: walk %s", root)
	}
	sort.Strings(paths)
	return paths, nil
}

// loadTables parses the CSVs concurrently; SQLite writes stay sequential.
func loadTables(ctx context.Context, root string, paths []string) ([]*table, error) {
	tables := make([]*table, len(paths))
	g, _ := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return eris.Wrapf(err, "export: relativize %s", path)
			}
			t, err := loadTable(path, rel)
			if err != nil {
				return err
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// writeTable recreates one table and inserts all rows in a single
// transaction.
func writeTable(ctx context.Context, db *sql.DB, t *table) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "export: begin %s", t.name)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %q`, t.name)); err != nil {
		return eris.Wrapf(err, "export: drop %s", t.name)
	}

	defs := make([]string, len(t.columns))
	for i, col := range t.columns {
		defs[i] = fmt.Sprintf("%q %s", col, t.types[i])
	}
	createSQL := fmt.Sprintf(`CREATE TABLE %q (%s)`, t.name, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, createSQL); err != nil {
		return eris.Wrapf(err, "export: create %s", t.name)
	}

	quoted := make([]string, len(t.columns))
	marks := make([]string, len(t.columns))
	for i, col := range t.columns {
		quoted[i] = fmt.Sprintf("%q", col)
		marks[i] = "?"
	}
	insertSQL := fmt.Sprintf(`INSERT INTO %q (%s) VALUES (%s)`,
		t.name, strings.Join(quoted, ", "), strings.Join(marks, ", "))
	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return eris.Wrapf(err, "export: prepare %s", t.name)
	}
	defer stmt.Close()

	args := make([]any, len(t.columns))
	for _, row := range t.rows {
		for i := range t.columns {
			args[i] = convertValue(row[i], t.types[i])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return eris.Wrapf(err, "export: insert into %s", t.name)
		}
	}
	return eris.Wrapf(tx.Commit(), "export: commit %s", t.name)
}

// createTransactionsView (re)builds the dashboard's union view over
// whichever borough transaction tables this export produced.
func createTransactionsView(ctx context.Context, db *sql.DB, tables []*table) error {
	present := map[string]bool{}
	for _, t := range tables {
		present[t.name] = true
	}
	var selects []string
	for _, name := range transactionViewTables {
		if present[name] {
			selects = append(selects, fmt.Sprintf(`SELECT * FROM %q`, name))
		}
	}

	if _, err := db.ExecContext(ctx, `DROP VIEW IF EXISTS "transactions_combined"`); err != nil {
		return eris.Wrap(err, "export: drop view")
	}
	if len(selects) == 0 {
		return nil
	}
	viewSQL := `CREATE VIEW "transactions_combined" AS ` + strings.Join(selects, " UNION ALL ")
	if _, err := db.ExecContext(ctx, viewSQL); err != nil {
		return eris.Wrap(err, "export: create view")
	}
	return nil
}
