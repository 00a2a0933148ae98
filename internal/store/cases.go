package store

import (
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ivoytov/manhattan/internal/model"
)

var casesHeader = []string{"case_number", "borough", "auction_date", "case_name"}

// CaseRegistry is the authoritative list of tracked foreclosure cases,
// backed by foreclosures/cases.csv. Append-only: merged calendar entries are
// deduplicated by (borough, case_number) and existing rows are never removed.
type CaseRegistry struct {
	path  string
	cases []model.Case
}

// OpenCaseRegistry loads the registry from <dataDir>/foreclosures/cases.csv.
func OpenCaseRegistry(dataDir string) (*CaseRegistry, error) {
	path := filepath.Join(dataDir, "foreclosures", "cases.csv")
	rows, err := readRows(path, casesHeader)
	if err != nil {
		return nil, err
	}

	reg := &CaseRegistry{path: path}
	for _, row := range rows {
		c, err := caseFromRow(row)
		if err != nil {
			return nil, eris.Wrapf(err, "store: %s", path)
		}
		reg.cases = append(reg.cases, c)
	}
	return reg, nil
}

func caseFromRow(row []string) (model.Case, error) {
	if len(row) < 4 {
		return model.Case{}, eris.Errorf("short row %v", row)
	}
	borough, err := model.ParseBorough(row[1])
	if err != nil {
		return model.Case{}, err
	}
	auction, err := time.Parse(model.DateLayout, row[2])
	if err != nil {
		return model.Case{}, eris.Wrapf(err, "auction date for %s", row[0])
	}
	return model.Case{
		IndexNumber: row[0],
		Borough:     borough,
		AuctionDate: auction,
		CaseName:    row[3],
	}, nil
}

// Cases returns the in-memory case list. Callers may reorder it; Save
// persists whatever order it is in.
func (r *CaseRegistry) Cases() []model.Case {
	return r.cases
}

// Merge appends cases not already present, keyed by (borough, case_number).
// Returns the number of net-new cases added.
func (r *CaseRegistry) Merge(incoming []model.Case) int {
	seen := make(map[string]bool, len(r.cases))
	for _, c := range r.cases {
		seen[c.Key()] = true
	}
	added := 0
	for _, c := range incoming {
		if seen[c.Key()] {
			continue
		}
		seen[c.Key()] = true
		r.cases = append(r.cases, c)
		added++
	}
	return added
}

// Save rewrites the registry CSV in one bulk write.
func (r *CaseRegistry) Save() error {
	rows := make([][]string, 0, len(r.cases))
	for _, c := range r.cases {
		rows = append(rows, []string{
			c.IndexNumber,
			string(c.Borough),
			c.AuctionDate.Format(model.DateLayout),
			c.CaseName,
		})
	}
	return writeRows(r.path, casesHeader, rows)
}
