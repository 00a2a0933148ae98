package store

import (
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/ivoytov/manhattan/internal/model"
)

var lotsHeader = []string{"case_number", "borough", "block", "lot", "address"}

// LotStore holds one row per lot per case, backed by
// transactions/foreclosure_lots.csv. A case may carry several lots; rows are
// amended in place as extraction backfills block/lot/address.
type LotStore struct {
	path string
	lots []model.Lot
}

// OpenLotStore loads <dataDir>/transactions/foreclosure_lots.csv.
func OpenLotStore(dataDir string) (*LotStore, error) {
	path := filepath.Join(dataDir, "transactions", "foreclosure_lots.csv")
	rows, err := readRows(path, lotsHeader)
	if err != nil {
		return nil, err
	}

	s := &LotStore{path: path}
	for _, row := range rows {
		if len(row) < 5 {
			return nil, eris.Errorf("store: %s: short row %v", path, row)
		}
		borough, err := model.ParseBorough(row[1])
		if err != nil {
			return nil, eris.Wrapf(err, "store: %s", path)
		}
		s.lots = append(s.lots, model.Lot{
			IndexNumber: row[0],
			Borough:     borough,
			Block:       row[2],
			Lot:         row[3],
			Address:     row[4],
		})
	}
	return s, nil
}

// Lots returns the in-memory lot list.
func (s *LotStore) Lots() []model.Lot {
	return s.lots
}

// ForCase returns pointers to the lots of one case so the driver can amend
// them in place. A case first seen with no lot rows gets one created.
func (s *LotStore) ForCase(c model.Case) []*model.Lot {
	var out []*model.Lot
	for i := range s.lots {
		if s.lots[i].IndexNumber == c.IndexNumber && s.lots[i].Borough == c.Borough {
			out = append(out, &s.lots[i])
		}
	}
	if out == nil {
		s.lots = append(s.lots, model.Lot{IndexNumber: c.IndexNumber, Borough: c.Borough})
		out = []*model.Lot{&s.lots[len(s.lots)-1]}
	}
	return out
}

// Incomplete reports whether a case still lacks block or lot data.
func (s *LotStore) Incomplete(c model.Case) bool {
	found := false
	for i := range s.lots {
		if s.lots[i].IndexNumber != c.IndexNumber || s.lots[i].Borough != c.Borough {
			continue
		}
		found = true
		if s.lots[i].Block == "" || s.lots[i].Lot == "" {
			return true
		}
	}
	return !found
}

// Save rewrites the lot store in one bulk write.
func (s *LotStore) Save() error {
	rows := make([][]string, 0, len(s.lots))
	for _, l := range s.lots {
		rows = append(rows, []string{l.IndexNumber, string(l.Borough), l.Block, l.Lot, l.Address})
	}
	return writeRows(s.path, lotsHeader, rows)
}
