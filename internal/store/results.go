package store

import (
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ivoytov/manhattan/internal/model"
)

var resultsHeader = []string{"case_number", "auction_date", "judgement", "upset_price", "winning_bid"}

// ResultStore holds auction outcomes filled in from Surplus Money Forms,
// backed by transactions/auction_results.csv.
type ResultStore struct {
	path    string
	results []model.AuctionResult
}

// OpenResultStore loads <dataDir>/transactions/auction_results.csv.
func OpenResultStore(dataDir string) (*ResultStore, error) {
	path := filepath.Join(dataDir, "transactions", "auction_results.csv")
	rows, err := readRows(path, resultsHeader)
	if err != nil {
		return nil, err
	}

	s := &ResultStore{path: path}
	for _, row := range rows {
		if len(row) < 5 {
			return nil, eris.Errorf("store: %s: short row %v", path, row)
		}
		var auction time.Time
		if row[1] != "" {
			auction, err = time.Parse(model.DateLayout, row[1])
			if err != nil {
				return nil, eris.Wrapf(err, "store: %s: auction date for %s", path, row[0])
			}
		}
		s.results = append(s.results, model.AuctionResult{
			IndexNumber: row[0],
			AuctionDate: auction,
			Judgement:   row[2],
			UpsetPrice:  row[3],
			WinningBid:  row[4],
		})
	}
	return s, nil
}

// Results returns the in-memory result list.
func (s *ResultStore) Results() []model.AuctionResult {
	return s.results
}

// ForCase returns a pointer to the case's result row, creating it on first
// touch.
func (s *ResultStore) ForCase(c model.Case) *model.AuctionResult {
	for i := range s.results {
		if s.results[i].IndexNumber == c.IndexNumber {
			return &s.results[i]
		}
	}
	s.results = append(s.results, model.AuctionResult{
		IndexNumber: c.IndexNumber,
		AuctionDate: c.AuctionDate,
	})
	return &s.results[len(s.results)-1]
}

// Save rewrites the result store in one bulk write.
func (s *ResultStore) Save() error {
	rows := make([][]string, 0, len(s.results))
	for _, r := range s.results {
		date := ""
		if !r.AuctionDate.IsZero() {
			date = r.AuctionDate.Format(model.DateLayout)
		}
		rows = append(rows, []string{r.IndexNumber, date, r.Judgement, r.UpsetPrice, r.WinningBid})
	}
	return writeRows(s.path, resultsHeader, rows)
}
