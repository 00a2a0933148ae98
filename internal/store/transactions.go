package store

import (
	"encoding/csv"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ivoytov/manhattan/internal/model"
)

// Sale is one recorded property transaction from the city's rolling sales
// dataset. The dataset is an external comparison source and is consumed
// as-is, never written.
type Sale struct {
	Borough  string
	Block    string
	Lot      string
	SaleDate time.Time
	Price    string
	Address  string
}

// Sales indexes recorded sales by block and lot for post-auction lookups.
type Sales struct {
	byParcel map[string][]Sale
}

// LoadSales streams a recorded-sales CSV (BOROUGH, BLOCK, LOT, SALE DATE,
// SALE PRICE, ADDRESS, ...). Column positions are taken from the header so
// extra columns and reordered exports both work.
func LoadSales(path string) (*Sales, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "store: header %s", path)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	for _, want := range []string{"BOROUGH", "BLOCK", "LOT", "SALE DATE"} {
		if _, ok := col[want]; !ok {
			return nil, eris.Errorf("store: %s: missing column %s", path, want)
		}
	}

	s := &Sales{byParcel: map[string][]Sale{}}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "store: read %s", path)
		}
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		date, err := time.Parse(model.DateLayout, get("SALE DATE"))
		if err != nil {
			// The city export mixes date formats; skip unparseable rows.
			continue
		}
		sale := Sale{
			Borough:  get("BOROUGH"),
			Block:    get("BLOCK"),
			Lot:      get("LOT"),
			SaleDate: date,
			Price:    get("SALE PRICE"),
			Address:  get("ADDRESS"),
		}
		key := sale.Block + "-" + sale.Lot
		s.byParcel[key] = append(s.byParcel[key], sale)
	}
	return s, nil
}

// SoldAfter reports whether the parcel has a recorded sale on or after the
// given auction date.
func (s *Sales) SoldAfter(block, lot string, auctionDate time.Time) bool {
	for _, sale := range s.byParcel[block+"-"+lot] {
		if !sale.SaleDate.Before(auctionDate) {
			return true
		}
	}
	return false
}
