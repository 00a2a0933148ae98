// Package filing decides which court documents a case still needs and
// whether a candidate document's received date is plausible for its type.
package filing

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ivoytov/manhattan/internal/config"
	"github.com/ivoytov/manhattan/internal/model"
)

// Classifier applies the date-window business rules to a case's filing set.
type Classifier struct {
	dataDir string
	windows config.WindowsConfig
	now     func() time.Time
}

// NewClassifier creates a Classifier rooted at dataDir. The now function is
// injectable for tests; pass nil for wall-clock time.
func NewClassifier(dataDir string, windows config.WindowsConfig, now func() time.Time) *Classifier {
	if now == nil {
		now = time.Now
	}
	return &Classifier{dataDir: dataDir, windows: windows, now: now}
}

// Path returns the deterministic location of a filing on disk:
// <dataDir>/saledocs/<type dir>/<index with '/'→'-'>.pdf. File existence at
// this path is the sole presence marker; there is no separate metadata store.
func (c *Classifier) Path(t model.FilingType, indexNumber string) string {
	return filepath.Join(c.dataDir, "saledocs", t.Dir(), model.SafeIndex(indexNumber)+".pdf")
}

// Present reports whether the filing already exists on disk.
func (c *Classifier) Present(t model.FilingType, indexNumber string) bool {
	_, err := os.Stat(c.Path(t, indexNumber))
	return err == nil
}

// Missing returns the filing types still needed for a case, in fetch order
// (NoticeOfSale before SurplusMoneyForm). A type is dropped when its file
// already exists, or when the auction date puts it outside its window:
//
//   - SurplusMoneyForm: excluded while the auction is in the future or less
//     than SurplusQuietDays in the past, because the court has likely not
//     yet published results.
//   - NoticeOfSale: excluded while the auction is more than
//     NoticeHorizonDays in the future, because the notice is not yet filed.
//
// An empty result means the caller must not open a browser session at all.
func (c *Classifier) Missing(indexNumber string, auctionDate time.Time) []model.FilingType {
	now := c.now()
	var missing []model.FilingType
	for _, t := range model.AllFilingTypes {
		if c.Present(t, indexNumber) {
			continue
		}
		switch t {
		case model.SurplusMoneyForm:
			if auctionDate.After(now.AddDate(0, 0, -c.windows.SurplusQuietDays)) {
				continue
			}
		case model.NoticeOfSale:
			if auctionDate.After(now.AddDate(0, 0, c.windows.NoticeHorizonDays)) {
				continue
			}
		}
		missing = append(missing, t)
	}
	return missing
}

// AcceptReceivedDate reports whether a candidate document's received date is
// valid for its filing type. This is a correctness rule, not a convenience
// filter: a Surplus Money Form must describe a completed sale, so its
// received date may not precede the auction; a Notice of Sale must announce
// the auction, so it may not be received after it nor more than
// NoticeStaleDays before it.
func (c *Classifier) AcceptReceivedDate(t model.FilingType, received, auctionDate time.Time) bool {
	switch t {
	case model.SurplusMoneyForm:
		return !received.Before(auctionDate)
	case model.NoticeOfSale:
		if received.After(auctionDate) {
			return false
		}
		return !received.Before(auctionDate.AddDate(0, 0, -c.windows.NoticeStaleDays))
	}
	return false
}
