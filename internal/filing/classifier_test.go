package filing

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivoytov/manhattan/internal/config"
	"github.com/ivoytov/manhattan/internal/model"
)

var testWindows = config.WindowsConfig{
	SurplusQuietDays:  5,
	NoticeHorizonDays: 21,
	NoticeStaleDays:   90,
}

func testClassifier(t *testing.T, now time.Time) (*Classifier, string) {
	t.Helper()
	dir := t.TempDir()
	return NewClassifier(dir, testWindows, func() time.Time { return now }), dir
}

func writeFiling(t *testing.T, dir string, ft model.FilingType, index string) {
	t.Helper()
	path := filepath.Join(dir, "saledocs", ft.Dir(), model.SafeIndex(index)+".pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
}

func TestMissing_PastAuctionWantsBoth(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c, _ := testClassifier(t, now)

	// Auction well in the past: both filing types should be due, notice first.
	missing := c.Missing("705281/2016", now.AddDate(0, 0, -30))
	assert.Equal(t, []model.FilingType{model.NoticeOfSale, model.SurplusMoneyForm}, missing)
}

func TestMissing_ExistingFileNeverReturned(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c, dir := testClassifier(t, now)
	writeFiling(t, dir, model.NoticeOfSale, "705281/2016")

	missing := c.Missing("705281/2016", now.AddDate(0, 0, -30))
	assert.Equal(t, []model.FilingType{model.SurplusMoneyForm}, missing)

	writeFiling(t, dir, model.SurplusMoneyForm, "705281/2016")
	assert.Empty(t, c.Missing("705281/2016", now.AddDate(0, 0, -30)))
}

func TestMissing_SurplusQuietWindow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c, _ := testClassifier(t, now)

	// Auction 3 days ago: too soon for results, notice is still wanted.
	missing := c.Missing("1/2024", now.AddDate(0, 0, -3))
	assert.Equal(t, []model.FilingType{model.NoticeOfSale}, missing)

	// Future auction: same exclusion applies.
	missing = c.Missing("1/2024", now.AddDate(0, 0, 7))
	assert.Equal(t, []model.FilingType{model.NoticeOfSale}, missing)
}

func TestMissing_NoticeHorizonWindow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c, _ := testClassifier(t, now)

	// More than 21 days out: nothing is filed yet, nothing is due.
	assert.Empty(t, c.Missing("1/2024", now.AddDate(0, 0, 30)))

	// Exactly inside the horizon the notice is due.
	missing := c.Missing("1/2024", now.AddDate(0, 0, 14))
	assert.Equal(t, []model.FilingType{model.NoticeOfSale}, missing)
}

func TestPath_SlashSubstitution(t *testing.T) {
	c := NewClassifier("/data", testWindows, nil)
	assert.Equal(t,
		filepath.Join("/data", "saledocs", "noticeofsale", "705281-2016.pdf"),
		c.Path(model.NoticeOfSale, "705281/2016"))
	assert.Equal(t,
		filepath.Join("/data", "saledocs", "surplusmoney", "705281-2016.pdf"),
		c.Path(model.SurplusMoneyForm, "705281/2016"))
}

func TestAcceptReceivedDate_SurplusMoneyForm(t *testing.T) {
	c := NewClassifier("", testWindows, nil)
	auction := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	// Must describe a completed sale: received before the auction is invalid
	// even when it is the only candidate.
	assert.False(t, c.AcceptReceivedDate(model.SurplusMoneyForm, auction.AddDate(0, 0, -1), auction))
	assert.True(t, c.AcceptReceivedDate(model.SurplusMoneyForm, auction, auction))
	assert.True(t, c.AcceptReceivedDate(model.SurplusMoneyForm, auction.AddDate(0, 0, 10), auction))
}

func TestAcceptReceivedDate_NoticeOfSale(t *testing.T) {
	c := NewClassifier("", testWindows, nil)
	auction := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	// Within the 90-day window before the auction.
	assert.True(t, c.AcceptReceivedDate(model.NoticeOfSale, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), auction))
	// After the auction date.
	assert.False(t, c.AcceptReceivedDate(model.NoticeOfSale, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), auction))
	// More than 90 days before.
	assert.False(t, c.AcceptReceivedDate(model.NoticeOfSale, auction.AddDate(0, 0, -120), auction))
}
