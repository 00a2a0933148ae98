package reconcile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivoytov/manhattan/internal/config"
	"github.com/ivoytov/manhattan/internal/filing"
	"github.com/ivoytov/manhattan/internal/model"
	"github.com/ivoytov/manhattan/internal/store"
)

const noticeText = `SUPREME COURT OF THE STATE OF NEW YORK

NOTICE OF SALE

premises known as 123 Mott Street, New York, NY 10013

Block: 482 and Lot: 17

$1,234,567.89
`

var testWindows = config.WindowsConfig{
	SurplusQuietDays:  5,
	NoticeHorizonDays: 21,
	NoticeStaleDays:   90,
}

func testNow() time.Time {
	return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

type fakeSession struct {
	fetch func(ctx context.Context, missing []model.FilingType) ([]model.FilingType, error)
}

func (s *fakeSession) FetchFilings(ctx context.Context, missing []model.FilingType) ([]model.FilingType, error) {
	return s.fetch(ctx, missing)
}

func (s *fakeSession) Close() {}

type fakeExtractor struct {
	text string
	err  error
}

func (e *fakeExtractor) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	return e.text, e.err
}

func seedRegistry(t *testing.T, dataDir string, cases ...model.Case) {
	t.Helper()
	reg, err := store.OpenCaseRegistry(dataDir)
	require.NoError(t, err)
	reg.Merge(cases)
	require.NoError(t, reg.Save())
}

// downloadingFactory returns sessions that "download" by writing a file of
// plausible size at the classifier's path for each requested filing type.
func downloadingFactory(t *testing.T, class *filing.Classifier, opened *int) SessionFactory {
	t.Helper()
	return func(ctx context.Context, got model.Case) (CaseSession, error) {
		*opened++
		return &fakeSession{fetch: func(ctx context.Context, missing []model.FilingType) ([]model.FilingType, error) {
			for _, ft := range missing {
				dest := class.Path(ft, got.IndexNumber)
				require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))
				require.NoError(t, os.WriteFile(dest, []byte(strings.Repeat("x", 2048)), 0o644))
			}
			return missing, nil
		}}, nil
	}
}

func TestRunDownloadsAndBackfills(t *testing.T) {
	dataDir := t.TempDir()
	kase := model.Case{
		IndexNumber: "705281/2016",
		Borough:     model.Manhattan,
		AuctionDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		CaseName:    "Bank v. Owner",
	}
	seedRegistry(t, dataDir, kase)

	class := filing.NewClassifier(dataDir, testWindows, testNow)
	opened := 0
	d := NewDriver(dataDir, class, downloadingFactory(t, class, &opened),
		&fakeExtractor{text: noticeText}, nil, 0)

	sum, err := d.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, sum.Sessions)
	assert.Equal(t, 2, sum.Downloads, "both filing types fetched")
	assert.Equal(t, 1, sum.Backfilled)
	assert.Zero(t, sum.CaseFailures)

	lots, err := store.OpenLotStore(dataDir)
	require.NoError(t, err)
	require.Len(t, lots.Lots(), 1)
	assert.Equal(t, "482", lots.Lots()[0].Block)
	assert.Equal(t, "17", lots.Lots()[0].Lot)
	assert.Equal(t, "123 Mott Street, New York, NY 10013", lots.Lots()[0].Address)

	results, err := store.OpenResultStore(dataDir)
	require.NoError(t, err)
	require.Len(t, results.Results(), 1)
	assert.Equal(t, "1234567.89", results.Results()[0].Judgement)
}

func TestRerunOpensNoSessions(t *testing.T) {
	dataDir := t.TempDir()
	kase := model.Case{
		IndexNumber: "705281/2016",
		Borough:     model.Manhattan,
		AuctionDate: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		CaseName:    "Bank v. Owner",
	}
	seedRegistry(t, dataDir, kase)

	class := filing.NewClassifier(dataDir, testWindows, testNow)
	opened := 0
	d := NewDriver(dataDir, class, downloadingFactory(t, class, &opened),
		&fakeExtractor{text: noticeText}, nil, 0)
	_, err := d.Run(context.Background())
	require.NoError(t, err)

	lotsPath := filepath.Join(dataDir, "transactions", "foreclosure_lots.csv")
	resultsPath := filepath.Join(dataDir, "transactions", "auction_results.csv")
	lotsBefore, err := os.ReadFile(lotsPath)
	require.NoError(t, err)
	resultsBefore, err := os.ReadFile(resultsPath)
	require.NoError(t, err)

	d2 := NewDriver(dataDir, class,
		func(ctx context.Context, kase model.Case) (CaseSession, error) {
			t.Fatal("re-run must not open a session")
			return nil, nil
		},
		&fakeExtractor{err: eris.New("must not extract")}, nil, 0)

	sum, err := d2.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Sessions)

	lotsAfter, err := os.ReadFile(lotsPath)
	require.NoError(t, err)
	resultsAfter, err := os.ReadFile(resultsPath)
	require.NoError(t, err)
	assert.Equal(t, lotsBefore, lotsAfter, "re-run is byte-stable")
	assert.Equal(t, resultsBefore, resultsAfter)
}

func TestRunIsolatesCaseFailures(t *testing.T) {
	dataDir := t.TempDir()
	bad := model.Case{
		IndexNumber: "100001/2024",
		Borough:     model.Bronx,
		AuctionDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	good := model.Case{
		IndexNumber: "100002/2024",
		Borough:     model.Brooklyn,
		AuctionDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	seedRegistry(t, dataDir, bad, good)

	class := filing.NewClassifier(dataDir, testWindows, testNow)
	var openedFor []string
	factory := func(ctx context.Context, kase model.Case) (CaseSession, error) {
		openedFor = append(openedFor, kase.IndexNumber)
		if kase.IndexNumber == bad.IndexNumber {
			return &fakeSession{fetch: func(ctx context.Context, missing []model.FilingType) ([]model.FilingType, error) {
				return nil, eris.New("connection reset")
			}}, nil
		}
		return &fakeSession{fetch: func(ctx context.Context, missing []model.FilingType) ([]model.FilingType, error) {
			return nil, nil
		}}, nil
	}

	d := NewDriver(dataDir, class, factory, &fakeExtractor{}, nil, 0)
	sum, err := d.Run(context.Background())
	require.NoError(t, err, "one bad case never aborts the pass")
	assert.Equal(t, 1, sum.CaseFailures)
	assert.ElementsMatch(t, []string{bad.IndexNumber, good.IndexNumber}, openedFor)
}

func TestRunSkipsExcludedCases(t *testing.T) {
	dataDir := t.TempDir()
	kase := model.Case{
		IndexNumber: "100003/2024",
		Borough:     model.Queens,
		AuctionDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	seedRegistry(t, dataDir, kase)
	require.NoError(t, store.OpenExclusionLog(dataDir).Append(kase.IndexNumber, "Discontinued"))

	class := filing.NewClassifier(dataDir, testWindows, testNow)
	d := NewDriver(dataDir, class,
		func(ctx context.Context, kase model.Case) (CaseSession, error) {
			t.Fatal("excluded case must not open a session")
			return nil, nil
		},
		&fakeExtractor{}, nil, 0)

	sum, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Zero(t, sum.Sessions)
}

func TestPrompterFillsRemainingFields(t *testing.T) {
	dataDir := t.TempDir()
	kase := model.Case{
		IndexNumber: "100004/2024",
		Borough:     model.StatenIsland,
		AuctionDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}
	seedRegistry(t, dataDir, kase)

	class := filing.NewClassifier(dataDir, testWindows, testNow)
	// Pre-place both filings so no session is needed.
	for _, ft := range model.AllFilingTypes {
		dest := class.Path(ft, kase.IndexNumber)
		require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))
		require.NoError(t, os.WriteFile(dest, []byte(strings.Repeat("x", 2048)), 0o644))
	}

	// Answer every question with 500000; the extractor fails so only the
	// prompt can fill fields.
	answers := strings.Repeat("500000\n", 6)
	prompt := NewStdioPrompter(strings.NewReader(answers), &strings.Builder{})

	d := NewDriver(dataDir, class,
		func(ctx context.Context, kase model.Case) (CaseSession, error) {
			t.Fatal("no session expected")
			return nil, nil
		},
		&fakeExtractor{err: eris.New("illegible scan")}, prompt, 0)

	sum, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Backfilled)

	results, err := store.OpenResultStore(dataDir)
	require.NoError(t, err)
	require.Len(t, results.Results(), 1)
	assert.Equal(t, "500000", results.Results()[0].UpsetPrice)
	assert.Equal(t, "500000", results.Results()[0].WinningBid)
}

func TestOrderCases(t *testing.T) {
	dataDir := t.TempDir()
	lots, err := store.OpenLotStore(dataDir)
	require.NoError(t, err)

	complete := model.Case{IndexNumber: "1/2024", Borough: model.Manhattan, AuctionDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	for _, l := range lots.ForCase(complete) {
		l.Block, l.Lot = "1", "1"
	}

	oldGap := model.Case{IndexNumber: "2/2023", Borough: model.Manhattan, AuctionDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)}
	newGap := model.Case{IndexNumber: "3/2024", Borough: model.Manhattan, AuctionDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)}

	got := orderCases([]model.Case{complete, oldGap, newGap}, lots)
	require.Len(t, got, 3)
	assert.Equal(t, newGap.IndexNumber, got[0].IndexNumber, "incomplete and newest first")
	assert.Equal(t, oldGap.IndexNumber, got[1].IndexNumber)
	assert.Equal(t, complete.IndexNumber, got[2].IndexNumber)
}
