// Package reconcile walks the case registry, acquires the filings each
// case still needs, and backfills structured fields from their text. One
// pass is sequential and single-threaded; the court site's server-side form
// state does not tolerate concurrent sessions from one address.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ivoytov/manhattan/internal/extract"
	"github.com/ivoytov/manhattan/internal/filing"
	"github.com/ivoytov/manhattan/internal/model"
	"github.com/ivoytov/manhattan/internal/nyscef"
	"github.com/ivoytov/manhattan/internal/ocr"
	"github.com/ivoytov/manhattan/internal/store"
)

// CaseSession is the per-case automation protocol the driver depends on.
type CaseSession interface {
	FetchFilings(ctx context.Context, missing []model.FilingType) ([]model.FilingType, error)
	Close()
}

// SessionFactory opens a session scoped to one case. The driver calls it
// only when the case has at least one missing filing.
type SessionFactory func(ctx context.Context, kase model.Case) (CaseSession, error)

// Summary reports what a reconcile pass did.
type Summary struct {
	Cases        int
	Skipped      int
	Sessions     int
	Downloads    int
	Backfilled   int
	Discontinued int
	CaseFailures int
}

// Driver runs the reconcile pass over the data directory.
type Driver struct {
	dataDir  string
	class    *filing.Classifier
	sessions SessionFactory
	text     ocr.Extractor
	prompt   Prompter
	limiter  *rate.Limiter
	log      *zap.Logger
}

// NewDriver wires a Driver. prompt may be nil (no interactive fallback).
// sessionsPerMinute bounds how fast new browser sessions are opened.
func NewDriver(dataDir string, class *filing.Classifier, sessions SessionFactory, text ocr.Extractor, prompt Prompter, sessionsPerMinute int) *Driver {
	limit := rate.Inf
	if sessionsPerMinute > 0 {
		limit = rate.Limit(float64(sessionsPerMinute) / 60.0)
	}
	return &Driver{
		dataDir:  dataDir,
		class:    class,
		sessions: sessions,
		text:     text,
		prompt:   prompt,
		limiter:  rate.NewLimiter(limit, 1),
		log:      zap.L().Named("reconcile"),
	}
}

// Run executes one full pass: load stores, process every case behind its
// own error boundary, then persist all amended stores in one bulk write.
// Only store-level failures (cannot load or save) abort the run.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	registry, err := store.OpenCaseRegistry(d.dataDir)
	if err != nil {
		return sum, eris.Wrap(err, "reconcile: case registry")
	}
	lots, err := store.OpenLotStore(d.dataDir)
	if err != nil {
		return sum, eris.Wrap(err, "reconcile: lot store")
	}
	results, err := store.OpenResultStore(d.dataDir)
	if err != nil {
		return sum, eris.Wrap(err, "reconcile: result store")
	}
	excluded, err := store.OpenExclusionLog(d.dataDir).Excluded()
	if err != nil {
		return sum, eris.Wrap(err, "reconcile: exclusion log")
	}
	courtAddrs, err := store.CourtAddresses(d.dataDir)
	if err != nil {
		return sum, eris.Wrap(err, "reconcile: court addresses")
	}

	cases := orderCases(registry.Cases(), lots)
	sum.Cases = len(cases)

	for _, kase := range cases {
		if err := ctx.Err(); err != nil {
			return sum, eris.Wrap(err, "reconcile: pass interrupted")
		}
		if excluded[kase.IndexNumber] {
			sum.Skipped++
			continue
		}
		d.processCase(ctx, kase, lots, results, courtAddrs, &sum)
	}

	if err := lots.Save(); err != nil {
		return sum, eris.Wrap(err, "reconcile: save lots")
	}
	if err := results.Save(); err != nil {
		return sum, eris.Wrap(err, "reconcile: save results")
	}

	d.log.Info("pass complete",
		zap.Int("cases", sum.Cases),
		zap.Int("sessions", sum.Sessions),
		zap.Int("downloads", sum.Downloads),
		zap.Int("backfilled", sum.Backfilled),
		zap.Int("failures", sum.CaseFailures),
	)
	return sum, nil
}

// processCase handles one case end to end. Every failure is logged with
// enough context to replay by hand and then swallowed: one bad case never
// stops the pass.
func (d *Driver) processCase(ctx context.Context, kase model.Case, lots *store.LotStore, results *store.ResultStore, courtAddrs []string, sum *Summary) {
	log := d.log.With(
		zap.String("index_number", kase.IndexNumber),
		zap.String("borough", string(kase.Borough)),
	)

	missing := d.class.Missing(kase.IndexNumber, kase.AuctionDate)
	if len(missing) > 0 {
		if err := d.fetchCase(ctx, kase, missing, sum); err != nil {
			var disc *nyscef.DiscontinuedError
			if errors.As(err, &disc) {
				sum.Discontinued++
				log.Info("case discontinued, excluded from future runs")
				return
			}
			sum.CaseFailures++
			log.Error("case failed",
				zap.Strings("missing", filingNames(missing)),
				zap.Error(err),
			)
			// Fall through: a partial download may still be extractable.
		}
	}

	if lots.Incomplete(kase) || needsResult(results, kase) {
		if d.backfill(ctx, kase, lots, results, courtAddrs, log) {
			sum.Backfilled++
		}
	}
}

// fetchCase opens one rate-limited session and fetches the missing filings.
func (d *Driver) fetchCase(ctx context.Context, kase model.Case, missing []model.FilingType, sum *Summary) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "reconcile: session pacing")
	}

	sess, err := d.sessions(ctx, kase)
	if err != nil {
		return eris.Wrap(err, "reconcile: open session")
	}
	defer sess.Close()
	sum.Sessions++

	got, err := sess.FetchFilings(ctx, missing)
	sum.Downloads += len(got)
	return err
}

// backfill fills still-blank structured fields from the filings on disk,
// then from the interactive prompt when one is wired. Extraction failures
// are logged and skipped; the PDF stays on disk for the next run.
func (d *Driver) backfill(ctx context.Context, kase model.Case, lots *store.LotStore, results *store.ResultStore, courtAddrs []string, log *zap.Logger) bool {
	changed := false

	if d.class.Present(model.NoticeOfSale, kase.IndexNumber) && lots.Incomplete(kase) {
		text, err := d.text.ExtractText(ctx, d.class.Path(model.NoticeOfSale, kase.IndexNumber))
		if err != nil {
			log.Warn("notice of sale extraction failed", zap.Error(err))
		} else {
			changed = applyNoticeFields(kase, text, lots, results, courtAddrs) || changed
		}
	}

	if d.prompt != nil {
		changed = d.promptCase(kase, lots, results) || changed
	}
	return changed
}

// applyNoticeFields writes block, lot, address, and the judgment amount
// parsed from a Notice of Sale into the stores. Blank extractions leave the
// existing values untouched.
func applyNoticeFields(kase model.Case, text string, lots *store.LotStore, results *store.ResultStore, courtAddrs []string) bool {
	changed := false

	block, lot := extract.BlockLot(text)
	address := extract.Address(text, courtAddrs)
	for _, l := range lots.ForCase(kase) {
		if l.Block == "" && block != "" {
			l.Block, changed = block, true
		}
		if l.Lot == "" && lot != "" {
			l.Lot, changed = lot, true
		}
		if l.Address == "" && address != "" {
			l.Address, changed = address, true
		}
	}

	if amount, ok := extract.Judgement(text); ok {
		r := results.ForCase(kase)
		if r.Judgement == "" {
			r.Judgement = strconv.FormatFloat(amount, 'f', -1, 64)
			changed = true
		}
	}
	return changed
}

// promptCase asks a human for whatever automation left blank.
func (d *Driver) promptCase(kase model.Case, lots *store.LotStore, results *store.ResultStore) bool {
	changed := false
	label := fmt.Sprintf("%s (%s)", kase.IndexNumber, kase.Borough)

	for _, l := range lots.ForCase(kase) {
		changed = askIfBlank(d.prompt, label+" block", &l.Block) || changed
		changed = askIfBlank(d.prompt, label+" lot", &l.Lot) || changed
		changed = askIfBlank(d.prompt, label+" address", &l.Address) || changed
	}

	r := results.ForCase(kase)
	changed = askIfBlank(d.prompt, label+" judgement", &r.Judgement) || changed
	changed = askIfBlank(d.prompt, label+" upset price", &r.UpsetPrice) || changed
	changed = askIfBlank(d.prompt, label+" winning bid", &r.WinningBid) || changed
	return changed
}

func askIfBlank(p Prompter, label string, field *string) bool {
	if *field != "" {
		return false
	}
	val, ok := p.Ask(label)
	if !ok || val == "" {
		return false
	}
	*field = val
	return true
}

// needsResult reports whether the case's auction outcome row is still
// missing any field.
func needsResult(results *store.ResultStore, kase model.Case) bool {
	for _, r := range results.Results() {
		if r.IndexNumber == kase.IndexNumber {
			return r.Judgement == "" || r.UpsetPrice == "" || r.WinningBid == ""
		}
	}
	return true
}

// orderCases sorts a copy of the registry: cases with incomplete lot data
// first, newest auction date first within each group. Effort lands on the
// most time-sensitive gaps.
func orderCases(cases []model.Case, lots *store.LotStore) []model.Case {
	out := make([]model.Case, len(cases))
	copy(out, cases)
	sort.SliceStable(out, func(i, j int) bool {
		ii, ji := lots.Incomplete(out[i]), lots.Incomplete(out[j])
		if ii != ji {
			return ii
		}
		return out[i].AuctionDate.After(out[j].AuctionDate)
	})
	return out
}

func filingNames(types []model.FilingType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
