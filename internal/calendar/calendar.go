// Package calendar scrapes the five boroughs' foreclosure-auction court
// calendars and merges newly listed cases into the case registry. Cases
// enter the pipeline here; every other command amends what this one seeds.
package calendar

import (
	"context"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ivoytov/manhattan/internal/config"
	"github.com/ivoytov/manhattan/internal/model"
	"github.com/ivoytov/manhattan/internal/resilience"
	"github.com/ivoytov/manhattan/internal/store"
)

const calendarSearchURL = "https://iapps.courts.state.ny.us/webcivil/FCASCalendarSearch"

// horizonDays bounds how far ahead listed auctions are picked up. The
// calendar shows placeholder entries further out that are routinely
// rescheduled, so they are left for a later scrape.
const horizonDays = 14

const (
	selCourtSelect = "select#cboCourt"
	selPartSelect  = "select#cboCourtPart"
	selFindButton  = "input#btnFindCalendar"
	selApplyButton = "input#btnApply"
	// First radio of the date-range refinement form, shown only when the
	// part has more sessions than one page.
	selRefineRadio = "#showForm > tbody > tr:nth-child(6) > td > input:nth-child(1)"
	selCaseEntry   = "dt"
	selEntryLink   = "a"
)

// Scraper walks each borough's auction calendar through a remote browser.
type Scraper struct {
	cfg   config.BrowserConfig
	parts map[model.Borough]CourtPart
	now   func() time.Time
	log   *zap.Logger
}

// NewScraper creates a Scraper. The now function is injectable for tests;
// pass nil for wall-clock time.
func NewScraper(cfg config.BrowserConfig, now func() time.Time) *Scraper {
	if now == nil {
		now = time.Now
	}
	return &Scraper{
		cfg:   cfg,
		parts: courtParts(),
		now:   now,
		log:   zap.L().Named("calendar"),
	}
}

// Scrape lists upcoming auction cases across all boroughs, bounded by the
// scrape horizon. A borough that fails is logged and skipped so one broken
// calendar page does not lose the other four.
func (s *Scraper) Scrape(ctx context.Context) ([]model.Case, error) {
	var browser *rod.Browser
	err := resilience.Do(ctx, resilience.DefaultRetryConfig(), "browser connect", func(ctx context.Context) error {
		b := rod.New().ControlURL(s.cfg.Endpoint).Context(ctx)
		if err := b.Connect(); err != nil {
			return resilience.NewTransientError(err)
		}
		browser = b
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "calendar: connect %s", s.cfg.Endpoint)
	}
	defer browser.Close()

	maxDate := s.now().AddDate(0, 0, horizonDays)
	var cases []model.Case
	for _, borough := range model.AllBoroughs {
		found, err := s.scrapeBorough(ctx, browser, borough, maxDate)
		if err != nil {
			s.log.Error("borough scrape failed",
				zap.String("borough", string(borough)),
				zap.Error(err),
			)
			continue
		}
		s.log.Info("borough scraped",
			zap.String("borough", string(borough)),
			zap.Int("cases", len(found)),
		)
		cases = append(cases, found...)
	}
	return cases, nil
}

func (s *Scraper) scrapeBorough(ctx context.Context, browser *rod.Browser, borough model.Borough, maxDate time.Time) ([]model.Case, error) {
	part := s.parts[borough]

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, eris.Wrap(err, "calendar: new page")
	}
	defer page.Close()
	page = page.Context(ctx).Timeout(s.cfg.NavTimeout())
	defer page.CancelTimeout()

	if err := page.Navigate(calendarSearchURL); err != nil {
		return nil, eris.Wrap(err, "calendar: navigate search")
	}
	if err := page.WaitLoad(); err != nil {
		return nil, eris.Wrap(err, "calendar: load search")
	}

	if err := selectOption(page, selCourtSelect, part.CourtID); err != nil {
		return nil, eris.Wrapf(err, "calendar: select court %s", part.CourtID)
	}
	if err := selectOption(page, selPartSelect, part.CalendarID); err != nil {
		return nil, eris.Wrapf(err, "calendar: select part %s", part.CalendarID)
	}

	if err := clickAndSettle(page, selFindButton); err != nil {
		return nil, eris.Wrap(err, "calendar: find calendar")
	}

	// Busy parts paginate behind a refinement form; take the first range.
	hasApply, _, err := page.Has(selApplyButton)
	if err != nil {
		return nil, eris.Wrap(err, "calendar: refinement check")
	}
	if hasApply {
		if radio, err := page.Element(selRefineRadio); err == nil {
			if err := radio.Click(proto.InputMouseButtonLeft, 1); err != nil {
				return nil, eris.Wrap(err, "calendar: refine range")
			}
		}
		if err := clickAndSettle(page, selApplyButton); err != nil {
			return nil, eris.Wrap(err, "calendar: apply refinement")
		}
	}

	entries, err := page.Elements(selCaseEntry)
	if err != nil {
		return nil, eris.Wrap(err, "calendar: case entries")
	}

	var cases []model.Case
	for _, entry := range entries {
		kase, err := s.parseEntry(entry, borough)
		if err != nil {
			s.log.Debug("skipping calendar entry", zap.Error(err))
			continue
		}
		if !kase.AuctionDate.Before(maxDate) {
			continue
		}
		cases = append(cases, kase)
	}
	return cases, nil
}

// parseEntry turns one calendar <dt> entry into a Case. The auction date
// only appears inside the entry link's onclick argument list; the entry
// text carries the index number as its third word.
func (s *Scraper) parseEntry(entry *rod.Element, borough model.Borough) (model.Case, error) {
	text, err := entry.Text()
	if err != nil {
		return model.Case{}, eris.Wrap(err, "entry text")
	}
	index, err := parseIndexNumber(text)
	if err != nil {
		return model.Case{}, err
	}

	link, err := entry.Element(selEntryLink)
	if err != nil {
		return model.Case{}, eris.Wrapf(err, "entry link for %s", index)
	}
	onclick, err := link.Attribute("onclick")
	if err != nil || onclick == nil {
		return model.Case{}, eris.Errorf("no onclick for %s", index)
	}
	auction, err := parseHearingDate(*onclick)
	if err != nil {
		return model.Case{}, eris.Wrapf(err, "auction date for %s", index)
	}

	name, err := link.Text()
	if err != nil {
		return model.Case{}, eris.Wrapf(err, "case name for %s", index)
	}

	return model.Case{
		IndexNumber: index,
		Borough:     borough,
		AuctionDate: auction,
		CaseName:    strings.TrimSpace(name),
	}, nil
}

func selectOption(page *rod.Page, selector, value string) error {
	el, err := page.Element(selector)
	if err != nil {
		return err
	}
	return el.Select([]string{`option[value="` + value + `"]`}, true, rod.SelectorTypeCSSSector)
}

func clickAndSettle(page *rod.Page, selector string) error {
	el, err := page.Element(selector)
	if err != nil {
		return err
	}
	wait := page.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	wait()
	return nil
}

// Update scrapes the calendars and merges net-new cases into the registry
// at dataDir, returning how many were added. Existing rows are never
// touched; the merge key is (borough, case_number).
func Update(ctx context.Context, cfg config.BrowserConfig, dataDir string) (int, error) {
	cases, err := NewScraper(cfg, nil).Scrape(ctx)
	if err != nil {
		return 0, err
	}

	registry, err := store.OpenCaseRegistry(dataDir)
	if err != nil {
		return 0, eris.Wrap(err, "calendar: case registry")
	}
	added := registry.Merge(cases)
	if added > 0 {
		if err := registry.Save(); err != nil {
			return added, eris.Wrap(err, "calendar: save registry")
		}
	}
	zap.L().Info("calendar merged",
		zap.Int("scraped", len(cases)),
		zap.Int("added", added),
	)
	return added, nil
}
